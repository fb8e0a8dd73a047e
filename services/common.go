package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
)

// HttpStatusError is returned for non-2xx responses; Body is the raw payload.
type HttpStatusError struct {
	StatusCode int
	Body       []byte
}

func (e *HttpStatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, string(e.Body))
}

func HttpRequest(ctx context.Context, method, url string, header map[string]string, data interface{}) ([]byte, error) {

	var requestBody io.Reader
	var req *http.Request
	var err error

	// 序列化參數
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		requestBody = bytes.NewBuffer(payload)
	}
	if req, err = http.NewRequestWithContext(ctx, method, url, requestBody); err != nil {
		return nil, err
	}

	client := &http.Client{}

	req.Header.Set("Content-Type", "application/json")
	for key, element := range header {
		req.Header.Set(key, element)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	// 讀取 body
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return body, &HttpStatusError{StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}

// RoundTo rounds x half away from zero to the given number of decimals.
func RoundTo(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}
