package estimate

import (
	"context"
	"encoding/json"
	"errors"
	"macrotrack-go-worker/apperr"
	"macrotrack-go-worker/structs"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lunchPayload = `{
  "meal_name": "Chicken and rice",
  "meal_type": "lunch",
  "total_calories": 999,
  "food_items": [
    {"name": "chicken breast", "quantity": 150, "unit": "g", "calories": 200, "protein": "38", "carbs": 0, "fat": 4},
    {"name": "rice", "calories": 150, "protein": 3, "carbs": 33, "fat": 0.5}
  ],
  "confidence_score": 1.7
}`

func nullEntry() *logrus.Entry {
	logger, _ := test.NewNullLogger()
	return logrus.NewEntry(logger)
}

func TestParseEstimation(t *testing.T) {
	result, err := ParseEstimation([]byte("```json\n" + lunchPayload + "\n```"))
	require.NoError(t, err)
	assert.Equal(t, "Chicken and rice", result.MealName)
	require.Len(t, result.FoodItems, 2)
	assert.Equal(t, 38.0, result.FoodItems[0].Protein)
	assert.Equal(t, 1.0, result.FoodItems[1].Quantity)
	assert.Equal(t, "serving", result.FoodItems[1].Unit)
	assert.Equal(t, 1.0, result.ConfidenceScore)
}

func TestParseEstimationDefaults(t *testing.T) {
	result, err := ParseEstimation([]byte(`{"food_items": []}`))
	require.NoError(t, err)
	assert.Equal(t, "New Meal", result.MealName)
	assert.Equal(t, "meal", result.MealType)
	assert.Equal(t, 0.5, result.ConfidenceScore)
	assert.Empty(t, result.FoodItems)
}

func TestParseEstimationRejects(t *testing.T) {
	cases := map[string]string{
		"not json":          `I think it is about 500 calories`,
		"missing items":     `{"meal_name": "x"}`,
		"items not array":   `{"food_items": {"name": "x"}}`,
		"item without name": `{"food_items": [{"calories": 1, "protein": 1, "carbs": 1, "fat": 1}]}`,
		"non numeric macro": `{"food_items": [{"name": "x", "calories": "lots", "protein": 1, "carbs": 1, "fat": 1}]}`,
		"missing macro":     `{"food_items": [{"name": "x", "calories": 1, "protein": 1, "carbs": 1}]}`,
		"negative macro":    `{"food_items": [{"name": "x", "calories": -5, "protein": 1, "carbs": 1, "fat": 1}]}`,
		"empty":             "```json\n```",
	}
	for name, raw := range cases {
		_, err := ParseEstimation([]byte(raw))
		assert.True(t, apperr.IsEstimation(err), name)
	}
}

func chatServer(t *testing.T, calls *int32, handler func(n int32, w http.ResponseWriter)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4", req.Model)
		assert.Equal(t, 0.3, req.Temperature)
		handler(atomic.AddInt32(calls, 1), w)
	}))
}

func writeContent(w http.ResponseWriter, content string) {
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"choices": []map[string]interface{}{{"message": map[string]string{"role": "assistant", "content": content}}},
	})
}

func newEstimator(url string) *OpenAIEstimator {
	return &OpenAIEstimator{APIKey: "sk-test", BaseURL: url, Model: "gpt-4", Temperature: 0.3, MaxTokens: 1000, Timeout: 5 * time.Second, Logger: nullEntry()}
}

func TestOpenAIEstimator(t *testing.T) {
	var calls int32
	server := chatServer(t, &calls, func(n int32, w http.ResponseWriter) { writeContent(w, lunchPayload) })
	defer server.Close()

	result, err := newEstimator(server.URL).Estimate(context.Background(), "chicken and rice", structs.EstimationContext{MealType: "dinner"})
	require.NoError(t, err)
	assert.Equal(t, "dinner", result.MealType)
	assert.Len(t, result.FoodItems, 2)
}

func TestOpenAIEstimatorStatusError(t *testing.T) {
	var calls int32
	server := chatServer(t, &calls, func(n int32, w http.ResponseWriter) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key"}}`))
	})
	defer server.Close()

	policy := RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Multiplier: 2}
	_, err := EstimateWithRetry(context.Background(), newEstimator(server.URL), policy, nullEntry(), "toast", structs.EstimationContext{})
	var ee *apperr.EstimationError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 1, ee.Attempts)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEstimateWithRetryRecoversFromMalformedPayload(t *testing.T) {
	var calls int32
	server := chatServer(t, &calls, func(n int32, w http.ResponseWriter) {
		if n == 1 {
			writeContent(w, "Sorry, I cannot help with that.")
			return
		}
		writeContent(w, lunchPayload)
	})
	defer server.Close()

	policy := RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Multiplier: 2}
	result, err := EstimateWithRetry(context.Background(), newEstimator(server.URL), policy, nullEntry(), "chicken and rice", structs.EstimationContext{})
	require.NoError(t, err)
	assert.Len(t, result.FoodItems, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

type scriptedEstimator struct {
	calls int
	errs  []error
}

func (s *scriptedEstimator) Estimate(ctx context.Context, description string, estimationContext structs.EstimationContext) (structs.EstimationResult, error) {
	s.calls++
	if s.calls <= len(s.errs) && s.errs[s.calls-1] != nil {
		return structs.EstimationResult{}, s.errs[s.calls-1]
	}
	return structs.EstimationResult{MealName: "ok"}, nil
}

func TestEstimateWithRetryExhausted(t *testing.T) {
	estimator := &scriptedEstimator{errs: []error{
		apperr.Estimation("missing food_items", nil),
		apperr.Estimation("missing food_items", nil),
		apperr.Estimation("missing food_items", nil),
	}}
	policy := RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond, Multiplier: 2}

	_, err := EstimateWithRetry(context.Background(), estimator, policy, nil, "soup", structs.EstimationContext{})
	var ee *apperr.EstimationError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 3, ee.Attempts)
	assert.Equal(t, "missing food_items", ee.Reason)
	assert.Equal(t, 3, estimator.calls)
}

func TestEstimateWithRetryValidationNotRetried(t *testing.T) {
	estimator := &scriptedEstimator{errs: []error{apperr.Validation("description", "must not be empty")}}
	_, err := EstimateWithRetry(context.Background(), estimator, DefaultRetryPolicy(), nil, "", structs.EstimationContext{})
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, 1, estimator.calls)
}

func TestEstimateWithRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	estimator := &scriptedEstimator{errs: []error{errors.New("connection refused"), errors.New("connection refused")}}

	_, err := EstimateWithRetry(ctx, estimator, DefaultRetryPolicy(), nil, "soup", structs.EstimationContext{})
	var ee *apperr.EstimationError
	require.ErrorAs(t, err, &ee)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, estimator.calls)
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("two eggs", structs.EstimationContext{
		MealType:      "breakfast",
		UserGoals:     &structs.MacroTotals{Calories: 2000},
		PreviousFoods: []string{"coffee", "banana"},
	})
	assert.Contains(t, prompt, `"two eggs"`)
	assert.Contains(t, prompt, "Meal Type: breakfast")
	assert.Contains(t, prompt, "coffee, banana")
	assert.Contains(t, prompt, `"calories":2000`)
}
