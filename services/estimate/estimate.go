package estimate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"macrotrack-go-worker/apperr"
	"macrotrack-go-worker/services"
	"macrotrack-go-worker/structs"
	"macrotrack-go-worker/utils"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Estimator turns a free-text meal description into per-item macros.
type Estimator interface {
	Estimate(ctx context.Context, description string, estimationContext structs.EstimationContext) (structs.EstimationResult, error)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

const systemPrompt = "You are a nutrition expert AI that provides accurate, detailed nutritional analysis of food descriptions. Always respond with valid JSON."

// OpenAIEstimator calls an OpenAI compatible chat completions endpoint.
type OpenAIEstimator struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Logger      *logrus.Entry
}

// NewOpenAIEstimator reads the llm section of the loaded configuration.
func NewOpenAIEstimator(logger *logrus.Entry) *OpenAIEstimator {
	conf := utils.EnvConfig.LLM
	return &OpenAIEstimator{
		APIKey:      conf.APIKey,
		BaseURL:     strings.TrimRight(conf.BaseURL, "/"),
		Model:       conf.Model,
		Temperature: conf.Temperature,
		MaxTokens:   conf.MaxTokens,
		Timeout:     utils.ParseDuration(conf.Timeout, 45*time.Second),
		Logger:      logger,
	}
}

func (o *OpenAIEstimator) Estimate(ctx context.Context, description string, estimationContext structs.EstimationContext) (structs.EstimationResult, error) {
	var result structs.EstimationResult
	if strings.TrimSpace(description) == "" {
		return result, apperr.Validation("description", "must not be empty")
	}
	started := time.Now()
	content, err := o.complete(ctx, BuildPrompt(description, estimationContext))
	if err != nil {
		return result, err
	}

	result, err = ParseEstimation([]byte(content))
	if err != nil {
		return result, err
	}
	if estimationContext.MealType != "" {
		result.MealType = estimationContext.MealType
	}
	if o.Logger != nil {
		o.Logger.WithFields(logrus.Fields{
			"model":      o.Model,
			"items":      len(result.FoodItems),
			"confidence": result.ConfidenceScore,
			"elapsed_ms": time.Since(started).Milliseconds(),
		}).Info("meal estimated")
	}
	return result, nil
}

// complete sends one user prompt and returns the first choice's content.
func (o *OpenAIEstimator) complete(ctx context.Context, prompt string) (string, error) {
	if o.APIKey == "" {
		return "", apperr.Estimation("llm api key is not configured", nil)
	}
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	request := chatRequest{
		Model: o.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: o.Temperature,
		MaxTokens:   o.MaxTokens,
	}
	header := map[string]string{"Authorization": "Bearer " + o.APIKey}

	body, err := services.HttpRequest(ctx, http.MethodPost, o.BaseURL+"/chat/completions", header, request)
	if err != nil {
		var statusErr *services.HttpStatusError
		if errors.As(err, &statusErr) {
			return "", apperr.Estimation(fmt.Sprintf("llm returned status %d", statusErr.StatusCode), err)
		}
		if ctx.Err() != nil {
			return "", apperr.Estimation("llm request timed out", ctx.Err())
		}
		return "", apperr.Estimation("llm request failed", err)
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", apperr.Estimation("unreadable llm response", err)
	}
	if response.Error != nil {
		return "", apperr.Estimation("llm error: "+response.Error.Message, nil)
	}
	if len(response.Choices) == 0 {
		return "", apperr.Estimation("llm response has no choices", nil)
	}
	return response.Choices[0].Message.Content, nil
}

// BuildPrompt renders the user prompt for a meal description.
func BuildPrompt(description string, estimationContext structs.EstimationContext) string {
	mealType := estimationContext.MealType
	if mealType == "" {
		mealType = "meal"
	}
	goals := "{}"
	if estimationContext.UserGoals != nil {
		if b, err := json.Marshal(estimationContext.UserGoals); err == nil {
			goals = string(b)
		}
	}
	previous := "none"
	if len(estimationContext.PreviousFoods) > 0 {
		previous = strings.Join(estimationContext.PreviousFoods, ", ")
	}

	var sb strings.Builder
	sb.WriteString("Analyze this food description and provide accurate nutritional information.\n\n")
	fmt.Fprintf(&sb, "FOOD DESCRIPTION: %q\n\n", description)
	sb.WriteString("CONTEXT:\n")
	fmt.Fprintf(&sb, "- Meal Type: %s\n", mealType)
	fmt.Fprintf(&sb, "- User Goals: %s\n", goals)
	fmt.Fprintf(&sb, "- Previous Foods Today: %s\n\n", previous)
	sb.WriteString(`Return a JSON object with this structure:
{
  "meal_name": "Descriptive meal name",
  "meal_type": "` + mealType + `",
  "total_calories": 0,
  "total_protein": 0,
  "total_carbs": 0,
  "total_fat": 0,
  "food_items": [
    {"name": "food", "quantity": 1, "unit": "serving", "calories": 0, "protein": 0, "carbs": 0, "fat": 0}
  ],
  "confidence_score": 0.85
}

List every distinct food as its own item with grams for protein, carbs and fat.
Consider cooking methods and realistic portion sizes.
Respond ONLY with valid JSON, no additional text.`)
	return sb.String()
}
