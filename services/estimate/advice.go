package estimate

import (
	"context"
	"encoding/json"
	"fmt"
	"macrotrack-go-worker/apperr"
	"macrotrack-go-worker/structs"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Advisor writes recommendations for a day's intake.
type Advisor interface {
	AdviseBalance(ctx context.Context, consumed, targets structs.MacroTotals, analysis structs.BalanceAnalysis) ([]string, error)
}

func (o *OpenAIEstimator) AdviseBalance(ctx context.Context, consumed, targets structs.MacroTotals, analysis structs.BalanceAnalysis) ([]string, error) {
	started := time.Now()
	content, err := o.complete(ctx, BuildBalancePrompt(consumed, targets, analysis))
	if err != nil {
		return nil, err
	}
	advice, err := ParseAdvice([]byte(content))
	if err != nil {
		return nil, err
	}
	if o.Logger != nil {
		o.Logger.WithFields(logrus.Fields{
			"model":      o.Model,
			"advice":     len(advice),
			"elapsed_ms": time.Since(started).Milliseconds(),
		}).Info("balance advised")
	}
	return advice, nil
}

// BuildBalancePrompt renders the user prompt for a balance recommendation.
func BuildBalancePrompt(consumed, targets structs.MacroTotals, analysis structs.BalanceAnalysis) string {
	var sb strings.Builder
	sb.WriteString("Analyze this daily nutrition intake and provide recommendations:\n\n")
	sb.WriteString("CURRENT INTAKE:\n")
	fmt.Fprintf(&sb, "- Calories: %.0f\n- Protein: %.1fg\n- Carbs: %.1fg\n- Fat: %.1fg\n\n", consumed.Calories, consumed.Protein, consumed.Carbs, consumed.Fat)
	sb.WriteString("USER GOALS:\n")
	fmt.Fprintf(&sb, "- Target Calories: %.0f\n- Target Protein: %.1fg\n- Target Carbs: %.1fg\n- Target Fat: %.1fg\n\n", targets.Calories, targets.Protein, targets.Carbs, targets.Fat)
	fmt.Fprintf(&sb, "ASSESSMENT: calories %s, macros %s, protein %s\n\n", analysis.CalorieBalance, analysis.MacroBalance, analysis.ProteinSufficiency)
	sb.WriteString(`Return a JSON object with this structure:
{
  "recommendations": ["Specific actionable advice"]
}

Give at most 5 short, practical recommendations for the rest of the day.
Respond ONLY with valid JSON, no additional text.`)
	return sb.String()
}

// ParseAdvice reads the recommendations list; blank entries are dropped.
func ParseAdvice(raw []byte) ([]string, error) {
	payload := stripFences(raw)
	if len(payload) == 0 {
		return nil, apperr.Estimation("empty advice", nil)
	}
	var doc struct {
		Recommendations []interface{} `json:"recommendations"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, apperr.Estimation("advice is not a json object", err)
	}
	var advice []string
	for _, entry := range doc.Recommendations {
		text, ok := entry.(string)
		if !ok {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			advice = append(advice, text)
		}
	}
	if len(advice) == 0 {
		return nil, apperr.Estimation("advice has no recommendations", nil)
	}
	return advice, nil
}
