package progress

import (
	"context"
	"macrotrack-go-worker/services"
	"macrotrack-go-worker/structs"
	"math"
)

const (
	balanceUnknown   = "unknown"
	noAdvice         = "Unable to analyze at this time"
	noGoalAdvice     = "Set a daily goal to get balance recommendations"
	calorieTolerance = 0.10
	shareTolerance   = 0.10
	proteinLow       = 0.8
	proteinHigh      = 1.2
)

// AnalyzeBalance grades consumed against targets. Recommendations are left
// for the advisor.
func AnalyzeBalance(consumed, targets structs.MacroTotals) structs.MealBalance {
	balance := structs.MealBalance{
		Analysis: structs.BalanceAnalysis{
			CalorieBalance:     balanceUnknown,
			MacroBalance:       balanceUnknown,
			ProteinSufficiency: balanceUnknown,
		},
		RemainingTargets: structs.MacroTotals{
			Calories: remaining(targets.Calories, consumed.Calories),
			Protein:  remaining(targets.Protein, consumed.Protein),
			Carbs:    remaining(targets.Carbs, consumed.Carbs),
			Fat:      remaining(targets.Fat, consumed.Fat),
		},
	}

	if targets.Calories > 0 {
		ratio := consumed.Calories / targets.Calories
		switch {
		case ratio > 1+calorieTolerance:
			balance.Analysis.CalorieBalance = "over"
		case ratio < 1-calorieTolerance:
			balance.Analysis.CalorieBalance = "under"
		default:
			balance.Analysis.CalorieBalance = "balanced"
		}
	}

	// 以熱量占比比較三大營養素
	consumedShares, okConsumed := energyShares(consumed)
	targetShares, okTargets := energyShares(targets)
	if okConsumed && okTargets {
		balance.Analysis.MacroBalance = "good"
		for i := range consumedShares {
			if math.Abs(consumedShares[i]-targetShares[i]) > shareTolerance {
				balance.Analysis.MacroBalance = "needs_adjustment"
				break
			}
		}
	}

	if targets.Protein > 0 {
		ratio := consumed.Protein / targets.Protein
		switch {
		case ratio < proteinLow:
			balance.Analysis.ProteinSufficiency = "low"
		case ratio > proteinHigh:
			balance.Analysis.ProteinSufficiency = "high"
		default:
			balance.Analysis.ProteinSufficiency = "adequate"
		}
	}
	return balance
}

// Balance analyzes a calculated report and asks the advisor for
// recommendations. Advisor failures fall back to a fixed message.
func (p *ProgressService) Balance(ctx context.Context, report structs.DailyProgressReport) structs.MealBalance {
	consumed := structs.MacroTotals{
		Calories: report.Nutrients.Calories.Consumed,
		Protein:  report.Nutrients.Protein.Consumed,
		Carbs:    report.Nutrients.Carbs.Consumed,
		Fat:      report.Nutrients.Fat.Consumed,
	}
	targets := structs.MacroTotals{
		Calories: report.Nutrients.Calories.Goal,
		Protein:  report.Nutrients.Protein.Goal,
		Carbs:    report.Nutrients.Carbs.Goal,
		Fat:      report.Nutrients.Fat.Goal,
	}
	balance := AnalyzeBalance(consumed, targets)

	if report.GoalID == 0 {
		balance.Recommendations = []string{noGoalAdvice}
		return balance
	}
	if p.Advisor == nil {
		balance.Recommendations = []string{noAdvice}
		return balance
	}
	advice, err := p.Advisor.AdviseBalance(ctx, consumed, targets, balance.Analysis)
	if err != nil {
		p.Logger.WithError(err).Warn("balance advice unavailable")
		balance.Recommendations = []string{noAdvice}
		return balance
	}
	balance.Recommendations = advice
	return balance
}

// energyShares is the protein, carbs, fat share of macro calories.
func energyShares(m structs.MacroTotals) ([3]float64, bool) {
	energy := 4*m.Protein + 4*m.Carbs + 9*m.Fat
	if energy <= 0 {
		return [3]float64{}, false
	}
	return [3]float64{4 * m.Protein / energy, 4 * m.Carbs / energy, 9 * m.Fat / energy}, true
}

func remaining(target, consumed float64) float64 {
	return services.RoundTo(math.Max(target-consumed, 0), 2)
}
