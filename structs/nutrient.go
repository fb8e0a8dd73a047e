package structs

type MacroTotals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

func (m MacroTotals) Add(o MacroTotals) MacroTotals {
	return MacroTotals{
		Calories: m.Calories + o.Calories,
		Protein:  m.Protein + o.Protein,
		Carbs:    m.Carbs + o.Carbs,
		Fat:      m.Fat + o.Fat,
	}
}

// NutrientItem is one macro of a progress report.
type NutrientItem struct {
	Consumed float64 `json:"consumed"`
	Goal     float64 `json:"goal"`
	Percent  float64 `json:"percent"`
}

type Nutrient struct {
	Calories NutrientItem `json:"calories"`
	Protein  NutrientItem `json:"protein"`
	Carbs    NutrientItem `json:"carbs"`
	Fat      NutrientItem `json:"fat"`
}
