package structs

type FoodItem struct {
	ID               int64    `json:"id,omitempty"`
	Name             string   `json:"name"`
	Quantity         float64  `json:"quantity"`
	Unit             string   `json:"unit"`
	Calories         float64  `json:"calories"`
	Protein          float64  `json:"protein"`
	Carbs            float64  `json:"carbs"`
	Fat              float64  `json:"fat"`
	HasCorrection    bool     `json:"has_correction"`
	OriginalCalories *float64 `json:"original_calories,omitempty"`
	OriginalProtein  *float64 `json:"original_protein,omitempty"`
	OriginalCarbs    *float64 `json:"original_carbs,omitempty"`
	OriginalFat      *float64 `json:"original_fat,omitempty"`
}

// Macros returns the item's current values.
func (f FoodItem) Macros() MacroTotals {
	return MacroTotals{Calories: f.Calories, Protein: f.Protein, Carbs: f.Carbs, Fat: f.Fat}
}

func (f *FoodItem) SetMacros(m MacroTotals) {
	f.Calories = m.Calories
	f.Protein = m.Protein
	f.Carbs = m.Carbs
	f.Fat = m.Fat
}

// OriginalMacros reports the preserved pre-correction values, if all four are present.
func (f FoodItem) OriginalMacros() (MacroTotals, bool) {
	if f.OriginalCalories == nil || f.OriginalProtein == nil || f.OriginalCarbs == nil || f.OriginalFat == nil {
		return MacroTotals{}, false
	}
	return MacroTotals{
		Calories: *f.OriginalCalories,
		Protein:  *f.OriginalProtein,
		Carbs:    *f.OriginalCarbs,
		Fat:      *f.OriginalFat,
	}, true
}

func (f *FoodItem) SetOriginal(m MacroTotals) {
	f.OriginalCalories = floatPtr(m.Calories)
	f.OriginalProtein = floatPtr(m.Protein)
	f.OriginalCarbs = floatPtr(m.Carbs)
	f.OriginalFat = floatPtr(m.Fat)
}

func (f *FoodItem) ClearCorrection() {
	f.HasCorrection = false
	f.OriginalCalories = nil
	f.OriginalProtein = nil
	f.OriginalCarbs = nil
	f.OriginalFat = nil
}

// MacroPatch carries the fields a user changed; nil fields keep the base value.
type MacroPatch struct {
	Calories *float64 `json:"calories,omitempty" validate:"omitempty,gte=0"`
	Protein  *float64 `json:"protein,omitempty" validate:"omitempty,gte=0"`
	Carbs    *float64 `json:"carbs,omitempty" validate:"omitempty,gte=0"`
	Fat      *float64 `json:"fat,omitempty" validate:"omitempty,gte=0"`
}

func (p MacroPatch) Apply(base MacroTotals) MacroTotals {
	if p.Calories != nil {
		base.Calories = *p.Calories
	}
	if p.Protein != nil {
		base.Protein = *p.Protein
	}
	if p.Carbs != nil {
		base.Carbs = *p.Carbs
	}
	if p.Fat != nil {
		base.Fat = *p.Fat
	}
	return base
}

func (p MacroPatch) Empty() bool {
	return p.Calories == nil && p.Protein == nil && p.Carbs == nil && p.Fat == nil
}

func floatPtr(v float64) *float64 {
	return &v
}
