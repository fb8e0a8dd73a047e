package models

import "macrotrack-go-worker/structs"

func (f FoodItem) ToStruct() structs.FoodItem {
	return structs.FoodItem{
		ID:               f.ID,
		Name:             f.Name,
		Quantity:         f.Quantity,
		Unit:             f.Unit,
		Calories:         f.Calories,
		Protein:          f.Protein,
		Carbs:            f.Carbs,
		Fat:              f.Fat,
		HasCorrection:    f.HasCorrection,
		OriginalCalories: f.OriginalCalories,
		OriginalProtein:  f.OriginalProtein,
		OriginalCarbs:    f.OriginalCarbs,
		OriginalFat:      f.OriginalFat,
	}
}

// ApplyStruct copies name, portion, macros and correction state from item.
func (f *FoodItem) ApplyStruct(item structs.FoodItem) {
	f.Name = item.Name
	f.Quantity = item.Quantity
	f.Unit = item.Unit
	f.Calories = item.Calories
	f.Protein = item.Protein
	f.Carbs = item.Carbs
	f.Fat = item.Fat
	f.HasCorrection = item.HasCorrection
	f.OriginalCalories = item.OriginalCalories
	f.OriginalProtein = item.OriginalProtein
	f.OriginalCarbs = item.OriginalCarbs
	f.OriginalFat = item.OriginalFat
}

func FoodItemsToStructs(items []FoodItem) []structs.FoodItem {
	out := make([]structs.FoodItem, 0, len(items))
	for _, item := range items {
		out = append(out, item.ToStruct())
	}
	return out
}

func (m *Meal) SetTotals(totals structs.MacroTotals) {
	m.TotalCalories = totals.Calories
	m.TotalProtein = totals.Protein
	m.TotalCarbs = totals.Carbs
	m.TotalFat = totals.Fat
}

func (d DailyGoal) Targets() structs.MacroTotals {
	return structs.MacroTotals{
		Calories: d.CaloriesTarget,
		Protein:  d.ProteinTarget,
		Carbs:    d.CarbsTarget,
		Fat:      d.FatTarget,
	}
}
