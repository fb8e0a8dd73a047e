package estimate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"macrotrack-go-worker/apperr"
	"macrotrack-go-worker/enums"
	"macrotrack-go-worker/structs"
	"math"
	"strconv"
	"strings"
)

const defaultConfidence = 0.5

// ParseEstimation validates a raw model payload. Code fences are tolerated;
// anything else outside the expected schema is an *apperr.EstimationError.
func ParseEstimation(raw []byte) (structs.EstimationResult, error) {
	var result structs.EstimationResult

	payload := stripFences(raw)
	if len(payload) == 0 {
		return result, apperr.Estimation("empty estimate", nil)
	}

	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()
	var doc map[string]interface{}
	if err := decoder.Decode(&doc); err != nil {
		return result, apperr.Estimation("estimate is not a json object", err)
	}

	rawItems, ok := doc["food_items"]
	if !ok || rawItems == nil {
		return result, apperr.Estimation("missing food_items", nil)
	}
	list, ok := rawItems.([]interface{})
	if !ok {
		return result, apperr.Estimation("food_items is not an array", nil)
	}

	result.FoodItems = make([]structs.FoodItem, 0, len(list))
	for i, rawItem := range list {
		item, err := parseItem(i, rawItem)
		if err != nil {
			return structs.EstimationResult{}, err
		}
		result.FoodItems = append(result.FoodItems, item)
	}

	result.MealName = stringField(doc, "meal_name")
	if result.MealName == "" {
		result.MealName = enums.DefaultMealName
	}
	result.MealType = stringField(doc, "meal_type")
	if result.MealType == "" {
		result.MealType = enums.DefaultMeal
	}
	result.TotalCalories, _ = optionalNumber(doc["total_calories"])
	result.TotalProtein, _ = optionalNumber(doc["total_protein"])
	result.TotalCarbs, _ = optionalNumber(doc["total_carbs"])
	result.TotalFat, _ = optionalNumber(doc["total_fat"])

	result.ConfidenceScore = defaultConfidence
	if v, ok := optionalNumber(doc["confidence_score"]); ok {
		result.ConfidenceScore = math.Max(0, math.Min(1, v))
	}
	return result, nil
}

func parseItem(index int, raw interface{}) (structs.FoodItem, error) {
	var item structs.FoodItem
	fields, ok := raw.(map[string]interface{})
	if !ok {
		return item, apperr.Estimation(fmt.Sprintf("food_items[%d] is not an object", index), nil)
	}
	item.Name = stringField(fields, "name")
	if item.Name == "" {
		item.Name = stringField(fields, "food_name")
	}
	if item.Name == "" {
		return item, apperr.Estimation(fmt.Sprintf("food_items[%d] has no name", index), nil)
	}

	macros := map[string]*float64{
		"calories": &item.Calories,
		"protein":  &item.Protein,
		"carbs":    &item.Carbs,
		"fat":      &item.Fat,
	}
	for key, dst := range macros {
		v, ok := optionalNumber(fields[key])
		if !ok {
			return item, apperr.Estimation(fmt.Sprintf("food_items[%d].%s is not numeric", index, key), nil)
		}
		if v < 0 {
			return item, apperr.Estimation(fmt.Sprintf("food_items[%d].%s is negative", index, key), nil)
		}
		*dst = v
	}

	item.Quantity = 1
	if v, ok := optionalNumber(fields["quantity"]); ok && v > 0 {
		item.Quantity = v
	}
	item.Unit = stringField(fields, "unit")
	if item.Unit == "" {
		item.Unit = "serving"
	}
	return item, nil
}

// optionalNumber accepts json numbers and numeric strings.
func optionalNumber(v interface{}) (float64, bool) {
	var f float64
	var err error
	switch n := v.(type) {
	case json.Number:
		f, err = n.Float64()
	case float64:
		f = n
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func stringField(fields map[string]interface{}, key string) string {
	s, _ := fields[key].(string)
	return strings.TrimSpace(s)
}

func stripFences(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "json")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return []byte(strings.TrimSpace(s))
}
