package correction

import (
	"context"
	"macrotrack-go-worker/apperr"
	"macrotrack-go-worker/enums"
	"macrotrack-go-worker/models"
	"macrotrack-go-worker/services/store"
	"macrotrack-go-worker/structs"
	"macrotrack-go-worker/utils"
	"strings"

	"github.com/sirupsen/logrus"
)

// Normalize is the lookup key of a food name: lower-cased, trimmed, inner
// whitespace collapsed.
func Normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

type CorrectionService struct {
	Store  store.CorrectionRepository
	Logger *logrus.Entry
}

// ApplyCorrections returns a copy of items with the user's stored corrections
// applied. Items still carrying a correction that no longer exists are
// reverted to their originals. Applying twice yields the same result.
func (c *CorrectionService) ApplyCorrections(ctx context.Context, userID string, items []structs.FoodItem) ([]structs.FoodItem, error) {
	out := make([]structs.FoodItem, len(items))
	copy(out, items)
	if len(items) == 0 {
		return out, nil
	}

	records, err := c.Store.GetFoodCorrections(ctx, userID, "")
	if err != nil {
		c.Logger.WithError(err).Error("load corrections failed")
		return nil, apperr.Persistence("read", store.CorrectionsCollection, userID, err)
	}
	byName := make(map[string]models.FoodCorrection, len(records))
	for _, record := range records {
		byName[record.FoodName] = record
	}

	applied := 0
	for i := range out {
		record, ok := byName[Normalize(out[i].Name)]
		if ok {
			out[i].SetMacros(correctedMacros(record))
			out[i].SetOriginal(originalMacros(record))
			out[i].HasCorrection = true
			applied++
			continue
		}
		if out[i].HasCorrection {
			if original, ok := out[i].OriginalMacros(); ok {
				out[i].SetMacros(original)
			}
			out[i].ClearCorrection()
		}
	}
	if applied > 0 {
		c.Logger.WithFields(logrus.Fields{"items": len(out), "corrected": applied}).Debug("corrections applied")
	}
	return out, nil
}

// SaveCorrection upserts the user's correction for item's name. Originals are
// kept from the first correction ever saved for that name.
func (c *CorrectionService) SaveCorrection(ctx context.Context, userID string, item structs.FoodItem, patch structs.MacroPatch, reason string) (*models.FoodCorrection, error) {
	if err := utils.ValidateStruct(patch); err != nil {
		return nil, err
	}
	name := Normalize(item.Name)
	if name == "" {
		return nil, apperr.Validation("name", "must not be empty")
	}
	if strings.TrimSpace(reason) == "" {
		reason = enums.DefaultReason
	}

	existing, err := c.Store.GetFoodCorrections(ctx, userID, name)
	if err != nil {
		return nil, apperr.Persistence("read", store.CorrectionsCollection, userID+"/"+name, err)
	}

	original := item.Macros()
	if len(existing) > 0 {
		original = originalMacros(existing[0])
	} else if item.HasCorrection {
		if stored, ok := item.OriginalMacros(); ok {
			original = stored
		}
	}
	corrected := patch.Apply(item.Macros())

	record := &models.FoodCorrection{
		UserID:            userID,
		FoodName:          name,
		OriginalCalories:  original.Calories,
		OriginalProtein:   original.Protein,
		OriginalCarbs:     original.Carbs,
		OriginalFat:       original.Fat,
		CorrectedCalories: corrected.Calories,
		CorrectedProtein:  corrected.Protein,
		CorrectedCarbs:    corrected.Carbs,
		CorrectedFat:      corrected.Fat,
		CorrectionReason:  reason,
	}
	if err := c.Store.UpsertFoodCorrection(ctx, record); err != nil {
		c.Logger.WithError(err).WithField("food_name", name).Error("save correction failed")
		return nil, apperr.Persistence("upsert", store.CorrectionsCollection, userID+"/"+name, err)
	}
	c.Logger.WithFields(logrus.Fields{"food_name": name, "calories": corrected.Calories}).Info("correction saved")
	return record, nil
}

// DeleteCorrection removes the user's correction for foodName; absent is a no-op.
func (c *CorrectionService) DeleteCorrection(ctx context.Context, userID, foodName string) error {
	name := Normalize(foodName)
	if err := c.Store.DeleteFoodCorrection(ctx, userID, name); err != nil {
		c.Logger.WithError(err).WithField("food_name", name).Error("delete correction failed")
		return apperr.Persistence("delete", store.CorrectionsCollection, userID+"/"+name, err)
	}
	return nil
}

// RecalculateTotals sums the current values of items.
func RecalculateTotals(items []structs.FoodItem) structs.MacroTotals {
	var totals structs.MacroTotals
	for _, item := range items {
		totals = totals.Add(item.Macros())
	}
	return totals
}

func correctedMacros(record models.FoodCorrection) structs.MacroTotals {
	return structs.MacroTotals{
		Calories: record.CorrectedCalories,
		Protein:  record.CorrectedProtein,
		Carbs:    record.CorrectedCarbs,
		Fat:      record.CorrectedFat,
	}
}

func originalMacros(record models.FoodCorrection) structs.MacroTotals {
	return structs.MacroTotals{
		Calories: record.OriginalCalories,
		Protein:  record.OriginalProtein,
		Carbs:    record.OriginalCarbs,
		Fat:      record.OriginalFat,
	}
}
