package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPersistenceDoesNotDoubleWrap(t *testing.T) {
	cause := errors.New("connection refused")
	first := Persistence("upsert", "food_corrections", "u1/chicken", cause)
	second := Persistence("apply", "food_corrections", "u1", first)

	assert.Same(t, first, second)
	assert.True(t, errors.Is(second, cause))
	assert.Nil(t, Persistence("read", "meals", "", nil))
}

func TestKindsMatchThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("calculate goal: %w", Validation("age", "must be positive"))
	assert.True(t, IsValidation(wrapped))
	assert.False(t, IsComputation(wrapped))

	est := &EstimationError{Attempts: 3, Reason: "food_items missing"}
	assert.True(t, IsEstimation(fmt.Errorf("log meal: %w", est)))
	assert.Contains(t, est.Error(), "after 3 attempts")

	assert.True(t, IsComputation(Computation("calories", "is not positive")))
	assert.True(t, IsPersistence(Persistence("create", "meals", "", errors.New("boom"))))
}
