package domain

import (
	"strconv"
	"strings"
)

// MinRiskRating and MaxRiskRating bound a profile's risk rating.
const (
	MinRiskRating = 1
	MaxRiskRating = 10
)

// ValidateSelection checks that every level of a selection is filled in.
// The first empty level is reported.
func ValidateSelection(s Selection) error {
	for _, f := range Fields {
		if strings.TrimSpace(s.Get(f)) == "" {
			return NewValidationError(f, "", ErrIncompleteSelection)
		}
	}
	return nil
}

// ValidateRiskRating checks that a rating lies within 1..10.
func ValidateRiskRating(rating int) error {
	if rating < MinRiskRating || rating > MaxRiskRating {
		return NewValidationError("risk_rating", strconv.Itoa(rating), ErrInvalidRiskRating)
	}
	return nil
}
