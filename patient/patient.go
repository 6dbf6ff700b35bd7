// Package patient computes the anthropometric values needed to prescribe:
// body surface area and age.
package patient

import (
	"errors"
	"fmt"
	"math"

	"github.com/giygas/protocolos-api/schedule"
)

var (
	ErrInvalidMeasurement = errors.New("weight and height must be positive numbers")
	ErrInvalidBirthDate   = errors.New("invalid birth date")
)

// BSA returns the body surface area in m² using the Mosteller formula
func BSA(weightKg, heightCm float64) (float64, error) {
	if math.IsNaN(weightKg) || math.IsNaN(heightCm) || math.IsInf(weightKg, 0) || math.IsInf(heightCm, 0) {
		return 0, ErrInvalidMeasurement
	}
	if weightKg <= 0 || heightCm <= 0 {
		return 0, fmt.Errorf("%w: weight=%v height=%v", ErrInvalidMeasurement, weightKg, heightCm)
	}

	return math.Sqrt(weightKg * heightCm / 3600), nil
}

// Age returns the age in full years on the given day
func Age(birth, today schedule.Date) (int, error) {
	if birth.IsZero() || today.IsZero() {
		return 0, ErrInvalidBirthDate
	}
	if today.Before(birth) {
		return 0, fmt.Errorf("%w: %s is in the future", ErrInvalidBirthDate, birth)
	}

	age := today.Year - birth.Year
	if today.Month < birth.Month || (today.Month == birth.Month && today.Day < birth.Day) {
		age--
	}
	return age, nil
}
