package fees

import (
	"fmt"
	"math"

	"venue-booking/internal/models"
)

// Rate is the platform's fixed service fee percentage.
const Rate = 0.025

// Split divides a gross amount into the platform's service fee and the venue
// owner's payout. The fee is rounded to cents first and the payout is the
// remainder of the rounded amount, so fee + payout always equals the amount
// rounded to cents exactly. Rounding both halves independently can drift by a
// cent, which is why the subtraction happens after rounding.
func Split(amount float64) (serviceFee, ownerPayout float64, err error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return 0, 0, fmt.Errorf("%w: invalid amount %v", models.ErrValidation, amount)
	}

	total := Round2(amount)
	serviceFee = Round2(total * Rate)
	ownerPayout = Round2(total - serviceFee)
	return serviceFee, ownerPayout, nil
}

// Round2 rounds to currency precision (two decimal places).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
