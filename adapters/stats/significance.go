package stats

import (
	"fmt"
	"math"

	"gosetl/domain/core"
)

// IsSignificant reports whether a p-value falls below the alpha level.
// A NaN p-value returns core.ErrDegenerateProbability; callers treat it
// as not significant rather than propagating.
func IsSignificant(pValue, alpha float64) (bool, error) {
	if alpha <= 0 || alpha >= 1 {
		return false, fmt.Errorf("%w: %g", core.ErrInvalidAlpha, alpha)
	}
	if math.IsNaN(pValue) {
		return false, core.ErrDegenerateProbability
	}
	return pValue < alpha, nil
}
