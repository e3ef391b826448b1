package face

import "math"

// NormalizeSimilarityScore returns similarity as a 0..1 score rounded to four
// decimals. Values reported as percentages are scaled down; negative values
// are treated as missing.
func NormalizeSimilarityScore(similarity *float64) *float64 {
	if similarity == nil || *similarity < 0 {
		return nil
	}
	v := *similarity
	if v > 1 && v <= 100 {
		v /= 100
	}
	out := round(v, 4)
	return &out
}

// NormalizeSimilarityPercent returns similarity as a percentage rounded to two
// decimals. Values outside 0..100 are passed through untouched.
func NormalizeSimilarityPercent(similarity *float64) *float64 {
	if similarity == nil {
		return nil
	}
	v := *similarity
	switch {
	case v >= 0 && v <= 1:
		v = round(v*100, 2)
	case v > 1 && v <= 100:
		v = round(v, 2)
	}
	return &v
}

// round rounds half to even at the given number of decimals.
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(v*p) / p
}
