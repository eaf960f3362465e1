package trainer

import "math"

// bceWithLogits computes binary cross-entropy directly from the raw
// similarity score z used as a logit:
//
//	loss = max(z, 0) − z·y + log(1 + exp(−|z|))
//
// This is algebraically -[y·log σ(z) + (1−y)·log(1−σ(z))] but never computes
// σ first, so large |z| cannot overflow into NaN.
func bceWithLogits(z, y float64) float64 {
	return math.Max(z, 0) - z*y + math.Log1p(math.Exp(-math.Abs(z)))
}

// sigmoid is the logistic function. Its difference from the label is the
// gradient of bceWithLogits with respect to the logit.
func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
