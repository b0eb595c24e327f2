package train

import "math"

// MSE returns the mean squared error between preds and labels.
func MSE(preds, labels []float64) float64 {
	if len(preds) == 0 {
		return 0
	}
	var sum float64
	for i, p := range preds {
		d := p - labels[i]
		sum += d * d
	}
	return sum / float64(len(preds))
}

// Accuracy returns the fraction of samples whose label equals the prediction
// rounded half to even. Graded labels strictly between 0 and 1 never match.
func Accuracy(preds, labels []float64) float64 {
	if len(preds) == 0 {
		return 0
	}
	hits := 0
	for i, p := range preds {
		if labels[i] == math.RoundToEven(p) {
			hits++
		}
	}
	return float64(hits) / float64(len(preds))
}
