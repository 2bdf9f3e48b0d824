package training

import "math"

// RegressionMetrics holds held-out evaluation results for the regressor.
type RegressionMetrics struct {
	MSE      float64 `json:"mse"`
	MAE      float64 `json:"mae"`
	R2       float64 `json:"r2"`
	Accuracy float64 `json:"accuracy"`
}

// ClassificationMetrics holds micro-averaged held-out results for the
// multi-label classifier.
type ClassificationMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Accuracy  float64 `json:"accuracy"`
}

// toleranceFraction is the relative error band counted as a correct
// regression prediction.
const toleranceFraction = 0.10

// EvaluateRegression scores scalar predictions against true labels:
// MSE, MAE, R^2, and the fraction of predictions within ±10% relative
// error of the truth.
func EvaluateRegression(preds, actuals []float64) RegressionMetrics {
	n := len(actuals)
	if n == 0 {
		return RegressionMetrics{}
	}

	mean := 0.0
	for _, a := range actuals {
		mean += a
	}
	mean /= float64(n)

	var ssRes, ssTot, absSum, within float64
	for i := range actuals {
		d := preds[i] - actuals[i]
		ssRes += d * d
		absSum += math.Abs(d)
		t := actuals[i] - mean
		ssTot += t * t

		denom := math.Abs(actuals[i])
		if denom < 1e-8 {
			denom = 1e-8
		}
		if math.Abs(d)/denom <= toleranceFraction {
			within++
		}
	}

	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}

	return RegressionMetrics{
		MSE:      ssRes / float64(n),
		MAE:      absSum / float64(n),
		R2:       r2,
		Accuracy: within / float64(n),
	}
}

// EvaluateClassification computes micro-averaged precision, recall, and
// F1 at the decision threshold, flattening every label position across
// the whole validation batch rather than averaging per label.
func EvaluateClassification(preds, targets [][]float64, threshold float64) ClassificationMetrics {
	var tp, fp, fn, correct, total float64
	for i := range targets {
		for j := range targets[i] {
			predicted := preds[i][j] >= threshold
			actual := targets[i][j] >= 0.5
			switch {
			case predicted && actual:
				tp++
			case predicted && !actual:
				fp++
			case !predicted && actual:
				fn++
			}
			if predicted == actual {
				correct++
			}
			total++
		}
	}

	m := ClassificationMetrics{}
	if tp+fp > 0 {
		m.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		m.Recall = tp / (tp + fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	if total > 0 {
		m.Accuracy = correct / total
	}
	return m
}
