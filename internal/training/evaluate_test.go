package training

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateRegression(t *testing.T) {
	preds := []float64{10, 20, 35}
	actuals := []float64{10, 21, 30}

	m := EvaluateRegression(preds, actuals)

	// Residuals are 0, -1, 5.
	assert.InDelta(t, (0.0+1+25)/3, m.MSE, 1e-12)
	assert.InDelta(t, (0.0+1+5)/3, m.MAE, 1e-12)

	// Exact, within 10%, and 16.7% off: two of three count as accurate.
	assert.InDelta(t, 2.0/3, m.Accuracy, 1e-12)

	assert.Less(t, m.R2, 1.0)
	assert.Greater(t, m.R2, 0.0, "a decent fit scores positive R^2")
}

func TestEvaluateRegression_Perfect(t *testing.T) {
	vals := []float64{1, 2, 3, 4}
	m := EvaluateRegression(vals, vals)

	assert.Zero(t, m.MSE)
	assert.Zero(t, m.MAE)
	assert.Equal(t, 1.0, m.R2)
	assert.Equal(t, 1.0, m.Accuracy)
}

func TestEvaluateRegression_Empty(t *testing.T) {
	m := EvaluateRegression(nil, nil)
	assert.Zero(t, m.MSE)
	assert.Zero(t, m.Accuracy)
}

func TestEvaluateClassification(t *testing.T) {
	preds := [][]float64{
		{0.9, 0.1, 0.8}, // tp, tn, fp
		{0.2, 0.7, 0.6}, // fn, tp, tp
	}
	targets := [][]float64{
		{1, 0, 0},
		{1, 1, 1},
	}

	m := EvaluateClassification(preds, targets, 0.5)

	// tp=3 fp=1 fn=1 over 6 positions.
	assert.InDelta(t, 3.0/4, m.Precision, 1e-12)
	assert.InDelta(t, 3.0/4, m.Recall, 1e-12)
	assert.InDelta(t, 3.0/4, m.F1, 1e-12)
	assert.InDelta(t, 4.0/6, m.Accuracy, 1e-12)
}

func TestEvaluateClassification_NoPositives(t *testing.T) {
	preds := [][]float64{{0.1, 0.2}}
	targets := [][]float64{{0, 0}}

	m := EvaluateClassification(preds, targets, 0.5)

	assert.Zero(t, m.Precision)
	assert.Zero(t, m.Recall)
	assert.Zero(t, m.F1)
	assert.Equal(t, 1.0, m.Accuracy)
}
