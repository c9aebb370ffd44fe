package ml

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	randomSeed     = 42
	maxIterations  = 1000
	learningRate   = 0.5
	convergenceTol = 1e-6
)

// LogisticRegression is a binary classifier fit by full-batch gradient
// descent. Weight initialization is seeded so refitting the same data yields
// the same model.
type LogisticRegression struct {
	Weights []float64
	Bias    float64
}

// Fit trains on scaled features x (one row per example) and labels y
// (0 or 1). Iterations are capped; training also stops early once the
// largest weight update falls below the convergence tolerance.
func (m *LogisticRegression) Fit(x *mat.Dense, y []float64) {
	rows, cols := x.Dims()

	rng := rand.New(rand.NewSource(randomSeed))
	m.Weights = make([]float64, cols)
	for j := range m.Weights {
		m.Weights[j] = rng.Float64()*0.02 - 0.01
	}
	m.Bias = 0

	grad := make([]float64, cols)
	for iter := 0; iter < maxIterations; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		var gradBias float64

		for i := 0; i < rows; i++ {
			row := x.RawRowView(i)
			residual := m.PredictProba(row) - y[i]
			for j := 0; j < cols; j++ {
				grad[j] += residual * row[j]
			}
			gradBias += residual
		}

		var maxStep float64
		for j := 0; j < cols; j++ {
			step := learningRate * grad[j] / float64(rows)
			m.Weights[j] -= step
			maxStep = math.Max(maxStep, math.Abs(step))
		}
		biasStep := learningRate * gradBias / float64(rows)
		m.Bias -= biasStep
		maxStep = math.Max(maxStep, math.Abs(biasStep))

		if maxStep < convergenceTol {
			break
		}
	}
}

// PredictProba returns the probability of the positive (missed) class for
// one already-scaled feature vector.
func (m *LogisticRegression) PredictProba(features []float64) float64 {
	return sigmoid(m.Bias + floats.Dot(m.Weights, features))
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
