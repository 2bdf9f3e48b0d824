// Package nn implements the small dense feed-forward networks the
// training pipeline fits: a scalar regressor and a multi-label sigmoid
// classifier. Batches and weights live in gonum matrices; callers must
// Release networks and batches they are done with to keep memory
// bounded during repeated training runs.
package nn

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// OutputKind selects the output layer activation and the matching loss.
type OutputKind string

const (
	// OutputLinear pairs a linear scalar head with mean squared error.
	OutputLinear OutputKind = "linear"
	// OutputSigmoid pairs a sigmoid multi-label head with binary cross-entropy.
	OutputSigmoid OutputKind = "sigmoid"
)

// ErrReleased is returned when a network is used after Release.
var ErrReleased = errors.New("network has been released")

// Config describes the network shape and fit loop.
type Config struct {
	InputDim     int
	HiddenLayers []int
	OutputDim    int
	Output       OutputKind
	// Dropout holds per-hidden-layer drop probabilities; shorter slices
	// leave the remaining layers without dropout.
	Dropout      []float64
	LearningRate float64
	Epochs       int
	BatchSize    int
	// Patience is the early-stopping window: training stops after this
	// many epochs without validation improvement and the best weights
	// are restored. Zero or negative disables early stopping.
	Patience int
}

// Network is a dense feed-forward net with ReLU hidden activations.
type Network struct {
	cfg     Config
	weights []*mat.Dense // layer l maps (in x out): Z = A*W + b
	biases  []*mat.Dense // 1 x out

	// Adam state
	mW, vW []*mat.Dense
	mB, vB []*mat.Dense
	step   int

	released bool
}

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
)

// New builds a network with He-initialized weights.
func New(cfg Config, rng *rand.Rand) (*Network, error) {
	if cfg.InputDim <= 0 || cfg.OutputDim <= 0 {
		return nil, fmt.Errorf("invalid network dimensions: in=%d out=%d", cfg.InputDim, cfg.OutputDim)
	}
	if cfg.Output != OutputLinear && cfg.Output != OutputSigmoid {
		return nil, fmt.Errorf("unknown output kind %q", cfg.Output)
	}
	for _, width := range cfg.HiddenLayers {
		if width <= 0 {
			return nil, fmt.Errorf("invalid hidden layer width %d", width)
		}
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.001
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = 100
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}

	sizes := append([]int{cfg.InputDim}, cfg.HiddenLayers...)
	sizes = append(sizes, cfg.OutputDim)

	n := &Network{cfg: cfg}
	for l := 0; l < len(sizes)-1; l++ {
		in, out := sizes[l], sizes[l+1]
		scale := math.Sqrt(2.0 / float64(in))
		data := make([]float64, in*out)
		for i := range data {
			data[i] = rng.NormFloat64() * scale
		}
		n.weights = append(n.weights, mat.NewDense(in, out, data))
		n.biases = append(n.biases, mat.NewDense(1, out, nil))
		n.mW = append(n.mW, mat.NewDense(in, out, nil))
		n.vW = append(n.vW, mat.NewDense(in, out, nil))
		n.mB = append(n.mB, mat.NewDense(1, out, nil))
		n.vB = append(n.vB, mat.NewDense(1, out, nil))
	}
	return n, nil
}

// Config returns the network configuration.
func (n *Network) Config() Config {
	return n.cfg
}

// Release drops all weight and optimizer matrices. The network is
// unusable afterwards; inference callers must re-fetch from the registry.
func (n *Network) Release() {
	n.weights = nil
	n.biases = nil
	n.mW, n.vW, n.mB, n.vB = nil, nil, nil, nil
	n.released = true
}

// forward runs the batch through the network. When training, inverted
// dropout masks are generated and returned for backprop.
func (n *Network) forward(x *mat.Dense, training bool, rng *rand.Rand) (acts, preActs, masks []*mat.Dense) {
	acts = []*mat.Dense{x}
	a := x
	layers := len(n.weights)
	for l := 0; l < layers; l++ {
		rows, _ := a.Dims()
		_, out := n.weights[l].Dims()

		z := mat.NewDense(rows, out, nil)
		z.Mul(a, n.weights[l])
		for i := 0; i < rows; i++ {
			for j := 0; j < out; j++ {
				z.Set(i, j, z.At(i, j)+n.biases[l].At(0, j))
			}
		}
		preActs = append(preActs, z)

		next := mat.NewDense(rows, out, nil)
		if l == layers-1 {
			switch n.cfg.Output {
			case OutputSigmoid:
				next.Apply(func(_, _ int, v float64) float64 { return sigmoid(v) }, z)
			default:
				next.Copy(z)
			}
			masks = append(masks, nil)
		} else {
			next.Apply(func(_, _ int, v float64) float64 { return math.Max(0, v) }, z)
			mask := n.dropoutMask(l, rows, out, training, rng)
			if mask != nil {
				next.MulElem(next, mask)
			}
			masks = append(masks, mask)
		}
		acts = append(acts, next)
		a = next
	}
	return acts, preActs, masks
}

// dropoutMask returns an inverted dropout mask for hidden layer l, or
// nil when dropout does not apply.
func (n *Network) dropoutMask(l, rows, cols int, training bool, rng *rand.Rand) *mat.Dense {
	if !training || rng == nil || l >= len(n.cfg.Dropout) {
		return nil
	}
	p := n.cfg.Dropout[l]
	if p <= 0 {
		return nil
	}
	keep := 1 - p
	mask := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if rng.Float64() < keep {
				mask.Set(i, j, 1/keep)
			}
		}
	}
	return mask
}

// Predict runs a single feature vector through the network.
func (n *Network) Predict(vec []float64) ([]float64, error) {
	if n.released {
		return nil, ErrReleased
	}
	if len(vec) != n.cfg.InputDim {
		return nil, fmt.Errorf("input dimension mismatch: got %d, want %d", len(vec), n.cfg.InputDim)
	}
	x := mat.NewDense(1, len(vec), append([]float64(nil), vec...))
	acts, _, _ := n.forward(x, false, nil)
	out := acts[len(acts)-1]
	result := make([]float64, n.cfg.OutputDim)
	for j := 0; j < n.cfg.OutputDim; j++ {
		result[j] = out.At(0, j)
	}
	releaseAll(acts[1:])
	return result, nil
}

// PredictBatch runs a whole batch through the network, returning one
// output row per input row.
func (n *Network) PredictBatch(batch [][]float64) ([][]float64, error) {
	if n.released {
		return nil, ErrReleased
	}
	if len(batch) == 0 {
		return nil, nil
	}
	x := denseFromRows(batch)
	acts, _, _ := n.forward(x, false, nil)
	out := acts[len(acts)-1]
	results := make([][]float64, len(batch))
	for i := range batch {
		row := make([]float64, n.cfg.OutputDim)
		for j := 0; j < n.cfg.OutputDim; j++ {
			row[j] = out.At(i, j)
		}
		results[i] = row
	}
	releaseAll(acts)
	return results, nil
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

// denseFromRows copies a [][]float64 into a Dense matrix.
func denseFromRows(rows [][]float64) *mat.Dense {
	r := len(rows)
	c := len(rows[0])
	data := make([]float64, 0, r*c)
	for _, row := range rows {
		data = append(data, row...)
	}
	return mat.NewDense(r, c, data)
}

// releaseAll zeroes intermediate matrices so large batches are dropped
// eagerly rather than held across training iterations.
func releaseAll(ms []*mat.Dense) {
	for i := range ms {
		if ms[i] != nil {
			ms[i].Reset()
		}
	}
}
