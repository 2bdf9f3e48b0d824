package nn

import (
	"fmt"
	"math/rand"
)

// Snapshot is the JSON-serializable form of a trained network: shape
// plus flat row-major weight and bias slices per layer. This is the
// payload stored inside a model artifact bundle.
type Snapshot struct {
	InputDim     int         `json:"input_dim"`
	HiddenLayers []int       `json:"hidden_layers"`
	OutputDim    int         `json:"output_dim"`
	Output       OutputKind  `json:"output"`
	Weights      [][]float64 `json:"weights"`
	Biases       [][]float64 `json:"biases"`
}

// Snapshot captures the current weights. Optimizer state is not
// persisted; a restored network serves inference only.
func (n *Network) Snapshot() (*Snapshot, error) {
	if n.released {
		return nil, ErrReleased
	}
	s := &Snapshot{
		InputDim:     n.cfg.InputDim,
		HiddenLayers: append([]int(nil), n.cfg.HiddenLayers...),
		OutputDim:    n.cfg.OutputDim,
		Output:       n.cfg.Output,
	}
	for l := range n.weights {
		raw := n.weights[l].RawMatrix()
		s.Weights = append(s.Weights, append([]float64(nil), raw.Data...))
		braw := n.biases[l].RawMatrix()
		s.Biases = append(s.Biases, append([]float64(nil), braw.Data...))
	}
	return s, nil
}

// Restore rebuilds a network from a snapshot.
func Restore(s *Snapshot) (*Network, error) {
	cfg := Config{
		InputDim:     s.InputDim,
		HiddenLayers: append([]int(nil), s.HiddenLayers...),
		OutputDim:    s.OutputDim,
		Output:       s.Output,
	}
	n, err := New(cfg, rand.New(rand.NewSource(0)))
	if err != nil {
		return nil, err
	}
	if len(s.Weights) != len(n.weights) || len(s.Biases) != len(n.biases) {
		return nil, fmt.Errorf("snapshot layer count mismatch: %d weights for %d layers", len(s.Weights), len(n.weights))
	}
	for l := range n.weights {
		rows, cols := n.weights[l].Dims()
		if len(s.Weights[l]) != rows*cols {
			return nil, fmt.Errorf("snapshot weight size mismatch at layer %d", l)
		}
		copy(n.weights[l].RawMatrix().Data, s.Weights[l])
		_, bcols := n.biases[l].Dims()
		if len(s.Biases[l]) != bcols {
			return nil, fmt.Errorf("snapshot bias size mismatch at layer %d", l)
		}
		copy(n.biases[l].RawMatrix().Data, s.Biases[l])
	}
	return n, nil
}
