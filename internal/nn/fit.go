package nn

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// FitResult summarizes a completed training run.
type FitResult struct {
	Epochs       int     // epochs actually run
	TrainLoss    float64 // final epoch's mean training loss
	ValLoss      float64 // validation loss of the restored weights
	EarlyStopped bool
	BestEpoch    int
}

// Fit trains the network on x/y with mini-batch Adam, evaluating the
// validation split after every epoch. When Patience is set, training
// stops once validation loss fails to improve for that many epochs and
// the best-seen weights are restored. The context is checked between
// epochs, so cancellation is best-effort at epoch granularity.
func (n *Network) Fit(ctx context.Context, x, y, xVal, yVal [][]float64, rng *rand.Rand) (*FitResult, error) {
	if n.released {
		return nil, ErrReleased
	}

	res := &FitResult{}
	bestValLoss := math.Inf(1)
	sinceBest := 0
	var bestWeights, bestBiases []*mat.Dense

	order := make([]int, len(x))
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < n.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		epochLoss := 0.0
		batches := 0
		for start := 0; start < len(order); start += n.cfg.BatchSize {
			end := start + n.cfg.BatchSize
			if end > len(order) {
				end = len(order)
			}
			bx := make([][]float64, 0, end-start)
			by := make([][]float64, 0, end-start)
			for _, idx := range order[start:end] {
				bx = append(bx, x[idx])
				by = append(by, y[idx])
			}
			epochLoss += n.trainBatch(bx, by, rng)
			batches++
		}
		if batches > 0 {
			epochLoss /= float64(batches)
		}
		res.TrainLoss = epochLoss
		res.Epochs = epoch + 1

		valLoss := epochLoss
		if len(xVal) > 0 {
			valLoss = n.Loss(xVal, yVal)
		}

		if valLoss < bestValLoss {
			bestValLoss = valLoss
			sinceBest = 0
			res.BestEpoch = epoch + 1
			if n.cfg.Patience > 0 {
				bestWeights, bestBiases = n.cloneParams()
			}
		} else if n.cfg.Patience > 0 {
			sinceBest++
			if sinceBest >= n.cfg.Patience {
				res.EarlyStopped = true
				break
			}
		}
	}

	if bestWeights != nil {
		n.weights = bestWeights
		n.biases = bestBiases
	}
	res.ValLoss = bestValLoss
	if math.IsInf(bestValLoss, 1) {
		res.ValLoss = res.TrainLoss
	}
	return res, nil
}

// trainBatch runs one forward/backward pass with an Adam update and
// returns the batch loss.
func (n *Network) trainBatch(bx, by [][]float64, rng *rand.Rand) float64 {
	xm := denseFromRows(bx)
	ym := denseFromRows(by)
	defer xm.Reset()
	defer ym.Reset()

	acts, preActs, masks := n.forward(xm, true, rng)
	defer releaseAll(acts[1:])
	defer releaseAll(preActs)

	pred := acts[len(acts)-1]
	rows, cols := pred.Dims()
	total := float64(rows * cols)

	loss := 0.0
	// delta starts as dL/dZ of the output layer. Both losses reduce to
	// the same gradient shape: (pred - y) scaled by the element count
	// (MSE carries an extra factor of 2; BCE with a sigmoid head cancels
	// the activation derivative).
	delta := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			p := pred.At(i, j)
			t := ym.At(i, j)
			switch n.cfg.Output {
			case OutputSigmoid:
				loss += bceTerm(p, t)
				delta.Set(i, j, (p-t)/total)
			default:
				d := p - t
				loss += d * d
				delta.Set(i, j, 2*d/total)
			}
		}
	}
	loss /= total

	n.backward(acts, preActs, masks, delta)
	return loss
}

// backward propagates delta (dL/dZ of the last layer) down the stack,
// applying Adam updates layer by layer.
func (n *Network) backward(acts, preActs, masks []*mat.Dense, delta *mat.Dense) {
	n.step++
	for l := len(n.weights) - 1; l >= 0; l-- {
		aPrev := acts[l]

		// Parameter gradients.
		var dW mat.Dense
		dW.Mul(aPrev.T(), delta)

		_, out := delta.Dims()
		db := mat.NewDense(1, out, nil)
		dRows, _ := delta.Dims()
		for j := 0; j < out; j++ {
			sum := 0.0
			for i := 0; i < dRows; i++ {
				sum += delta.At(i, j)
			}
			db.Set(0, j, sum)
		}

		// Propagate before the weight update.
		if l > 0 {
			var dA mat.Dense
			dA.Mul(delta, n.weights[l].T())
			if masks[l-1] != nil {
				dA.MulElem(&dA, masks[l-1])
			}
			// ReLU derivative on the previous pre-activation.
			next := mat.NewDense(dRows, acts[l].RawMatrix().Cols, nil)
			z := preActs[l-1]
			r, c := next.Dims()
			for i := 0; i < r; i++ {
				for j := 0; j < c; j++ {
					if z.At(i, j) > 0 {
						next.Set(i, j, dA.At(i, j))
					}
				}
			}
			delta = next
		}

		n.adamUpdate(n.weights[l], &dW, n.mW[l], n.vW[l])
		n.adamUpdate(n.biases[l], db, n.mB[l], n.vB[l])
	}
}

// adamUpdate applies one Adam step to param in place.
func (n *Network) adamUpdate(param, grad, m, v *mat.Dense) {
	rows, cols := param.Dims()
	t := float64(n.step)
	mc := 1 - math.Pow(adamBeta1, t)
	vc := 1 - math.Pow(adamBeta2, t)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			g := grad.At(i, j)
			mv := adamBeta1*m.At(i, j) + (1-adamBeta1)*g
			vv := adamBeta2*v.At(i, j) + (1-adamBeta2)*g*g
			m.Set(i, j, mv)
			v.Set(i, j, vv)
			mHat := mv / mc
			vHat := vv / vc
			param.Set(i, j, param.At(i, j)-n.cfg.LearningRate*mHat/(math.Sqrt(vHat)+adamEpsilon))
		}
	}
}

// Loss computes the mean loss (MSE or BCE per output kind) over a
// held-out set without touching optimizer state.
func (n *Network) Loss(x, y [][]float64) float64 {
	if len(x) == 0 {
		return 0
	}
	preds, err := n.PredictBatch(x)
	if err != nil {
		return math.Inf(1)
	}
	loss := 0.0
	total := 0.0
	for i := range preds {
		for j := range preds[i] {
			switch n.cfg.Output {
			case OutputSigmoid:
				loss += bceTerm(preds[i][j], y[i][j])
			default:
				d := preds[i][j] - y[i][j]
				loss += d * d
			}
			total++
		}
	}
	return loss / total
}

// bceTerm is one element's binary cross-entropy, clamped away from
// log(0).
func bceTerm(p, t float64) float64 {
	const eps = 1e-7
	p = math.Min(math.Max(p, eps), 1-eps)
	return -(t*math.Log(p) + (1-t)*math.Log(1-p))
}

// cloneParams deep-copies the current weights and biases for
// early-stopping restoration.
func (n *Network) cloneParams() (weights, biases []*mat.Dense) {
	for l := range n.weights {
		weights = append(weights, mat.DenseCopyOf(n.weights[l]))
		biases = append(biases, mat.DenseCopyOf(n.biases[l]))
	}
	return weights, biases
}
