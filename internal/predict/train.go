package predict

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// TrainConfig controls the fitting loop. The zero value is not usable; start
// from DefaultTrainConfig.
type TrainConfig struct {
	Epochs       int
	BatchSize    int
	Patience     int
	ValFraction  float64
	LearningRate float64
	Seed         int64
}

// DefaultTrainConfig mirrors the training regime of the original model: up
// to 100 epochs in batches of 32, a chronological 80/20 split, and early
// stopping with patience 10 restoring the best validation weights.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Epochs:       100,
		BatchSize:    32,
		Patience:     10,
		ValFraction:  0.2,
		LearningRate: 0.001,
		Seed:         42,
	}
}

// Fit trains the network on scaled windows and labels. The split is
// chronological: the most recent ValFraction of pairs is held out for
// validation. Fit returns the final training and validation losses.
func (n *Network) Fit(windows []*mat.Dense, labels [][]float64, cfg TrainConfig, log zerolog.Logger) (trainLoss, valLoss float64, err error) {
	if len(windows) == 0 {
		return 0, 0, fmt.Errorf("fit: no training pairs")
	}
	if len(windows) != len(labels) {
		return 0, 0, fmt.Errorf("fit: %d windows, %d labels", len(windows), len(labels))
	}

	split := int(float64(len(windows)) * (1 - cfg.ValFraction))
	if split < 1 {
		split = len(windows)
	}
	trainW, trainY := windows[:split], labels[:split]
	valW, valY := windows[split:], labels[split:]

	opt := newAdam(cfg.LearningRate, n.params())
	rng := rand.New(rand.NewSource(cfg.Seed))

	bestLoss := math.Inf(1)
	var bestWeights [][]float64
	sinceBest := 0

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		order := rng.Perm(len(trainW))
		for start := 0; start < len(order); start += cfg.BatchSize {
			end := start + cfg.BatchSize
			if end > len(order) {
				end = len(order)
			}

			n.zeroGrads()
			for _, idx := range order[start:end] {
				cache, out := n.forward(trainW[idx], true)
				n.backward(cache, mseGrad(out, trainY[idx]))
			}
			opt.step(float64(end - start))
		}

		trainLoss = n.evaluate(trainW, trainY)
		if len(valW) > 0 {
			valLoss = n.evaluate(valW, valY)
		} else {
			valLoss = trainLoss
		}

		if valLoss < bestLoss {
			bestLoss = valLoss
			bestWeights = n.snapshot()
			sinceBest = 0
		} else {
			sinceBest++
			if sinceBest >= cfg.Patience {
				log.Debug().
					Int("epoch", epoch).
					Float64("best_val_loss", bestLoss).
					Msg("Early stopping")
				break
			}
		}
	}

	if bestWeights != nil {
		n.restore(bestWeights)
		valLoss = bestLoss
	}
	trainLoss = n.evaluate(trainW, trainY)
	return trainLoss, valLoss, nil
}

// evaluate returns the mean squared error over a set, dropout inactive.
func (n *Network) evaluate(windows []*mat.Dense, labels [][]float64) float64 {
	if len(windows) == 0 {
		return 0
	}
	total := 0.0
	for i, w := range windows {
		_, out := n.forward(w, false)
		total += mse(out, labels[i])
	}
	return total / float64(len(windows))
}

func mse(out, target []float64) float64 {
	sum := 0.0
	for i := range out {
		d := out[i] - target[i]
		sum += d * d
	}
	return sum / float64(len(out))
}

// mseGrad is the gradient of mse with respect to out.
func mseGrad(out, target []float64) []float64 {
	grad := make([]float64, len(out))
	for i := range out {
		grad[i] = 2 * (out[i] - target[i]) / float64(len(out))
	}
	return grad
}

// adam implements the Adam optimizer with the usual defaults (beta1 0.9,
// beta2 0.999).
type adam struct {
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	t      int
	params []param
	m, v   [][]float64
}

func newAdam(lr float64, params []param) *adam {
	a := &adam{
		lr:     lr,
		beta1:  0.9,
		beta2:  0.999,
		eps:    1e-8,
		params: params,
		m:      make([][]float64, len(params)),
		v:      make([][]float64, len(params)),
	}
	for i, p := range params {
		a.m[i] = make([]float64, len(p.val))
		a.v[i] = make([]float64, len(p.val))
	}
	return a
}

// step applies one update using the accumulated gradients divided by
// batchSize, then relies on the caller to zero them for the next batch.
func (a *adam) step(batchSize float64) {
	a.t++
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))

	for i, p := range a.params {
		m, v := a.m[i], a.v[i]
		for j := range p.val {
			g := p.grad[j] / batchSize
			m[j] = a.beta1*m[j] + (1-a.beta1)*g
			v[j] = a.beta2*v[j] + (1-a.beta2)*g*g
			p.val[j] -= a.lr * (m[j] / c1) / (math.Sqrt(v[j]/c2) + a.eps)
		}
	}
}
