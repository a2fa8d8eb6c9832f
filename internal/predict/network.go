package predict

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Network is the many-to-one sequence regressor mapping a window of monthly
// calendar features to the next month's category-spend vector: two stacked
// LSTM layers (width 50, dropout 0.2 after each) feeding two linear dense
// layers (width 25, then the category count). Loss is mean squared error,
// optimized with Adam at learning rate 0.001 (see train.go).
type Network struct {
	l1, l2  *lstmCell
	d1, d2  *denseLayer
	dropout float64
	rng     *rand.Rand
}

// NewNetwork builds an untrained network with Glorot-uniform weights. The
// seed fixes initialization and dropout masks so bootstrap training is
// reproducible.
func NewNetwork(inSize, hiddenSize, denseSize, outSize int, seed int64) *Network {
	rng := rand.New(rand.NewSource(seed))
	return &Network{
		l1:      newLSTMCell(inSize, hiddenSize, rng),
		l2:      newLSTMCell(hiddenSize, hiddenSize, rng),
		d1:      newDenseLayer(hiddenSize, denseSize, rng),
		d2:      newDenseLayer(denseSize, outSize, rng),
		dropout: 0.2,
		rng:     rng,
	}
}

// Predict runs one forward pass over a (seqLen x inSize) window of scaled
// features and returns the scaled output vector. Dropout is inactive.
func (n *Network) Predict(window *mat.Dense) []float64 {
	_, out := n.forward(window, false)
	return out
}

// OutSize returns the dimensionality of the output vector.
func (n *Network) OutSize() int {
	return n.d2.outSize
}

// forward runs the full stack. With train set, inverted-dropout masks are
// sampled and recorded in the cache for the backward pass.
func (n *Network) forward(window *mat.Dense, train bool) (*forwardCache, []float64) {
	steps, _ := window.Dims()
	cache := &forwardCache{
		c1:    make([]*cellCache, steps),
		c2:    make([]*cellCache, steps),
		mask1: make([][]float64, steps),
	}

	h1 := make([]float64, n.l1.hiddenSize)
	c1 := make([]float64, n.l1.hiddenSize)
	h2 := make([]float64, n.l2.hiddenSize)
	c2 := make([]float64, n.l2.hiddenSize)

	for t := 0; t < steps; t++ {
		x := mat.Row(nil, t, window)
		h1, c1, cache.c1[t] = n.l1.step(x, h1, c1)

		dropped := h1
		if train {
			cache.mask1[t] = n.sampleMask(n.l1.hiddenSize)
			dropped = applyMask(h1, cache.mask1[t])
		}
		h2, c2, cache.c2[t] = n.l2.step(dropped, h2, c2)
	}

	final := h2
	if train {
		cache.mask2 = n.sampleMask(n.l2.hiddenSize)
		final = applyMask(h2, cache.mask2)
	}
	cache.d1In = final

	a := n.d1.forward(final)
	cache.d2In = a
	out := n.d2.forward(a)
	return cache, out
}

// backward accumulates parameter gradients for one sample given dOut, the
// loss gradient with respect to the network output.
func (n *Network) backward(cache *forwardCache, dOut []float64) {
	da := n.d2.backward(cache.d2In, dOut)
	dFinal := n.d1.backward(cache.d1In, da)
	if cache.mask2 != nil {
		dFinal = applyMask(dFinal, cache.mask2)
	}

	steps := len(cache.c2)
	hidden := n.l2.hiddenSize

	// BPTT through the second layer. Only the final step receives gradient
	// from the dense head; earlier steps receive it through the recurrence.
	dx2 := make([][]float64, steps)
	dh := make([]float64, hidden)
	dc := make([]float64, hidden)
	copy(dh, dFinal)
	for t := steps - 1; t >= 0; t-- {
		var dx []float64
		dx, dh, dc = n.l2.backStep(cache.c2[t], dh, dc)
		dx2[t] = dx
	}

	// The second layer's input gradients flow into the first layer's hidden
	// outputs, through the dropout masks.
	dh = make([]float64, n.l1.hiddenSize)
	dc = make([]float64, n.l1.hiddenSize)
	for t := steps - 1; t >= 0; t-- {
		dht := dx2[t]
		if cache.mask1[t] != nil {
			dht = applyMask(dht, cache.mask1[t])
		}
		for i := range dh {
			dh[i] += dht[i]
		}
		_, dh, dc = n.l1.backStep(cache.c1[t], dh, dc)
	}
}

func (n *Network) zeroGrads() {
	n.l1.zeroGrads()
	n.l2.zeroGrads()
	n.d1.zeroGrads()
	n.d2.zeroGrads()
}

// params returns every trainable tensor paired with its gradient buffer, in
// a stable order, for the optimizer.
func (n *Network) params() []param {
	var ps []param
	for _, c := range []*lstmCell{n.l1, n.l2} {
		ps = append(ps,
			param{val: c.wx.RawMatrix().Data, grad: c.gWx.RawMatrix().Data},
			param{val: c.wh.RawMatrix().Data, grad: c.gWh.RawMatrix().Data},
			param{val: c.b, grad: c.gB},
		)
	}
	for _, d := range []*denseLayer{n.d1, n.d2} {
		ps = append(ps,
			param{val: d.w.RawMatrix().Data, grad: d.gW.RawMatrix().Data},
			param{val: d.b, grad: d.gB},
		)
	}
	return ps
}

// snapshot deep-copies all weights; restore writes a snapshot back. Used by
// early stopping to keep and restore the best validation weights.
func (n *Network) snapshot() [][]float64 {
	ps := n.params()
	out := make([][]float64, len(ps))
	for i, p := range ps {
		cp := make([]float64, len(p.val))
		copy(cp, p.val)
		out[i] = cp
	}
	return out
}

func (n *Network) restore(snap [][]float64) {
	ps := n.params()
	for i, p := range ps {
		copy(p.val, snap[i])
	}
}

func (n *Network) sampleMask(size int) []float64 {
	mask := make([]float64, size)
	keep := 1 - n.dropout
	for i := range mask {
		if n.rng.Float64() < keep {
			mask[i] = 1 / keep
		}
	}
	return mask
}

type param struct {
	val  []float64
	grad []float64
}

type forwardCache struct {
	c1, c2 []*cellCache
	mask1  [][]float64
	mask2  []float64
	d1In   []float64
	d2In   []float64
}

// lstmCell holds the weights of one LSTM layer. Gate blocks are stacked in
// the order input, forget, cell, output: wx is (4h x in), wh is (4h x h),
// b has length 4h.
type lstmCell struct {
	inSize     int
	hiddenSize int
	wx, wh     *mat.Dense
	b          []float64

	gWx, gWh *mat.Dense
	gB       []float64
}

func newLSTMCell(inSize, hiddenSize int, rng *rand.Rand) *lstmCell {
	c := &lstmCell{
		inSize:     inSize,
		hiddenSize: hiddenSize,
		wx:         glorot(4*hiddenSize, inSize, rng),
		wh:         glorot(4*hiddenSize, hiddenSize, rng),
		b:          make([]float64, 4*hiddenSize),
		gWx:        mat.NewDense(4*hiddenSize, inSize, nil),
		gWh:        mat.NewDense(4*hiddenSize, hiddenSize, nil),
		gB:         make([]float64, 4*hiddenSize),
	}
	// Forget-gate bias starts at 1 so early training does not wipe the cell
	// state.
	for i := hiddenSize; i < 2*hiddenSize; i++ {
		c.b[i] = 1
	}
	return c
}

type cellCache struct {
	x, hPrev, cPrev []float64
	i, f, g, o      []float64
	c, tanhC        []float64
}

func (c *lstmCell) step(x, hPrev, cPrev []float64) (h, cState []float64, cache *cellCache) {
	h4 := 4 * c.hiddenSize
	z := make([]float64, h4)
	matVecAdd(z, c.wx, x)
	matVecAdd(z, c.wh, hPrev)
	for i := range z {
		z[i] += c.b[i]
	}

	hs := c.hiddenSize
	cache = &cellCache{
		x: x, hPrev: hPrev, cPrev: cPrev,
		i: make([]float64, hs), f: make([]float64, hs),
		g: make([]float64, hs), o: make([]float64, hs),
		c: make([]float64, hs), tanhC: make([]float64, hs),
	}

	h = make([]float64, hs)
	cState = make([]float64, hs)
	for j := 0; j < hs; j++ {
		cache.i[j] = sigmoid(z[j])
		cache.f[j] = sigmoid(z[hs+j])
		cache.g[j] = math.Tanh(z[2*hs+j])
		cache.o[j] = sigmoid(z[3*hs+j])

		cState[j] = cache.f[j]*cPrev[j] + cache.i[j]*cache.g[j]
		cache.c[j] = cState[j]
		cache.tanhC[j] = math.Tanh(cState[j])
		h[j] = cache.o[j] * cache.tanhC[j]
	}
	return h, cState, cache
}

// backStep propagates gradients through one timestep. dh and dc are the
// gradients flowing into this step's hidden and cell state; the returned
// values feed the previous timestep.
func (c *lstmCell) backStep(cache *cellCache, dh, dc []float64) (dx, dhPrev, dcPrev []float64) {
	hs := c.hiddenSize
	dz := make([]float64, 4*hs)
	dcPrev = make([]float64, hs)

	for j := 0; j < hs; j++ {
		dcj := dc[j] + dh[j]*cache.o[j]*(1-cache.tanhC[j]*cache.tanhC[j])

		di := dcj * cache.g[j]
		df := dcj * cache.cPrev[j]
		dg := dcj * cache.i[j]
		do := dh[j] * cache.tanhC[j]

		dz[j] = di * cache.i[j] * (1 - cache.i[j])
		dz[hs+j] = df * cache.f[j] * (1 - cache.f[j])
		dz[2*hs+j] = dg * (1 - cache.g[j]*cache.g[j])
		dz[3*hs+j] = do * cache.o[j] * (1 - cache.o[j])

		dcPrev[j] = dcj * cache.f[j]
	}

	addOuter(c.gWx, dz, cache.x)
	addOuter(c.gWh, dz, cache.hPrev)
	for i := range dz {
		c.gB[i] += dz[i]
	}

	dx = matTVec(c.wx, dz)
	dhPrev = matTVec(c.wh, dz)
	return dx, dhPrev, dcPrev
}

func (c *lstmCell) zeroGrads() {
	c.gWx.Zero()
	c.gWh.Zero()
	for i := range c.gB {
		c.gB[i] = 0
	}
}

// denseLayer is a fully connected linear layer: y = W x + b.
type denseLayer struct {
	inSize  int
	outSize int
	w       *mat.Dense
	b       []float64

	gW *mat.Dense
	gB []float64
}

func newDenseLayer(inSize, outSize int, rng *rand.Rand) *denseLayer {
	return &denseLayer{
		inSize:  inSize,
		outSize: outSize,
		w:       glorot(outSize, inSize, rng),
		b:       make([]float64, outSize),
		gW:      mat.NewDense(outSize, inSize, nil),
		gB:      make([]float64, outSize),
	}
}

func (d *denseLayer) forward(x []float64) []float64 {
	y := make([]float64, d.outSize)
	matVecAdd(y, d.w, x)
	for i := range y {
		y[i] += d.b[i]
	}
	return y
}

func (d *denseLayer) backward(x, dy []float64) []float64 {
	addOuter(d.gW, dy, x)
	for i := range dy {
		d.gB[i] += dy[i]
	}
	return matTVec(d.w, dy)
}

func (d *denseLayer) zeroGrads() {
	d.gW.Zero()
	for i := range d.gB {
		d.gB[i] = 0
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func applyMask(v, mask []float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = v[i] * mask[i]
	}
	return out
}

// matVecAdd computes dst += W v.
func matVecAdd(dst []float64, w *mat.Dense, v []float64) {
	var y mat.VecDense
	y.MulVec(w, mat.NewVecDense(len(v), v))
	for i := range dst {
		dst[i] += y.AtVec(i)
	}
}

// matTVec computes Wᵀ v.
func matTVec(w *mat.Dense, v []float64) []float64 {
	_, cols := w.Dims()
	var y mat.VecDense
	y.MulVec(w.T(), mat.NewVecDense(len(v), v))
	out := make([]float64, cols)
	for i := range out {
		out[i] = y.AtVec(i)
	}
	return out
}

// addOuter computes W += dy vᵀ.
func addOuter(w *mat.Dense, dy, v []float64) {
	raw := w.RawMatrix()
	for i, dyi := range dy {
		if dyi == 0 {
			continue
		}
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		for j := range v {
			row[j] += dyi * v[j]
		}
	}
}

func glorot(rows, cols int, rng *rand.Rand) *mat.Dense {
	limit := math.Sqrt(6 / float64(rows+cols))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * limit
	}
	return mat.NewDense(rows, cols, data)
}

// networkState is the JSON form of a trained network.
type networkState struct {
	InSize     int         `json:"in_size"`
	HiddenSize int         `json:"hidden_size"`
	DenseSize  int         `json:"dense_size"`
	OutSize    int         `json:"out_size"`
	Dropout    float64     `json:"dropout"`
	Weights    [][]float64 `json:"weights"`
}

// MarshalJSON serializes the network weights and dimensions.
func (n *Network) MarshalJSON() ([]byte, error) {
	return json.Marshal(networkState{
		InSize:     n.l1.inSize,
		HiddenSize: n.l1.hiddenSize,
		DenseSize:  n.d1.outSize,
		OutSize:    n.d2.outSize,
		Dropout:    n.dropout,
		Weights:    n.snapshot(),
	})
}

// UnmarshalJSON restores a network from its JSON form.
func (n *Network) UnmarshalJSON(data []byte) error {
	var st networkState
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("network: decode state: %w", err)
	}
	fresh := NewNetwork(st.InSize, st.HiddenSize, st.DenseSize, st.OutSize, 0)
	if st.Dropout > 0 {
		fresh.dropout = st.Dropout
	}
	ps := fresh.params()
	if len(st.Weights) != len(ps) {
		return fmt.Errorf("network: state has %d tensors, want %d", len(st.Weights), len(ps))
	}
	for i, p := range ps {
		if len(st.Weights[i]) != len(p.val) {
			return fmt.Errorf("network: tensor %d has %d values, want %d", i, len(st.Weights[i]), len(p.val))
		}
	}
	fresh.restore(st.Weights)
	*n = *fresh
	return nil
}
