package ssd

import (
	"github.com/okieraised/go-priorbox/config"
	"github.com/okieraised/go-priorbox/processing"
	"gorgonia.org/tensor"
)

// PriorBoxLayer generates the prior catalogue for one detection feature map.
// The shape template is derived once at construction and is read-only
// afterwards, so a layer may be shared across goroutines through Emit with
// caller-owned buffers. Forward reuses an internal scratch buffer and must not
// be called concurrently on the same layer.
type PriorBoxLayer struct {
	params *config.PriorBoxParams
	tmpl   *processing.PriorTemplate
	buffer []float32
}

func NewPriorBoxLayer(params *config.PriorBoxParams) (*PriorBoxLayer, error) {
	tmpl, err := processing.DerivePriorTemplate(params)
	if err != nil {
		return nil, err
	}
	return &PriorBoxLayer{
		params: params,
		tmpl:   tmpl,
	}, nil
}

// PriorsPerCell reports the catalogue size per feature-map cell.
func (l *PriorBoxLayer) PriorsPerCell() int {
	return l.tmpl.PriorsPerCell
}

// OutputLen reports the number of float32 slots a forward pass over grid
// produces, so callers can size their own buffers for Emit.
func (l *PriorBoxLayer) OutputLen(grid processing.Grid) int {
	return processing.OutputLen(grid, l.params, l.tmpl)
}

// Emit fills a caller-owned buffer of at least OutputLen(grid) slots.
func (l *PriorBoxLayer) Emit(grid processing.Grid, out []float32) error {
	return processing.EmitPriorBoxes(grid, l.params, l.tmpl, out)
}

// Forward generates the priors for grid and returns them as an owned tensor of
// shape (2, cells*boxes, 4): index 0 is the box block, index 1 the variance
// block. The scratch buffer grows to the largest grid seen and is reused
// across calls.
func (l *PriorBoxLayer) Forward(grid processing.Grid) (*tensor.Dense, error) {
	n := processing.OutputLen(grid, l.params, l.tmpl)
	if n <= 0 {
		// degenerate grid, surface the dimension error without touching the buffer
		return nil, processing.EmitPriorBoxes(grid, l.params, l.tmpl, nil)
	}
	if cap(l.buffer) < n {
		l.buffer = make([]float32, n)
	}
	l.buffer = l.buffer[:n]

	err := processing.EmitPriorBoxes(grid, l.params, l.tmpl, l.buffer)
	if err != nil {
		return nil, err
	}

	backing := make([]float32, n)
	copy(backing, l.buffer)

	return tensor.New(
		tensor.Of(tensor.Float32),
		tensor.WithShape(2, n/8, 4),
		tensor.WithBacking(backing),
	), nil
}
