package ssd

import (
	"testing"

	"github.com/okieraised/go-priorbox/config"
	"github.com/okieraised/go-priorbox/processing"
	"github.com/stretchr/testify/assert"
)

func TestNewPriorBoxLayer(t *testing.T) {
	layer, err := NewPriorBoxLayer(config.DefaultPriorBoxParams)
	assert.NoError(t, err)
	assert.Equal(t, 4, layer.PriorsPerCell())

	_, err = NewPriorBoxLayer(&config.PriorBoxParams{
		MinSizes: []float32{30, 60},
		MaxSizes: []float32{45},
		Variance: []float32{0.1, 0.1, 0.2, 0.2},
	})
	assert.ErrorIs(t, err, processing.ErrInvalidConfig)
}

func TestPriorBoxLayer_Forward(t *testing.T) {
	layer, err := NewPriorBoxLayer(config.DefaultPriorBoxParams)
	assert.NoError(t, err)

	grid := processing.Grid{Width: 38, Height: 38, ImageWidth: 300, ImageHeight: 300}
	assert.Equal(t, 2*38*38*4*4, layer.OutputLen(grid))

	out, err := layer.Forward(grid)
	assert.NoError(t, err)
	assert.Equal(t, []int{2, 38 * 38 * 4, 4}, []int(out.Shape()))
}

func TestPriorBoxLayer_ForwardReusesBuffer(t *testing.T) {
	layer, err := NewPriorBoxLayer(config.DefaultPriorBoxParams)
	assert.NoError(t, err)

	grid := processing.Grid{Width: 10, Height: 10, ImageWidth: 300, ImageHeight: 300}
	first, err := layer.Forward(grid)
	assert.NoError(t, err)
	second, err := layer.Forward(grid)
	assert.NoError(t, err)

	// repeated forwards over the same grid are byte-identical and the first
	// result stays intact after the scratch buffer is reused
	assert.Equal(t, first.Float32s(), second.Float32s())

	smaller := processing.Grid{Width: 5, Height: 5, ImageWidth: 300, ImageHeight: 300}
	_, err = layer.Forward(smaller)
	assert.NoError(t, err)
	assert.Equal(t, first.Float32s(), second.Float32s())
}

func TestPriorBoxLayer_ForwardBadGrid(t *testing.T) {
	layer, err := NewPriorBoxLayer(config.DefaultPriorBoxParams)
	assert.NoError(t, err)

	_, err = layer.Forward(processing.Grid{Width: 10, Height: 10, ImageWidth: 0, ImageHeight: 300})
	assert.ErrorIs(t, err, processing.ErrInvalidDimension)

	_, err = layer.Forward(processing.Grid{Width: 0, Height: 10, ImageWidth: 300, ImageHeight: 300})
	assert.ErrorIs(t, err, processing.ErrInvalidDimension)
}

func TestPriorBoxLayer_Emit(t *testing.T) {
	layer, err := NewPriorBoxLayer(config.DefaultPriorBoxParams)
	assert.NoError(t, err)

	grid := processing.Grid{Width: 3, Height: 3, ImageWidth: 300, ImageHeight: 300}
	out := make([]float32, layer.OutputLen(grid))
	assert.NoError(t, layer.Emit(grid, out))

	forwarded, err := layer.Forward(grid)
	assert.NoError(t, err)
	assert.Equal(t, forwarded.Float32s(), out)
}
