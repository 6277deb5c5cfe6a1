package go_priorbox

import (
	"testing"

	"github.com/okieraised/go-priorbox/config"
	"github.com/stretchr/testify/assert"
)

func TestStaticPriorPipeline_SSD300(t *testing.T) {
	pipeline, err := NewStaticPriorPipeline(config.DefaultSSDPriorParams.LayerParams, [2]int{300, 300})
	assert.NoError(t, err)

	featShapes := [][2]int{
		{38, 38}, {19, 19}, {10, 10}, {5, 5}, {3, 3}, {1, 1},
	}
	resp, err := pipeline.GeneratePriors(featShapes)
	assert.NoError(t, err)

	// the canonical SSD300 catalogue
	assert.Equal(t, 8732, resp.PriorCount)
	assert.Equal(t, []int{8732, 4}, []int(resp.Priors.Shape()))
	assert.Equal(t, []int{8732, 4}, []int(resp.Variances.Shape()))

	priors := resp.Priors.Float32s()
	for _, v := range priors {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}

	variances := resp.Variances.Float32s()
	for i := 0; i < len(variances); i += 4 {
		assert.Equal(t, float32(0.1), variances[i])
		assert.Equal(t, float32(0.1), variances[i+1])
		assert.Equal(t, float32(0.2), variances[i+2])
		assert.Equal(t, float32(0.2), variances[i+3])
	}
}

func TestStaticPriorPipeline_ShapeCountMismatch(t *testing.T) {
	pipeline, err := NewStaticPriorPipeline(config.DefaultSSDPriorParams.LayerParams, [2]int{300, 300})
	assert.NoError(t, err)

	_, err = pipeline.GeneratePriors([][2]int{{38, 38}})
	assert.Error(t, err)
}

func TestNewStaticPriorPipeline_InvalidLayer(t *testing.T) {
	_, err := NewStaticPriorPipeline([]*config.PriorBoxParams{
		{
			MinSizes: []float32{30},
			MaxSizes: []float32{20},
			Variance: []float32{0.1, 0.1, 0.2, 0.2},
		},
	}, [2]int{300, 300})
	assert.Error(t, err)
}
