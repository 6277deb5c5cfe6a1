package config

import (
	"time"
)

// PriorBoxParams holds the shape configuration for a single prior-box layer.
// MaxSizes is either empty or pairs with MinSizes index by index; AspectRatios
// lists only the caller-supplied ratios (the reciprocals and the canonical 1.0
// box are derived); Variance is the 4-component decode scale vector shared by
// every prior of the layer.
type PriorBoxParams struct {
	MinSizes     []float32 `json:"min_sizes"`
	MaxSizes     []float32 `json:"max_sizes"`
	AspectRatios []float32 `json:"aspect_ratios"`
	Variance     []float32 `json:"variance"`
}

var DefaultPriorBoxParams = &PriorBoxParams{
	MinSizes:     []float32{30},
	MaxSizes:     []float32{60},
	AspectRatios: []float32{2},
	Variance:     []float32{0.1, 0.1, 0.2, 0.2},
}

func NewPriorBoxParams(minSizes, maxSizes, aspectRatios, variance []float32) *PriorBoxParams {
	return &PriorBoxParams{
		MinSizes:     minSizes,
		MaxSizes:     maxSizes,
		AspectRatios: aspectRatios,
		Variance:     variance,
	}
}

// SSDPriorParams configures prior generation for a deployed SSD model: one
// PriorBoxParams per detection feature map, paired with the model outputs in
// declaration order.
type SSDPriorParams struct {
	ModelName   string            `json:"model_name"`
	Timeout     time.Duration     `json:"timeout"`
	ImageSize   [2]int            `json:"image_size"`
	LayerParams []*PriorBoxParams `json:"layer_params"`
}

var DefaultSSDPriorParams = &SSDPriorParams{
	ModelName: "ssd_vgg16_300",
	Timeout:   20 * time.Second,
	ImageSize: [2]int{300, 300},
	LayerParams: []*PriorBoxParams{
		{
			MinSizes:     []float32{30},
			MaxSizes:     []float32{60},
			AspectRatios: []float32{2},
			Variance:     []float32{0.1, 0.1, 0.2, 0.2},
		},
		{
			MinSizes:     []float32{60},
			MaxSizes:     []float32{111},
			AspectRatios: []float32{2, 3},
			Variance:     []float32{0.1, 0.1, 0.2, 0.2},
		},
		{
			MinSizes:     []float32{111},
			MaxSizes:     []float32{162},
			AspectRatios: []float32{2, 3},
			Variance:     []float32{0.1, 0.1, 0.2, 0.2},
		},
		{
			MinSizes:     []float32{162},
			MaxSizes:     []float32{213},
			AspectRatios: []float32{2, 3},
			Variance:     []float32{0.1, 0.1, 0.2, 0.2},
		},
		{
			MinSizes:     []float32{213},
			MaxSizes:     []float32{264},
			AspectRatios: []float32{2},
			Variance:     []float32{0.1, 0.1, 0.2, 0.2},
		},
		{
			MinSizes:     []float32{264},
			MaxSizes:     []float32{315},
			AspectRatios: []float32{2},
			Variance:     []float32{0.1, 0.1, 0.2, 0.2},
		},
	},
}

func NewSSDPriorParams(modelName string, timeout time.Duration, imgSize [2]int, layerParams []*PriorBoxParams) *SSDPriorParams {
	return &SSDPriorParams{
		ModelName:   modelName,
		Timeout:     timeout,
		ImageSize:   imgSize,
		LayerParams: layerParams,
	}
}
