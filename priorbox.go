package go_priorbox

import (
	"fmt"

	"github.com/okieraised/go-priorbox/config"
	"github.com/okieraised/go-priorbox/modules"
	"github.com/okieraised/go-priorbox/processing"
	"github.com/okieraised/go-priorbox/ssd"
	"github.com/okieraised/go-priorbox/utils"
	gotritonclient "github.com/okieraised/go-triton-client"
	"gocv.io/x/gocv"
	"gorgonia.org/tensor"
)

type PriorGenerationResult struct {
	Priors     *tensor.Dense `json:"priors"`
	Variances  *tensor.Dense `json:"variances"`
	PriorCount int           `json:"prior_count"`
}

// TritonPriorPipeline generates the prior catalogue for a model deployed on a
// Triton inference server, taking the per-layer grids from the model
// configuration.
type TritonPriorPipeline struct {
	tritonClient *gotritonclient.TritonGRPCClient
	priorBox     *modules.PriorBoxClient
}

// NewTritonPriorPipeline initializes a prior generation pipeline against the
// given Triton server.
func NewTritonPriorPipeline(tritonClient *gotritonclient.TritonGRPCClient, cfg *config.SSDPriorParams) (*TritonPriorPipeline, error) {
	client := &TritonPriorPipeline{}
	client.tritonClient = tritonClient

	priorBox, err := modules.NewPriorBoxClient(tritonClient, cfg)
	if err != nil {
		return client, err
	}
	client.priorBox = priorBox

	return client, nil
}

func (c *TritonPriorPipeline) GeneratePriors() (*PriorGenerationResult, error) {
	resp := &PriorGenerationResult{}

	priors, variances, err := c.priorBox.GeneratePriors()
	if err != nil {
		return resp, err
	}
	resp.Priors = priors
	resp.Variances = variances
	resp.PriorCount = priors.Shape()[0]

	return resp, nil
}

// GeneratePriorsFromBytes decodes a raw image and generates priors against its
// actual extent instead of the configured reference size.
func (c *TritonPriorPipeline) GeneratePriorsFromBytes(bImage []byte) (*PriorGenerationResult, error) {
	var err error
	resp := &PriorGenerationResult{}

	img, err := utils.ImageToOpenCV(bImage)
	if err != nil {
		return resp, err
	}

	defer func(m *gocv.Mat) {
		cErr := m.Close()
		if cErr != nil && err == nil {
			err = cErr
		}
	}(img)

	priors, variances, err := c.priorBox.GeneratePriorsForImage(*img)
	if err != nil {
		return resp, err
	}
	resp.Priors = priors
	resp.Variances = variances
	resp.PriorCount = priors.Shape()[0]

	return resp, err
}

// StaticPriorPipeline generates priors without a model server: the caller
// supplies the per-layer feature map shapes directly.
type StaticPriorPipeline struct {
	layers    []*ssd.PriorBoxLayer
	imageSize [2]int
}

func NewStaticPriorPipeline(layerParams []*config.PriorBoxParams, imageSize [2]int) (*StaticPriorPipeline, error) {
	client := &StaticPriorPipeline{}
	client.imageSize = imageSize

	client.layers = make([]*ssd.PriorBoxLayer, 0, len(layerParams))
	for _, params := range layerParams {
		layer, err := ssd.NewPriorBoxLayer(params)
		if err != nil {
			return client, err
		}
		client.layers = append(client.layers, layer)
	}

	return client, nil
}

// GeneratePriors takes one (height, width) feature shape per configured layer
// and returns the stacked priors and variances, each of shape (total, 4).
func (c *StaticPriorPipeline) GeneratePriors(featShapes [][2]int) (*PriorGenerationResult, error) {
	resp := &PriorGenerationResult{}

	if len(featShapes) != len(c.layers) {
		return resp, fmt.Errorf("got %d feature shapes for %d layers", len(featShapes), len(c.layers))
	}

	boxParts := make([]*tensor.Dense, 0, len(c.layers))
	varParts := make([]*tensor.Dense, 0, len(c.layers))

	for idx, layer := range c.layers {
		grid := processing.Grid{
			Width:       featShapes[idx][1],
			Height:      featShapes[idx][0],
			ImageWidth:  c.imageSize[0],
			ImageHeight: c.imageSize[1],
		}

		layerOut, err := layer.Forward(grid)
		if err != nil {
			return resp, err
		}

		boxes, err := utils.OwnedSlice(layerOut, 0)
		if err != nil {
			return resp, err
		}
		variances, err := utils.OwnedSlice(layerOut, 1)
		if err != nil {
			return resp, err
		}

		boxParts = append(boxParts, boxes)
		varParts = append(varParts, variances)
	}

	priors, err := utils.VStack(boxParts)
	if err != nil {
		return resp, err
	}
	variances, err := utils.VStack(varParts)
	if err != nil {
		return resp, err
	}

	resp.Priors = priors
	resp.Variances = variances
	resp.PriorCount = priors.Shape()[0]

	return resp, nil
}
