package modules

import (
	"fmt"

	"github.com/okieraised/go-priorbox/config"
	"github.com/okieraised/go-priorbox/processing"
	"github.com/okieraised/go-priorbox/ssd"
	"github.com/okieraised/go-priorbox/utils"
	gotritonclient "github.com/okieraised/go-triton-client"
	"github.com/okieraised/go-triton-client/triton_proto"
	"gocv.io/x/gocv"
	"gorgonia.org/tensor"
)

// PriorBoxClient generates the full prior catalogue for a deployed SSD model.
// It reads the model configuration from Triton once at construction, pairs
// every detection output with a prior-box layer, and derives each layer's grid
// from the output's NCHW dims at generation time.
type PriorBoxClient struct {
	tritonClient *gotritonclient.TritonGRPCClient
	ModelParams  *config.SSDPriorParams
	ModelConfig  *triton_proto.ModelConfigResponse
	imageSize    [2]int
	layers       []*ssd.PriorBoxLayer
}

func NewPriorBoxClient(tritonClient *gotritonclient.TritonGRPCClient, cfg *config.SSDPriorParams) (*PriorBoxClient, error) {

	client := &PriorBoxClient{}
	client.ModelParams = cfg

	inferenceConfig, err := tritonClient.GetModelConfiguration(cfg.Timeout, cfg.ModelName, "")
	if err != nil {
		return nil, err
	}
	client.tritonClient = tritonClient
	client.ModelConfig = inferenceConfig
	client.imageSize = cfg.ImageSize

	if len(cfg.LayerParams) != len(inferenceConfig.Config.Output) {
		return nil, fmt.Errorf("got %d prior box layer params for %d model outputs",
			len(cfg.LayerParams), len(inferenceConfig.Config.Output))
	}

	client.layers = make([]*ssd.PriorBoxLayer, 0, len(cfg.LayerParams))
	for _, layerParams := range cfg.LayerParams {
		layer, err := ssd.NewPriorBoxLayer(layerParams)
		if err != nil {
			return nil, err
		}
		client.layers = append(client.layers, layer)
	}

	return client, nil
}

// GridFromOutputDims derives a prior-box grid from a model output's NCHW dims
// and the reference image extent.
func GridFromOutputDims(dims []int64, imageWidth, imageHeight int) (processing.Grid, error) {
	if len(dims) < 4 {
		return processing.Grid{}, fmt.Errorf("expected NCHW output dims, got %v", dims)
	}
	return processing.Grid{
		Width:       int(dims[3]),
		Height:      int(dims[2]),
		ImageWidth:  imageWidth,
		ImageHeight: imageHeight,
	}, nil
}

// GeneratePriors runs every layer against the grids declared by the model
// configuration, using the configured reference image size. It returns the
// stacked prior boxes and variances, each of shape (total, 4).
func (c *PriorBoxClient) GeneratePriors() (*tensor.Dense, *tensor.Dense, error) {
	return c.generate(c.imageSize[0], c.imageSize[1])
}

// GeneratePriorsForImage generates priors against the actual image extent
// instead of the configured one.
func (c *PriorBoxClient) GeneratePriorsForImage(img gocv.Mat) (*tensor.Dense, *tensor.Dense, error) {
	imgShape := img.Size()
	return c.generate(imgShape[1], imgShape[0])
}

func (c *PriorBoxClient) generate(imageWidth, imageHeight int) (*tensor.Dense, *tensor.Dense, error) {
	boxParts := make([]*tensor.Dense, 0, len(c.layers))
	varParts := make([]*tensor.Dense, 0, len(c.layers))

	for idx, outputCfg := range c.ModelConfig.Config.Output {
		grid, err := GridFromOutputDims(outputCfg.Dims, imageWidth, imageHeight)
		if err != nil {
			return nil, nil, err
		}

		layerOut, err := c.layers[idx].Forward(grid)
		if err != nil {
			return nil, nil, err
		}

		boxes, err := utils.OwnedSlice(layerOut, 0)
		if err != nil {
			return nil, nil, err
		}
		variances, err := utils.OwnedSlice(layerOut, 1)
		if err != nil {
			return nil, nil, err
		}

		boxParts = append(boxParts, boxes)
		varParts = append(varParts, variances)
	}

	priors, err := utils.VStack(boxParts)
	if err != nil {
		return nil, nil, err
	}
	variances, err := utils.VStack(varParts)
	if err != nil {
		return nil, nil, err
	}

	return priors, variances, nil
}
