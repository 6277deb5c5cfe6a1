package modules

import (
	"os"
	"testing"

	"github.com/okieraised/go-priorbox/config"
	"github.com/stretchr/testify/assert"
	gotritonclient "github.com/okieraised/go-triton-client"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

func TestGridFromOutputDims(t *testing.T) {
	grid, err := GridFromOutputDims([]int64{1, 16, 19, 19}, 300, 300)
	assert.NoError(t, err)
	assert.Equal(t, 19, grid.Width)
	assert.Equal(t, 19, grid.Height)
	assert.Equal(t, 300, grid.ImageWidth)
	assert.Equal(t, 300, grid.ImageHeight)

	_, err = GridFromOutputDims([]int64{1, 16}, 300, 300)
	assert.Error(t, err)
}

func TestNewPriorBoxClient(t *testing.T) {
	tritonTestURL := os.Getenv("TRITON_TEST_URL")
	if tritonTestURL == "" {
		t.Skip("TRITON_TEST_URL not set, skipping triton-backed test")
	}

	tritonClient, err := gotritonclient.NewTritonGRPCClient(
		tritonTestURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{PermitWithoutStream: true}),
	)
	assert.NoError(t, err)

	client, err := NewPriorBoxClient(tritonClient, config.DefaultSSDPriorParams)
	assert.NoError(t, err)

	priors, variances, err := client.GeneratePriors()
	assert.NoError(t, err)
	assert.Equal(t, priors.Shape()[0], variances.Shape()[0])
	assert.Equal(t, 4, priors.Shape()[1])
}
