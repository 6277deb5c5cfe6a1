package processing

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/okieraised/go-priorbox/config"
)

var (
	// ErrInvalidConfig marks a shape-configuration fault. Configuration-time,
	// not recoverable: fix the config, do not retry.
	ErrInvalidConfig = errors.New("invalid prior box config")
	// ErrInvalidDimension marks a bad grid or an undersized output buffer at
	// forward time.
	ErrInvalidDimension = errors.New("invalid prior box dimension")
)

// ratioEpsilon is the tolerance under which an expanded ratio counts as the
// canonical 1.0 box and is skipped by the aspect-ratio pass.
const ratioEpsilon = 1e-6

// PriorTemplate is the per-cell prior description derived once from a
// PriorBoxParams. ExpandedRatios is the input ratios followed by their
// reciprocals followed by 1.0; the order fixes the emission order and is part
// of the output contract.
type PriorTemplate struct {
	ExpandedRatios []float32
	PriorsPerCell  int
}

// Grid describes one feature map and its reference image, both in pixels.
type Grid struct {
	Width       int
	Height      int
	ImageWidth  int
	ImageHeight int
}

// DerivePriorTemplate validates params and expands the aspect ratios into the
// canonical per-cell template.
func DerivePriorTemplate(params *config.PriorBoxParams) (*PriorTemplate, error) {
	if len(params.MinSizes) == 0 {
		return nil, fmt.Errorf("%w: min sizes must not be empty", ErrInvalidConfig)
	}
	for _, s := range params.MinSizes {
		if s <= 0 {
			return nil, fmt.Errorf("%w: min size must be positive, got %v", ErrInvalidConfig, s)
		}
	}
	if len(params.MaxSizes) > 0 {
		if len(params.MaxSizes) != len(params.MinSizes) {
			return nil, fmt.Errorf("%w: got %d max sizes for %d min sizes",
				ErrInvalidConfig, len(params.MaxSizes), len(params.MinSizes))
		}
		for i, s := range params.MaxSizes {
			if s <= params.MinSizes[i] {
				return nil, fmt.Errorf("%w: max size %v must exceed min size %v",
					ErrInvalidConfig, s, params.MinSizes[i])
			}
		}
	}
	for _, r := range params.AspectRatios {
		if r <= 0 {
			return nil, fmt.Errorf("%w: aspect ratio must be positive, got %v", ErrInvalidConfig, r)
		}
	}
	if len(params.Variance) != 4 {
		return nil, fmt.Errorf("%w: variance must have exactly 4 entries, got %d",
			ErrInvalidConfig, len(params.Variance))
	}

	expanded := make([]float32, 0, 2*len(params.AspectRatios)+1)
	expanded = append(expanded, params.AspectRatios...)
	for _, r := range params.AspectRatios {
		expanded = append(expanded, 1/r)
	}
	expanded = append(expanded, 1.0)

	numPriors := len(expanded)
	if len(params.MaxSizes) > 0 {
		numPriors++
	}

	return &PriorTemplate{
		ExpandedRatios: expanded,
		PriorsPerCell:  numPriors,
	}, nil
}

// CellBoxCount is the number of boxes the emitter actually writes per cell:
// one square per min size, one sqrt(min*max) square per (min, max) pair, and
// one box per non-unit expanded ratio. For the canonical single-min-size
// configuration this equals PriorsPerCell.
func CellBoxCount(params *config.PriorBoxParams, tmpl *PriorTemplate) int {
	count := len(params.MinSizes) * (1 + len(params.MaxSizes))
	for _, ar := range tmpl.ExpandedRatios {
		if math32.Abs(ar-1.0) < ratioEpsilon {
			continue
		}
		count++
	}
	return count
}

// OutputLen is the exact number of float32 slots EmitPriorBoxes fills for the
// given grid: a box block and a variance block of equal size.
func OutputLen(grid Grid, params *config.PriorBoxParams, tmpl *PriorTemplate) int {
	return 2 * grid.Height * grid.Width * CellBoxCount(params, tmpl) * 4
}

// EmitPriorBoxes walks every feature-map cell in row-major order and fills out
// with the normalized prior boxes followed by the tiled variance vector. The
// first half of out holds (xmin, ymin, xmax, ymax) per (cell, prior) clipped
// to [0, 1]; the second half repeats params.Variance for every (cell, prior).
// out must hold at least OutputLen slots and is fully overwritten.
func EmitPriorBoxes(grid Grid, params *config.PriorBoxParams, tmpl *PriorTemplate, out []float32) error {
	if grid.ImageWidth <= 0 || grid.ImageHeight <= 0 {
		return fmt.Errorf("%w: image size %dx%d", ErrInvalidDimension, grid.ImageWidth, grid.ImageHeight)
	}
	if grid.Width <= 0 || grid.Height <= 0 {
		return fmt.Errorf("%w: grid size %dx%d", ErrInvalidDimension, grid.Width, grid.Height)
	}

	dim := grid.Height * grid.Width * CellBoxCount(params, tmpl) * 4
	if len(out) < 2*dim {
		return fmt.Errorf("%w: output buffer holds %d slots, need %d", ErrInvalidDimension, len(out), 2*dim)
	}

	imgW := float32(grid.ImageWidth)
	imgH := float32(grid.ImageHeight)
	stepW := imgW / float32(grid.Width)
	stepH := imgH / float32(grid.Height)

	idx := 0
	for h := 0; h < grid.Height; h++ {
		for w := 0; w < grid.Width; w++ {
			centerX := (float32(w) + 0.5) * stepW
			centerY := (float32(h) + 0.5) * stepH

			var minSize float32
			for s := 0; s < len(params.MinSizes); s++ {
				// first prior: square of side minSize
				minSize = params.MinSizes[s]
				out[idx] = (centerX - minSize/2) / imgW
				out[idx+1] = (centerY - minSize/2) / imgH
				out[idx+2] = (centerX + minSize/2) / imgW
				out[idx+3] = (centerY + minSize/2) / imgH
				idx += 4

				// second prior: square of side sqrt(minSize * maxSize)
				for _, maxSize := range params.MaxSizes {
					side := math32.Sqrt(minSize * maxSize)
					out[idx] = (centerX - side/2) / imgW
					out[idx+1] = (centerY - side/2) / imgH
					out[idx+2] = (centerX + side/2) / imgW
					out[idx+3] = (centerY + side/2) / imgH
					idx += 4
				}
			}

			// rest of the priors. minSize here is the last value the loop
			// above iterated, which is the layout the consumer decodes
			// against.
			for _, ar := range tmpl.ExpandedRatios {
				if math32.Abs(ar-1.0) < ratioEpsilon {
					continue
				}
				boxWidth := minSize * math32.Sqrt(ar)
				boxHeight := minSize / math32.Sqrt(ar)
				out[idx] = (centerX - boxWidth/2) / imgW
				out[idx+1] = (centerY - boxHeight/2) / imgH
				out[idx+2] = (centerX + boxWidth/2) / imgW
				out[idx+3] = (centerY + boxHeight/2) / imgH
				idx += 4
			}
		}
	}

	// clip the box block so every coordinate stays within [0, 1]
	for d := 0; d < dim; d++ {
		out[d] = math32.Min(math32.Max(out[d], 0), 1)
	}

	// tile the variance vector over the second half, same (h, w, prior) order
	for g := 0; g < dim/4; g++ {
		for j := 0; j < 4; j++ {
			out[idx] = params.Variance[j]
			idx++
		}
	}

	return nil
}
