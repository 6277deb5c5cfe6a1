package utils

import (
	"fmt"

	"gorgonia.org/tensor"
)

func VStack(tensors []*tensor.Dense) (*tensor.Dense, error) {
	var nonEmptyTensors []*tensor.Dense
	for _, t := range tensors {
		shape := t.Shape()
		if shape[0] > 0 {
			nonEmptyTensors = append(nonEmptyTensors, t)
		}
	}

	if len(nonEmptyTensors) == 0 {
		return tensor.New(tensor.Of(tensor.Float32), tensor.WithShape(0, 1)), nil
	}

	result, err := nonEmptyTensors[0].Concat(0, nonEmptyTensors[1:]...)
	if err != nil {
		return nil, fmt.Errorf("error concatenating tensors: %v", err)
	}

	return result, nil
}

// OwnedSlice returns an owned copy of t sliced at index idx along axis 0, so
// the result stays valid after t's backing is reused or mutated.
func OwnedSlice(t *tensor.Dense, idx int) (*tensor.Dense, error) {
	sliced, err := t.Slice(tensor.S(idx))
	if err != nil {
		return nil, err
	}

	owned := tensor.New(
		tensor.Of(tensor.Float32),
		tensor.WithShape(sliced.Shape()...),
	)

	err = tensor.Copy(owned, sliced)
	if err != nil {
		return nil, err
	}

	return owned, nil
}
