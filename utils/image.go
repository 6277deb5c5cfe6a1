package utils

import (
	"fmt"

	"gocv.io/x/gocv"
)

// ImageToOpenCV decodes a raw encoded image into a 3-channel BGR OpenCV
// matrix, normalizing RGBA and grayscale inputs.
func ImageToOpenCV(bImage []byte) (*gocv.Mat, error) {
	srcMat, err := gocv.IMDecode(bImage, gocv.IMReadUnchanged)
	if err != nil {
		return &gocv.Mat{}, err
	}

	channels := srcMat.Channels()
	if len(srcMat.Size()) < 2 {
		return &gocv.Mat{}, fmt.Errorf("invalid image dimension: %v", srcMat.Size())
	}

	dstMat := gocv.Mat{}
	switch channels {
	case 4: // RGBA
		gocv.CvtColor(srcMat, &dstMat, gocv.ColorBGRAToBGR)
	case 1: // Grayscale
		gocv.CvtColor(srcMat, &dstMat, gocv.ColorGrayToBGR)
	default:
		dstMat = srcMat
	}
	return &dstMat, nil
}
