package detector

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
)

/*
preprocessForDetection prepares an image for text line detection.

The steps are:
  - Convert to grayscale.
  - Apply a mild sharpening.
  - Increase contrast so the OCR-B glyphs stand out from the background.

The image is not resized, so line boxes stay in original-image pixels.
*/
func preprocessForDetection(original image.Image) *image.NRGBA {
	grayscaleImage := imaging.Grayscale(original)
	sharpenedImage := imaging.Sharpen(grayscaleImage, 1.0)
	return imaging.AdjustContrast(sharpenedImage, 40.0)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	err := imaging.Encode(&buf, img, imaging.PNG)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
