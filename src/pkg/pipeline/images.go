package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/tuumbleweed/xerr"

	"mrz-labeler/src/pkg/batch"
	"mrz-labeler/src/pkg/detector"
)

// Image is an uploaded file inside a batch's uploads directory.
type Image struct {
	Path     string
	Filename string
}

// IsAllowedImageExt reports whether ext is an image type the pipeline reads.
func IsAllowedImageExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png":
		return true
	default:
		return false
	}
}

/*
ImagesFromWorkspace lists the uploads of ws in filename order, skipping
anything that is not a .jpg/.jpeg/.png file.
*/
func ImagesFromWorkspace(ws batch.Workspace) (images []Image, e *xerr.Error) {
	names, e := ws.Uploads()
	if e != nil {
		return nil, e
	}

	for _, name := range names {
		if !IsAllowedImageExt(filepath.Ext(name)) {
			continue
		}
		images = append(images, Image{Path: ws.UploadPath(name), Filename: name})
	}
	return images, nil
}

// imageDimensions decodes only the image header.
func imageDimensions(imagePath string) (width int, height int, err error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("decode image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

/*
clipRegion keeps the part of region that lies inside a width x height
image. The crop and the offset applied to the recognized box both use the
clipped origin.
*/
func clipRegion(region detector.Region, width int, height int) (clipped detector.Region, ok bool) {
	inside := region.Rectangle().Intersect(image.Rect(0, 0, width, height))
	if inside.Empty() {
		return detector.Region{}, false
	}
	clipped = region
	clipped.X, clipped.Y = inside.Min.X, inside.Min.Y
	clipped.Width, clipped.Height = inside.Dx(), inside.Dy()
	return clipped, true
}

// cropRegion cuts region out of the image at sourcePath and encodes it
// as PNG.
func cropRegion(sourcePath string, region detector.Region) (encoded []byte, err error) {
	original, err := imaging.Open(sourcePath)
	if err != nil {
		return nil, err
	}

	cropped := imaging.Crop(original, region.Rectangle())
	if cropped.Bounds().Empty() {
		return nil, fmt.Errorf("region %+v is outside the image", region)
	}

	var buf bytes.Buffer
	err = imaging.Encode(&buf, cropped, imaging.PNG)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func saveCrop(destinationPath string, encoded []byte) (e *xerr.Error) {
	writeErr := os.WriteFile(destinationPath, encoded, 0o644)
	if writeErr != nil {
		e = xerr.NewError(writeErr, "save crop", destinationPath)
	}
	return e
}
