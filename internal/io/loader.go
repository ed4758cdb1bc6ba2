// Image file loading and saving for tree sources
package io

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrUnreadable        = errors.New("failed to load image")
)

var supportedFormats = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}

// ImageLoader reads and writes image files with OpenCV.
type ImageLoader struct {
	logger logrus.FieldLogger
}

func NewImageLoader(logger logrus.FieldLogger) *ImageLoader {
	return &ImageLoader{
		logger: logger,
	}
}

// LoadImage reads a colour (BGR) image. The caller owns the returned Mat.
func (il *ImageLoader) LoadImage(path string) (gocv.Mat, error) {
	return il.load(path, gocv.IMReadColor)
}

// LoadImageGrayscale reads a single-channel image.
func (il *ImageLoader) LoadImageGrayscale(path string) (gocv.Mat, error) {
	return il.load(path, gocv.IMReadGrayScale)
}

func (il *ImageLoader) load(path string, flags gocv.IMReadFlag) (gocv.Mat, error) {
	il.logger.WithField("filepath", path).Debug("Loading image")

	if !IsSupportedFormat(path) {
		return gocv.NewMat(), fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedFormat, path, strings.Join(SupportedFormats(), ", "))
	}

	mat := gocv.IMRead(path, flags)
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("%w: %s", ErrUnreadable, path)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Info("Image loaded successfully")

	return mat, nil
}

func (il *ImageLoader) SaveImage(mat gocv.Mat, path string) error {
	il.logger.WithField("filepath", path).Debug("Saving image")

	if mat.Empty() {
		return fmt.Errorf("cannot save empty image")
	}
	if !IsSupportedFormat(path) {
		return fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedFormat, path, strings.Join(SupportedFormats(), ", "))
	}
	if !gocv.IMWrite(path, mat) {
		return fmt.Errorf("failed to save image: %s", path)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Info("Image saved successfully")
	return nil
}

// IsSupportedFormat checks the file extension against the formats OpenCV is
// built with by default.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

// SupportedFormats names the accepted formats for messages and flag help.
func SupportedFormats() []string {
	return []string{"JPEG", "PNG", "TIFF", "BMP"}
}
