package validation

import (
	"errors"
	"fmt"
	"net/http"
)

// ImageExtensions maps accepted proof image types to the extension used in storage paths.
var ImageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

var ErrEmptyImage = errors.New("image is required")

// ValidateImage checks size and sniffs the real content type from the
// magic numbers. The declared Content-Type of the upload is never trusted.
func ValidateImage(data []byte, maxSize int64) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}

	if maxSize > 0 && int64(len(data)) > maxSize {
		maxMB := maxSize / (1 << 20)
		return "", fmt.Errorf("image too large: maximum size is %d MB", maxMB)
	}

	// http.DetectContentType reads max 512 bytes
	detected := http.DetectContentType(data)
	if _, ok := ImageExtensions[detected]; !ok {
		return "", fmt.Errorf("invalid image type (detected: %s)", detected)
	}

	return detected, nil
}
