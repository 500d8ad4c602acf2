package visual

import (
	"fmt"
	"net/http"
	"strings"
)

const DefaultMaxImageBytes = 5 * 1024 * 1024

var ocrMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// PreScreenImage sniffs the content type of image bytes and checks size limits, returning an error describing why the image should not be sent for extraction.
func PreScreenImage(data []byte, maxBytes int) (string, error) {
	if len(data) == 0 {
		ocrPreScreenSkip.WithLabelValues("empty").Inc()
		return "", fmt.Errorf("empty image")
	}
	if maxBytes > 0 && len(data) > maxBytes {
		ocrPreScreenSkip.WithLabelValues("size").Inc()
		return "", fmt.Errorf("image too large: %d bytes", len(data))
	}
	mimeType, _, _ := strings.Cut(http.DetectContentType(data), ";")
	if !ocrMimeTypes[mimeType] {
		ocrPreScreenSkip.WithLabelValues("mimetype").Inc()
		return "", fmt.Errorf("unsupported image type: %s", mimeType)
	}
	return mimeType, nil
}
