package ports

import "context"

// Capturer produces an image artifact for a live stream. Capture
// either writes a file at destPath and returns nil, or returns an
// error describing the failure. The context carries the hard timeout.
type Capturer interface {
	Capture(ctx context.Context, streamURL, destPath string) error
	// EncodeThumbnail re-encodes a captured image downscaled to the
	// given width and returns the raw encoded bytes.
	EncodeThumbnail(ctx context.Context, imagePath string, width int) ([]byte, error)
}
