// Package capture implements the capture contract by shelling out to
// ffmpeg: one frame is grabbed from the live stream URL and written to
// the destination path.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	apperrors "kickpulse/pkg/errors"

	"go.uber.org/zap"
)

// FFmpeg invokes an ffmpeg binary for frame grabs and thumbnail
// re-encodes.
type FFmpeg struct {
	binary string
	logger *zap.SugaredLogger
}

// NewFFmpeg resolves the ffmpeg binary, looking it up on $PATH when no
// explicit path is given.
func NewFFmpeg(binaryPath string, logger *zap.SugaredLogger) (*FFmpeg, error) {
	if binaryPath == "" {
		found, err := exec.LookPath("ffmpeg")
		if err != nil {
			return nil, apperrors.WrapError(err, apperrors.ErrCodeCapture, "ffmpeg not found on PATH")
		}
		binaryPath = found
	}
	return &FFmpeg{binary: binaryPath, logger: logger}, nil
}

// Capture grabs one 480p-scaled frame from the stream and writes it to
// destPath. The context deadline is the hard timeout; on expiry the
// ffmpeg process is killed and an error returned.
func (f *FFmpeg) Capture(ctx context.Context, streamURL, destPath string) error {
	cmd := exec.CommandContext(ctx, f.binary,
		"-y",
		"-loglevel", "error",
		"-i", streamURL,
		"-frames:v", "1",
		"-vf", "scale=-2:480",
		destPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return apperrors.WrapError(ctx.Err(), apperrors.ErrCodeCapture, "capture timed out")
		}
		return apperrors.WrapError(err, apperrors.ErrCodeCapture,
			fmt.Sprintf("ffmpeg failed: %s", firstLine(stderr.String())))
	}
	f.logger.Debugw("captured frame", "dest", destPath)
	return nil
}

// EncodeThumbnail re-encodes a captured image downscaled to the given
// width, returning the mjpeg bytes from ffmpeg's stdout.
func (f *FFmpeg) EncodeThumbnail(ctx context.Context, imagePath string, width int) ([]byte, error) {
	cmd := exec.CommandContext(ctx, f.binary,
		"-loglevel", "error",
		"-i", imagePath,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-2", width),
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.WrapError(ctx.Err(), apperrors.ErrCodeCapture, "thumbnail encode timed out")
		}
		return nil, apperrors.WrapError(err, apperrors.ErrCodeCapture,
			fmt.Sprintf("ffmpeg failed: %s", firstLine(stderr.String())))
	}
	if stdout.Len() == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrCodeCapture, "ffmpeg produced no thumbnail output")
	}
	return stdout.Bytes(), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	if s == "" {
		return "no output"
	}
	return s
}
