package artwork

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // PNG format support
	"sync"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp" // WebP format support
)

const jpegQuality = 90

// Normalizer downsizes oversized artwork so retained MQTT payloads stay small.
// With a zero MaxSize it passes artwork through untouched.
type Normalizer struct {
	logger  *zap.Logger
	maxSize int

	mu       sync.Mutex
	lastIn   []byte
	lastMIME string
	lastOut  []byte
	lastOutM string
}

// NewNormalizer creates a normalizer bounding both dimensions by maxSize pixels
func NewNormalizer(logger *zap.Logger, maxSize int) *Normalizer {
	return &Normalizer{logger: logger, maxSize: maxSize}
}

// Normalize returns the artwork to publish and its MIME type. The last
// result is cached since the helper repeats artwork on every snapshot.
func (n *Normalizer) Normalize(data []byte, mimeType string) ([]byte, string) {
	if n == nil || n.maxSize <= 0 || len(data) == 0 {
		return data, mimeType
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.lastIn != nil && n.lastMIME == mimeType && bytes.Equal(n.lastIn, data) {
		return n.lastOut, n.lastOutM
	}

	out, outMIME, err := n.resize(data, mimeType)
	if err != nil {
		n.logger.Debug("Publishing artwork unmodified", zap.Error(err))
		out, outMIME = data, mimeType
	}

	n.lastIn = data
	n.lastMIME = mimeType
	n.lastOut = out
	n.lastOutM = outMIME
	return out, outMIME
}

func (n *Normalizer) resize(data []byte, mimeType string) ([]byte, string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, "", fmt.Errorf("invalid image dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}
	if bounds.Dx() <= n.maxSize && bounds.Dy() <= n.maxSize {
		return data, mimeType, nil
	}

	resized := imaging.Fit(img, n.maxSize, n.maxSize, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, resized, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("failed to encode result: %w", err)
	}

	n.logger.Debug("Artwork resized",
		zap.Int("fromW", bounds.Dx()), zap.Int("fromH", bounds.Dy()),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), "image/jpeg", nil
}
