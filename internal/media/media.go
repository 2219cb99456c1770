package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

const (
	MaxImageSize = 2 << 20
	Folder       = "blog_api"
)

var (
	ErrTooLarge        = errors.New("image exceeds 2MB")
	ErrUnsupportedType = errors.New("only JPEG, PNG and WEBP images are allowed")
	ErrEmpty           = errors.New("image is empty")
)

var allowed = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

type Image struct {
	PublicID string
	URL      string
	Width    int
	Height   int
}

type Uploader interface {
	Upload(ctx context.Context, data []byte, publicID string) (*Image, error)
	Delete(ctx context.Context, publicID string) error
}

// Check sniffs the payload and returns its MIME type and file extension.
func Check(data []byte) (string, string, error) {
	if len(data) == 0 {
		return "", "", ErrEmpty
	}
	if len(data) > MaxImageSize {
		return "", "", ErrTooLarge
	}
	mt := mimetype.Detect(data)
	for m, ext := range allowed {
		if mt.Is(m) {
			return m, ext, nil
		}
	}
	return "", "", fmt.Errorf("%w: got %s", ErrUnsupportedType, mt.String())
}

func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
