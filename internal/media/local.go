package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalUploader stores images on disk. The directory is served under BaseURL.
type LocalUploader struct {
	Dir     string
	BaseURL string
}

func NewLocalUploader(dir, baseURL string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}
	return &LocalUploader{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (u *LocalUploader) Upload(ctx context.Context, data []byte, publicID string) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, ext, err := Check(data)
	if err != nil {
		return nil, err
	}
	w, h, err := Dimensions(data)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(publicID) + "." + ext
	if err := os.WriteFile(filepath.Join(u.Dir, name), data, 0o644); err != nil {
		return nil, fmt.Errorf("write image: %w", err)
	}
	return &Image{
		PublicID: Folder + "/" + name,
		URL:      u.BaseURL + "/" + name,
		Width:    w,
		Height:   h,
	}, nil
}

// Delete removes the stored file. Unknown ids are ignored.
func (u *LocalUploader) Delete(_ context.Context, publicID string) error {
	err := os.Remove(filepath.Join(u.Dir, filepath.Base(publicID)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
