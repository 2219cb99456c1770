package media

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryUploader(cloudName, apiKey, apiSecret string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return &CloudinaryUploader{cld: cld}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, data []byte, publicID string) (*Image, error) {
	res, err := u.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:         Folder,
		PublicID:       publicID,
		ResourceType:   "image",
		AllowedFormats: api.CldAPIArray{"jpg", "png", "webp"},
		Transformation: "q_auto",
		Overwrite:      api.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary: upload: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary: upload: %s", res.Error.Message)
	}
	return &Image{
		PublicID: res.PublicID,
		URL:      res.SecureURL,
		Width:    res.Width,
		Height:   res.Height,
	}, nil
}

func (u *CloudinaryUploader) Delete(ctx context.Context, publicID string) error {
	res, err := u.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("cloudinary: destroy: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary: destroy: %s", res.Error.Message)
	}
	return nil
}
