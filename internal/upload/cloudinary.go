package upload

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStore uploads blobs to Cloudinary under the generated key as
// the public ID. The upload response already carries the public URL, so the
// reference handed back is the secure URL itself.
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStore(cloudURL string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromURL(cloudURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &CloudinaryStore{cld: cld}, nil
}

func (s *CloudinaryStore) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	result, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{PublicID: key})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("cloudinary upload: empty result for %s", key)
	}
	return result.SecureURL, nil
}

func (s *CloudinaryStore) PublicURL(ref string) string {
	return ref
}
