package cloudinary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const deliveryHost = "https://res.cloudinary.com"

// Service uploads report images to Cloudinary
type Service struct {
	cld       *cloudinary.Cloudinary
	cloudName string
}

// NewService creates a new Cloudinary service instance
func NewService(cloudName, apiKey, apiSecret string) (*Service, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, errors.New("cloudinary credentials are required")
	}

	// Build Cloudinary URL
	cloudinaryURL := fmt.Sprintf("cloudinary://%s:%s@%s", apiKey, apiSecret, cloudName)

	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary client: %w", err)
	}

	return &Service{
		cld:       cld,
		cloudName: cloudName,
	}, nil
}

// Upload stores data under key and returns the public id Cloudinary assigned
func (s *Service) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	overwrite := false
	uploadParams := uploader.UploadParams{
		PublicID:     PublicID(key),
		ResourceType: "image",
		Overwrite:    &overwrite,
	}

	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploadParams)
	if err != nil {
		return "", err
	}
	if result.Error.Message != "" {
		return "", errors.New(result.Error.Message)
	}

	return result.PublicID, nil
}

// PublicURL builds the delivery URL of an uploaded image
func (s *Service) PublicURL(storedKey string) string {
	return fmt.Sprintf("%s/%s/image/upload/%s", deliveryHost, s.cloudName, strings.TrimPrefix(storedKey, "/"))
}

// PublicID strips the extension from an object key. Cloudinary appends the format itself.
func PublicID(key string) string {
	ext := path.Ext(key)
	return strings.TrimSuffix(key, ext)
}
