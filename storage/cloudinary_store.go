package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Folders used for uploaded assets.
const (
	FolderThumbnails   = "mentora_thumbnails"
	FolderMaterials    = "mentora_materials"
	FolderAvatars      = "mentora_avatars"
	FolderCertificates = "mentora_certificates"
)

// SignedUpload is what a browser needs for a direct signed upload.
type SignedUpload struct {
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
	APIKey    string `json:"api_key"`
	CloudName string `json:"cloud_name"`
	Folder    string `json:"folder"`
}

type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	secret string
	now    func() time.Time
}

func NewCloudinaryStore(cloudinaryURL string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("initializing cloudinary: %w", err)
	}
	parsedURL, err := url.Parse(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("parsing cloudinary url: %w", err)
	}
	secret, _ := parsedURL.User.Password()

	return &CloudinaryStore{cld: cld, secret: secret, now: time.Now}, nil
}

// Upload stores r under folder/publicID. raw is used for non-media files
// such as PDFs.
func (s *CloudinaryStore) Upload(ctx context.Context, r io.Reader, folder, publicID string, raw bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	params := uploader.UploadParams{
		Folder:   folder,
		PublicID: publicID,
	}
	if raw {
		params.ResourceType = "raw"
	}

	result, err := s.cld.Upload.Upload(ctx, r, params)
	if err != nil {
		return "", fmt.Errorf("uploading %s/%s: %w", folder, publicID, err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("uploading %s/%s: %s", folder, publicID, result.Error.Message)
	}
	return result.SecureURL, nil
}

// SignUpload creates a signature for a frontend upload into folder.
func (s *CloudinaryStore) SignUpload(folder string) (SignedUpload, error) {
	paramsToSign, err := api.StructToParams(uploader.UploadParams{Folder: folder})
	if err != nil {
		return SignedUpload{}, fmt.Errorf("preparing signature params: %w", err)
	}

	timestamp := s.now().Unix()
	paramsToSign.Set("timestamp", strconv.FormatInt(timestamp, 10))

	signature, err := api.SignParameters(paramsToSign, s.secret)
	if err != nil {
		return SignedUpload{}, fmt.Errorf("signing upload params: %w", err)
	}

	return SignedUpload{
		Signature: signature,
		Timestamp: timestamp,
		APIKey:    s.cld.Config.Cloud.APIKey,
		CloudName: s.cld.Config.Cloud.CloudName,
		Folder:    folder,
	}, nil
}
