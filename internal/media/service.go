package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	maxUploadBytes = 10 << 20
	thumbWidth     = 320
)

// Uploader abstracts the object store for tests.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
	PresignURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Image is the upload result; only URL is persisted on messages.
type Image struct {
	Key          string    `json:"key"`
	URL          string    `json:"url"`
	ThumbnailKey string    `json:"thumbnail_key,omitempty"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

type Service struct {
	store      Uploader
	presignTTL time.Duration
}

func NewService(store Uploader, presignTTL time.Duration) *Service {
	return &Service{store: store, presignTTL: presignTTL}
}

// UploadImage stores the original plus a JPEG thumbnail and returns the
// public or presigned URL for embedding in a message.
func (s *Service) UploadImage(ctx context.Context, userID, filename, contentType string, data []byte) (*Image, error) {
	if len(data) == 0 || int64(len(data)) > maxUploadBytes {
		return nil, fmt.Errorf("image must be between 1 byte and %d bytes", maxUploadBytes)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}

	key := userID + "/" + uuid.NewString() + "_" + filename
	url, err := s.store.Upload(ctx, key, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	img := &Image{
		Key:         key,
		URL:         url,
		Size:        int64(len(data)),
		ContentType: contentType,
		UploadedAt:  time.Now().UTC(),
	}

	if thumb, err := makeThumbnail(data); err == nil {
		thumbKey := key + "_thumb.jpg"
		if _, err := s.store.Upload(ctx, thumbKey, "image/jpeg", thumb); err == nil {
			img.ThumbnailKey = thumbKey
		}
	}

	if img.URL == "" {
		signed, err := s.store.PresignURL(ctx, key, s.presignTTL)
		if err != nil {
			return nil, fmt.Errorf("presign image: %w", err)
		}
		img.URL = signed
	}
	return img, nil
}

func makeThumbnail(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	thumb := imaging.Resize(src, thumbWidth, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
