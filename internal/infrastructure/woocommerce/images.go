package woocommerce

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/disintegration/imaging"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/erp/woosync/internal/domain/woosync"
)

// ErrImageDownloadFailed indicates a remote image could not be fetched or decoded
var ErrImageDownloadFailed = errors.New("woocommerce: image download failed")

// Ensure ImageFetcher implements woosync.ImageFetcher
var _ woosync.ImageFetcher = (*ImageFetcher)(nil)

// ImageStore persists image bytes under a storage key
type ImageStore interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	Exists(ctx context.Context, storageKey string) (bool, error)
}

// ImageFetcher downloads remote images, re-encodes them as PNG and uploads them to object storage
type ImageFetcher struct {
	http    *resty.Client
	store   ImageStore
	maxSize int64
	logger  *zap.Logger
}

// NewImageFetcher creates an image fetcher bounded by the adapter's image timeout
func NewImageFetcher(config *Config, store ImageStore, logger *zap.Logger) *ImageFetcher {
	if config == nil {
		config = NewConfig()
	}
	_ = config.Validate()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageFetcher{
		http: resty.New().
			SetTimeout(config.ImageTimeout).
			SetHeader("User-Agent", config.UserAgent),
		store:   store,
		maxSize: config.MaxResponseSize,
		logger:  logger,
	}
}

// Fetch downloads src and stores it under images/{sha256}.png
func (f *ImageFetcher) Fetch(ctx context.Context, src string) (*woosync.StoredImage, error) {
	if src == "" {
		return nil, fmt.Errorf("%w: empty source", ErrImageDownloadFailed)
	}

	resp, err := f.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDownloadFailed, err)
	}
	raw := resp.RawBody()
	if raw == nil {
		return nil, fmt.Errorf("%w: empty body", ErrImageDownloadFailed)
	}
	defer raw.Close()

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrImageDownloadFailed, resp.StatusCode())
	}

	data, err := io.ReadAll(io.LimitReader(raw, f.maxSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDownloadFailed, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrImageDownloadFailed, err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrImageDownloadFailed, err)
	}
	png := buf.Bytes()

	sum := sha256.Sum256(png)
	key := "images/" + hex.EncodeToString(sum[:]) + ".png"
	// Keys are content addressed, an existing object already holds these bytes
	exists, err := f.store.Exists(ctx, key)
	if err != nil {
		f.logger.Warn("Image existence check failed", zap.String("key", key), zap.Error(err))
	}
	if !exists {
		if err := f.store.Upload(ctx, key, png, "image/png"); err != nil {
			return nil, fmt.Errorf("%w: upload: %v", ErrImageDownloadFailed, err)
		}
		f.logger.Debug("Stored remote image", zap.String("src", src), zap.String("key", key))
	}

	return &woosync.StoredImage{
		Key:    key,
		Name:   imageName(src),
		Base64: base64.StdEncoding.EncodeToString(png),
	}, nil
}

func imageName(src string) string {
	u, err := url.Parse(src)
	if err != nil || u.Path == "" {
		return src
	}
	return path.Base(u.Path)
}
