package storage

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/erp/woosync/internal/infrastructure/config"
)

func testStorageConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Bucket:       "test-bucket",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		Endpoint:     "http://localhost:9000",
		UsePathStyle: true,
	}
}

func TestNewS3ImageStore_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr string
	}{
		{name: "nil config", cfg: nil, wantErr: "configuration is required"},
		{name: "missing bucket", cfg: &config.StorageConfig{AccessKey: "k", SecretKey: "s"}, wantErr: "bucket is required"},
		{name: "missing access key", cfg: &config.StorageConfig{Bucket: "b", SecretKey: "s"}, wantErr: "access key is required"},
		{name: "missing secret key", cfg: &config.StorageConfig{Bucket: "b", AccessKey: "k"}, wantErr: "secret key is required"},
		{name: "endpoint without scheme", cfg: &config.StorageConfig{Bucket: "b", AccessKey: "k", SecretKey: "s", Endpoint: "localhost:9000"}},
		{name: "ssl endpoint without scheme", cfg: &config.StorageConfig{Bucket: "b", AccessKey: "k", SecretKey: "s", Endpoint: "minio:9000", UseSSL: true}},
		{name: "default endpoint", cfg: &config.StorageConfig{Bucket: "b", AccessKey: "k", SecretKey: "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewS3ImageStore(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 15*time.Minute, store.presignExpiration)
		})
	}
}

func TestS3ImageStore_Options(t *testing.T) {
	store, err := NewS3ImageStore(testStorageConfig(),
		WithLogger(zaptest.NewLogger(t)),
		WithPresignExpiration(time.Hour),
	)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, store.presignExpiration)
	assert.Equal(t, "test-bucket", store.Bucket())
}

func TestS3ImageStore_EmptyKey(t *testing.T) {
	store, err := NewS3ImageStore(testStorageConfig())
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, store.Upload(ctx, "", []byte("x"), "image/png"), ErrStorageKeyRequired)
	assert.ErrorIs(t, store.Delete(ctx, ""), ErrStorageKeyRequired)
	exists, err := store.Exists(ctx, "")
	assert.ErrorIs(t, err, ErrStorageKeyRequired)
	assert.False(t, exists)
	_, _, err = store.DownloadURL(ctx, "")
	assert.ErrorIs(t, err, ErrStorageKeyRequired)
}

func TestS3ImageStore_DownloadURL(t *testing.T) {
	store, err := NewS3ImageStore(testStorageConfig())
	require.NoError(t, err)

	url, expiresAt, err := store.DownloadURL(context.Background(), "images/abc.png")
	require.NoError(t, err)
	assert.True(t, strings.Contains(url, "localhost:9000"))
	assert.True(t, strings.Contains(url, "test-bucket"))
	assert.True(t, strings.Contains(url, "images/abc.png") || strings.Contains(url, "images%2Fabc.png"))
	assert.True(t, expiresAt.After(time.Now()))
}

// Set STORAGE_INTEGRATION_ENDPOINT (e.g. http://localhost:9000) to run against a MinIO or RustFS instance.
func TestS3ImageStore_Integration(t *testing.T) {
	endpoint := os.Getenv("STORAGE_INTEGRATION_ENDPOINT")
	if endpoint == "" {
		t.Skip("STORAGE_INTEGRATION_ENDPOINT not set")
	}
	ctx := context.Background()
	store, err := NewS3ImageStore(&config.StorageConfig{
		Bucket:       "woosync-integration",
		AccessKey:    os.Getenv("STORAGE_INTEGRATION_ACCESS_KEY"),
		SecretKey:    os.Getenv("STORAGE_INTEGRATION_SECRET_KEY"),
		Endpoint:     endpoint,
		UsePathStyle: true,
	}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	require.NoError(t, store.EnsureBucket(ctx))
	require.NoError(t, store.EnsureBucket(ctx))

	key := "images/integration.png"
	require.NoError(t, store.Upload(ctx, key, []byte("png"), "image/png"))
	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete(ctx, key))
	exists, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}
