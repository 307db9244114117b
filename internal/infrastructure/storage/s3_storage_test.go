package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeops/backend/internal/infrastructure/config"
	"go.uber.org/zap/zaptest"
)

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr string
	}{
		{"nil config", nil, "configuration is required"},
		{"missing bucket", &config.StorageConfig{AccessKey: "k", SecretKey: "s"}, "bucket is required"},
		{"missing keys", &config.StorageConfig{Bucket: "b"}, "access key and secret key"},
		{"bad endpoint", &config.StorageConfig{Bucket: "b", AccessKey: "k", SecretKey: "s", Endpoint: "http://"}, "invalid storage endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3ObjectStorage(ctx, tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in     string
		useSSL bool
		want   string
	}{
		{"", false, "http://localhost:9000"},
		{"minio:9000", false, "http://minio:9000"},
		{"s3.amazonaws.com", true, "https://s3.amazonaws.com"},
		{"https://storage.example.com", false, "https://storage.example.com"},
	}
	for _, tt := range tests {
		got, err := normalizeEndpoint(tt.in, tt.useSSL)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestS3ObjectStorage_GenerateDownloadURL(t *testing.T) {
	s, err := NewS3ObjectStorage(context.Background(), &config.StorageConfig{
		Endpoint:     "minio:9000",
		Bucket:       "goods-payments",
		AccessKey:    "access",
		SecretKey:    "secret",
		UsePathStyle: true,
	}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	assert.Equal(t, "goods-payments", s.Bucket())

	before := time.Now()
	u, expiresAt, err := s.GenerateDownloadURL(context.Background(), "goods-payments/t/s/p.json", 0)
	require.NoError(t, err)
	assert.Contains(t, u, "http://minio:9000/goods-payments/goods-payments/t/s/p.json")
	assert.Contains(t, u, "X-Amz-Signature=")
	assert.WithinDuration(t, before.Add(15*time.Minute), expiresAt, time.Minute)

	_, _, err = s.GenerateDownloadURL(context.Background(), "", time.Minute)
	assert.Error(t, err)
}

func TestMemoryObjectStorage(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryObjectStorage("")

	payload := []byte(`{"paymentAmount":"100.00"}`)
	require.NoError(t, m.Upload(ctx, "t/s/p.json", payload, "application/json"))
	payload[0] = 'X'

	data, contentType, ok := m.Object("t/s/p.json")
	require.True(t, ok)
	assert.Equal(t, `{"paymentAmount":"100.00"}`, string(data))
	assert.Equal(t, "application/json", contentType)

	u, _, err := m.GenerateDownloadURL(ctx, "t/s/p.json", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "memory://snapshots/t%2Fs%2Fp.json", u)

	_, _, err = m.GenerateDownloadURL(ctx, "missing", time.Minute)
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.Error(t, m.Upload(ctx, "", nil, ""))
}
