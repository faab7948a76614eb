package s3

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lytix-Labs/lytix-go/config"
	"github.com/Lytix-Labs/lytix-go/observability/logger"
	"github.com/Lytix-Labs/lytix-go/observability/metrics"
	"github.com/Lytix-Labs/lytix-go/storage/types"
)

type fakeAPI struct {
	putInput     *s3.PutObjectInput
	putBody      string
	putErr       error
	headErr      error
	headBucket   error
	createInput  *s3.CreateBucketInput
	createErr    error
	createCalled bool
}

func (f *fakeAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putInput = in
	if in.Body != nil {
		b, _ := io.ReadAll(in.Body)
		f.putBody = string(b)
	}
	return &s3.PutObjectOutput{}, f.putErr
}

func (f *fakeAPI) HeadObject(_ context.Context, _ *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return &s3.HeadObjectOutput{}, f.headErr
}

func (f *fakeAPI) HeadBucket(_ context.Context, _ *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headBucket
}

func (f *fakeAPI) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.createCalled = true
	f.createInput = in
	return &s3.CreateBucketOutput{}, f.createErr
}

func newTestClient(api API, cfg config.S3Config) *Client {
	return NewClientWithAPI(api, cfg, logger.New("s3", "test", "error", io.Discard, nil), metrics.Noop{})
}

func TestClient_Put(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(api, config.S3Config{Region: "us-east-2", Bucket: "videos"})

	err := c.Put(context.Background(), "", "a.mp4", strings.NewReader("data"), types.ObjectMetadata{
		ContentType:   "video/mp4",
		ContentLength: 4,
	})
	require.NoError(t, err)

	require.NotNil(t, api.putInput)
	assert.Equal(t, "videos", aws.ToString(api.putInput.Bucket))
	assert.Equal(t, "a.mp4", aws.ToString(api.putInput.Key))
	assert.Equal(t, "video/mp4", aws.ToString(api.putInput.ContentType))
	assert.Equal(t, int64(4), aws.ToInt64(api.putInput.ContentLength))
	assert.Equal(t, "data", api.putBody)
}

func TestClient_PutError(t *testing.T) {
	api := &fakeAPI{putErr: errors.New("denied")}
	c := newTestClient(api, config.S3Config{Bucket: "videos"})

	err := c.Put(context.Background(), "other", "a.mp4", strings.NewReader("x"), types.ObjectMetadata{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
	assert.Equal(t, "other", aws.ToString(api.putInput.Bucket))
}

func TestClient_Exists(t *testing.T) {
	tests := []struct {
		name    string
		headErr error
		want    bool
		wantErr bool
	}{
		{name: "present", want: true},
		{name: "missing", headErr: &s3types.NotFound{}, want: false},
		{name: "no such key", headErr: &s3types.NoSuchKey{}, want: false},
		{name: "other failure", headErr: errors.New("boom"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(&fakeAPI{headErr: tt.headErr}, config.S3Config{Bucket: "b"})

			got, err := c.Exists(context.Background(), "", "k")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_EnsureBucket(t *testing.T) {
	tests := []struct {
		name        string
		region      string
		headBucket  error
		createErr   error
		wantCreate  bool
		wantErr     bool
		wantLocated bool
	}{
		{name: "exists", headBucket: nil},
		{name: "created", region: "us-east-2", headBucket: &s3types.NotFound{}, wantCreate: true, wantLocated: true},
		{name: "created in us-east-1", region: "us-east-1", headBucket: &s3types.NotFound{}, wantCreate: true},
		{name: "lost race", region: "us-east-2", headBucket: &s3types.NoSuchBucket{}, createErr: &s3types.BucketAlreadyOwnedByYou{}, wantCreate: true, wantLocated: true},
		{name: "create fails", headBucket: &s3types.NotFound{}, createErr: errors.New("denied"), wantCreate: true, wantErr: true},
		{name: "head fails", headBucket: errors.New("network"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{headBucket: tt.headBucket, createErr: tt.createErr}
			c := newTestClient(api, config.S3Config{Region: tt.region, Bucket: "videos"})

			err := c.EnsureBucket(context.Background(), "")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, tt.wantCreate, api.createCalled)
			if tt.wantCreate {
				assert.Equal(t, "videos", aws.ToString(api.createInput.Bucket))
				assert.Equal(t, tt.wantLocated, api.createInput.CreateBucketConfiguration != nil)
			}
		})
	}
}

func TestClient_ObjectURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.S3Config
		key  string
		want string
	}{
		{
			name: "aws",
			cfg:  config.S3Config{Region: "us-east-2", Bucket: "videos"},
			key:  "id-clip.mp4",
			want: "https://videos.s3.us-east-2.amazonaws.com/id-clip.mp4",
		},
		{
			name: "default region",
			cfg:  config.S3Config{Bucket: "videos"},
			key:  "clip.mp4",
			want: "https://videos.s3.us-east-1.amazonaws.com/clip.mp4",
		},
		{
			name: "custom endpoint",
			cfg:  config.S3Config{Bucket: "videos", Endpoint: "http://localhost:9000/"},
			key:  "clip.mp4",
			want: "http://localhost:9000/videos/clip.mp4",
		},
		{
			name: "escaped key",
			cfg:  config.S3Config{Region: "eu-west-1", Bucket: "videos"},
			key:  "my clip.mp4",
			want: "https://videos.s3.eu-west-1.amazonaws.com/my%20clip.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(&fakeAPI{}, tt.cfg)
			assert.Equal(t, tt.want, c.ObjectURL("", tt.key))
		})
	}
}

func TestNewClient_CustomEndpoint(t *testing.T) {
	cfg := config.DefaultStorageConfig()
	cfg.S3.AccessKeyID = "key"
	cfg.S3.SecretAccessKey = "secret"
	cfg.S3.Endpoint = "http://localhost:9000"

	c, err := NewClient(cfg, logger.New("s3", "test", "error", io.Discard, nil), metrics.Noop{})
	require.NoError(t, err)
	assert.Equal(t, cfg.S3.Bucket, c.Bucket())
	assert.Equal(t, "http://localhost:9000/"+cfg.S3.Bucket+"/k", c.ObjectURL("", "k"))
}

func writeCABundle(t *testing.T) string {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "lytix test ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	return path
}

func TestNewClient_CustomCABundle(t *testing.T) {
	t.Setenv("AWS_CA_BUNDLE", writeCABundle(t))

	cfg := config.DefaultStorageConfig()
	cfg.S3.AccessKeyID = "key"
	cfg.S3.SecretAccessKey = "secret"
	cfg.S3.Endpoint = "http://localhost:9000"
	cfg.Timeout = 5 * time.Second

	c, err := NewClient(cfg, logger.New("s3", "test", "error", io.Discard, nil), metrics.Noop{})
	require.NoError(t, err)
	assert.Equal(t, cfg.S3.Bucket, c.Bucket())
}
