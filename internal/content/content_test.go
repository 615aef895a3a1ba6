package content

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"bulkmart/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homeJSON = `{
  "announcement": "Free shipping on orders above 50 units",
  "banners": [
    {"title": "Office supplies", "image": "/img/office.jpg", "link": "/category/office"},
    {"title": "Packaging", "subtitle": "Cartons and tape", "image": "/img/packaging.jpg"}
  ],
  "featuredCategoryIds": ["office", "packaging"]
}`

func gzipBytes(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestFileLoader_PlainAndGzip(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	tests := []struct {
		name string
		file string
		data []byte
	}{
		{name: "Plain JSON", file: "home.json", data: []byte(homeJSON)},
		{name: "Gzipped JSON", file: "home.json.gz", data: gzipBytes(t, homeJSON)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc, err := loader.Load(context.Background(), writeFile(t, tt.file, tt.data))
			require.NoError(t, err)
			assert.Equal(t, "Free shipping on orders above 50 units", hc.Announcement)
			require.Len(t, hc.Banners, 2)
			assert.Equal(t, "Cartons and tape", hc.Banners[1].Subtitle)
			assert.Equal(t, []string{"office", "packaging"}, hc.FeaturedCategoryIDs)
		})
	}
}

func TestFileLoader_Errors(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	_, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = loader.Load(context.Background(), writeFile(t, "bad.json", []byte("{not json")))
	assert.Error(t, err)

	_, err = loader.Load(context.Background(), writeFile(t, "noimg.json", []byte(`{"banners":[{"title":"x"}]}`)))
	de, ok := model.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "Banner 1 has no image", de.Message)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = loader.Load(ctx, writeFile(t, "home.json", []byte(homeJSON)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidate_EmptyBannersBecomeEmptySlice(t *testing.T) {
	hc := &model.HomeContent{}
	require.NoError(t, Validate(hc))
	assert.NotNil(t, hc.Banners)
}

type fakeS3 struct {
	objects map[string][]byte
	calls   []string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Key)
	f.calls = append(f.calls, aws.ToString(in.Bucket)+"/"+key)
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3Loader_Load(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{"content/home.json.gz": gzipBytes(t, homeJSON)}}
	loader := NewS3LoaderWithClient(client, "bucket", zerolog.Nop())

	hc, err := loader.Load(context.Background(), "content/home.json.gz")
	require.NoError(t, err)
	assert.Len(t, hc.Banners, 2)
	assert.Equal(t, []string{"bucket/content/home.json.gz"}, client.calls)

	_, err = loader.Load(context.Background(), "content/missing.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket=bucket")
}

// stubLoader is a Loader backed by a function.
type stubLoader struct {
	load func(ctx context.Context, path string) (*model.HomeContent, error)
}

func (s *stubLoader) Load(ctx context.Context, path string) (*model.HomeContent, error) {
	return s.load(ctx, path)
}

func TestFallbackLoader(t *testing.T) {
	fromS3 := &model.HomeContent{Announcement: "s3"}
	fromDisk := &model.HomeContent{Announcement: "disk"}

	tests := []struct {
		name      string
		s3        Loader
		s3Enabled bool
		expected  string
	}{
		{
			name: "S3 success",
			s3: &stubLoader{load: func(_ context.Context, path string) (*model.HomeContent, error) {
				assert.Equal(t, "content/home.json", path)
				return fromS3, nil
			}},
			s3Enabled: true,
			expected:  "s3",
		},
		{
			name: "S3 failure falls back",
			s3: &stubLoader{load: func(context.Context, string) (*model.HomeContent, error) {
				return nil, errors.New("access denied")
			}},
			s3Enabled: true,
			expected:  "disk",
		},
		{
			name: "S3 disabled",
			s3: &stubLoader{load: func(context.Context, string) (*model.HomeContent, error) {
				t.Error("S3 loader must not be called when disabled")
				return nil, errors.New("unexpected")
			}},
			expected: "disk",
		},
		{name: "No S3 loader", s3Enabled: true, expected: "disk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			disk := &stubLoader{load: func(_ context.Context, path string) (*model.HomeContent, error) {
				assert.Equal(t, "home.json", path)
				return fromDisk, nil
			}}
			loader := NewFallbackLoader(tt.s3, disk, "content/", tt.s3Enabled, zerolog.Nop())

			hc, err := loader.Load(context.Background(), "home.json")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, hc.Announcement)
		})
	}
}
