package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clipper-core/internal/adapters/driven/images"
	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven/mocks"
)

func newTestMaterializer() (*ImageMaterializer, *mocks.MockImageFetcher, *mocks.MockDestinationClient) {
	fetcher := mocks.NewMockImageFetcher()
	dest := mocks.NewMockDestinationClient()
	m := NewImageMaterializer(ImageMaterializerConfig{
		Fetcher:     fetcher,
		Destination: dest,
	})
	return m, fetcher, dest
}

func filesProps(urls ...string) domain.NormalizedProperties {
	files := make([]domain.FileRef, 0, len(urls))
	for _, u := range urls {
		files = append(files, domain.FileRef{Name: "f", ExternalURL: u})
	}
	return domain.NormalizedProperties{
		"Poster": {Type: domain.PropertyTypeFiles, Files: files},
	}
}

func TestImageMaterializer_SharedURLUploadedOnce(t *testing.T) {
	m, fetcher, dest := newTestMaterializer()
	fetcher.Serve("https://img.test/a.png", "image/png", []byte("png"))

	props := filesProps("https://img.test/a.png")
	blocks := []domain.Block{domain.NewImageBlock("https://img.test/a.png")}

	out, diags := m.Materialize(context.Background(), testToken, nil, props, blocks, 5, "https://x.test/p")

	assert.Empty(t, diags)
	assert.Len(t, fetcher.Calls, 1)
	assert.Len(t, dest.Uploads, 1)
	assert.Equal(t, "upload-1", props["Poster"].Files[0].FileUploadID)
	require.Len(t, out, 1)
	assert.Equal(t, "upload-1", out[0].Image.FileUploadID)
	assert.Empty(t, out[0].Image.ExternalURL)
}

func TestImageMaterializer_QuotaSharedAcrossPropertiesAndBlocks(t *testing.T) {
	m, fetcher, dest := newTestMaterializer()
	fetcher.Serve("https://img.test/a.png", "image/png", []byte("a"))
	fetcher.Serve("https://img.test/b.png", "image/png", []byte("b"))

	props := filesProps("https://img.test/a.png")
	blocks := []domain.Block{domain.NewImageBlock("https://img.test/b.png")}

	out, diags := m.Materialize(context.Background(), testToken, nil, props, blocks, 1, "")

	assert.Len(t, dest.Uploads, 1)
	require.Len(t, diags, 1)
	assert.Equal(t, "quota", diags[0].Step)
	require.Len(t, out, 1)
	assert.Equal(t, "https://img.test/b.png", out[0].Image.ExternalURL, "over-quota image stays external")
}

func TestImageMaterializer_FetchFailureIsDiagnostic(t *testing.T) {
	m, fetcher, _ := newTestMaterializer()
	fetcher.Fail("https://img.test/secret.png?token=abc#frag", &driven.FetchError{StatusCode: 403, Message: "forbidden"})

	blocks := []domain.Block{
		domain.NewTextBlock(domain.BlockParagraph, "text"),
		domain.NewImageBlock("https://img.test/secret.png?token=abc#frag"),
	}

	out, diags := m.Materialize(context.Background(), testToken, nil, domain.NormalizedProperties{}, blocks, 5, "")

	require.Len(t, diags, 1)
	assert.Equal(t, "fetch", diags[0].Step)
	assert.Equal(t, 403, diags[0].StatusCode)
	assert.Equal(t, "https://img.test/secret.png", diags[0].URL)
	assert.NotContains(t, diags[0].URL, "token")
	assert.Len(t, out, 2, "failed non-restricted image is kept as an external reference")
}

func TestImageMaterializer_TooLarge(t *testing.T) {
	m := NewImageMaterializer(ImageMaterializerConfig{
		Fetcher:     mocks.NewMockImageFetcher(),
		Destination: mocks.NewMockDestinationClient(),
		MaxBytes:    2,
	})
	fetcher := m.fetcher.(*mocks.MockImageFetcher)
	fetcher.Serve("https://img.test/big.png", "image/png", []byte("too big"))

	_, diags := m.Materialize(context.Background(), testToken, nil, filesProps("https://img.test/big.png"), nil, 5, "")

	require.Len(t, diags, 1)
	assert.Equal(t, 413, diags[0].StatusCode)
}

func TestImageMaterializer_RestrictedHostDropped(t *testing.T) {
	m, _, _ := newTestMaterializer()

	blocks := []domain.Block{
		domain.NewImageBlock("https://scontent.cdninstagram.com/v/p.jpg"),
		domain.NewImageBlock("https://img.test/missing.png"),
	}

	out, diags := m.Materialize(context.Background(), testToken, nil, domain.NormalizedProperties{}, blocks, 5, "")

	assert.Len(t, diags, 2)
	require.Len(t, out, 1)
	assert.Equal(t, "https://img.test/missing.png", out[0].Image.ExternalURL)
}

func TestImageMaterializer_UploadSteps(t *testing.T) {
	m, fetcher, dest := newTestMaterializer()
	fetcher.Serve("https://img.test/a.png", "image/png", []byte("a"))
	fetcher.Serve("https://img.test/b.png", "image/png", []byte("b"))

	dest.StartUploadFn = func(filename, contentType string) (*domain.UploadSlot, error) {
		if filename == "a.png" {
			return nil, errors.New("slot refused")
		}
		return &domain.UploadSlot{ID: "slot-b", UploadURL: "https://up.test"}, nil
	}
	dest.UploadFn = func(slot *domain.UploadSlot, payload *domain.UploadPayload) error {
		return &driven.FetchError{StatusCode: 500, Message: "boom"}
	}

	_, diags := m.Materialize(context.Background(), testToken, nil, filesProps("https://img.test/a.png", "https://img.test/b.png"), nil, 5, "")

	require.Len(t, diags, 2)
	assert.Equal(t, "start_upload", diags[0].Step)
	assert.Equal(t, "upload", diags[1].Step)
	assert.Equal(t, 500, diags[1].StatusCode)
}

func TestFilenameFor(t *testing.T) {
	tests := []struct {
		url, contentType, want string
	}{
		{"https://img.test/poster.jpg?x=1", "image/jpeg", "poster.jpg"},
		{"https://img.test/photo", "image/webp", "photo.webp"},
		{"https://img.test/photo.png", "application/octet-stream", "photo.png"},
		{"https://img.test/", "image/png", "image.png"},
		{"https://img.test/pic.jpeg", "image/png", "pic.png"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, filenameFor(tt.url, tt.contentType))
		})
	}
}

func TestImageMaterializer_DiagnosticMessageHidesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := srv.URL + "/a.png?token=SECRET123"
	srv.Close()

	m := NewImageMaterializer(ImageMaterializerConfig{
		Fetcher:     images.NewFetcher(images.Config{}),
		Destination: mocks.NewMockDestinationClient(),
	})
	blocks := []domain.Block{domain.NewImageBlock(target)}

	_, diags := m.Materialize(context.Background(), testToken, nil, domain.NormalizedProperties{}, blocks, 5, "")

	require.Len(t, diags, 1)
	assert.Equal(t, "fetch", diags[0].Step)
	assert.Equal(t, srv.URL+"/a.png", diags[0].URL)
	assert.NotContains(t, diags[0].Message, "SECRET123")
	assert.NotEmpty(t, diags[0].Message)
}

func TestImageMaterializer_UploadErrorMessageHidesQuery(t *testing.T) {
	m, fetcher, dest := newTestMaterializer()
	fetcher.Serve("https://img.test/a.png", "image/png", []byte("png"))
	dest.UploadFn = func(slot *domain.UploadSlot, payload *domain.UploadPayload) error {
		return errors.New(`upload: Put "https://upload.test/slot?X-Amz-Signature=deadbeef": EOF`)
	}

	_, diags := m.Materialize(context.Background(), testToken, nil, domain.NormalizedProperties{},
		[]domain.Block{domain.NewImageBlock("https://img.test/a.png")}, 5, "")

	require.Len(t, diags, 1)
	assert.NotContains(t, diags[0].Message, "deadbeef")
	assert.Contains(t, diags[0].Message, "https://upload.test/slot")
}
