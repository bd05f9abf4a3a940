package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
)

// Image limits
const (
	MaxImageBytes          int64 = 20 << 20
	DefaultMaxImageUploads       = 8
	maxFilenameLength            = 100
)

// Diagnostic steps
const (
	stepQuota  = "quota"
	stepFetch  = "fetch"
	stepStart  = "start_upload"
	stepUpload = "upload"
)

// defaultRestrictedHosts block hotlinking, so external references to them render broken
var defaultRestrictedHosts = []string{
	"cdninstagram.com",
	"fbcdn.net",
	"licdn.com",
	"pximg.net",
	"tiktokcdn.com",
}

// contentTypeExtensions maps image content types to file extensions
var contentTypeExtensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/avif":    ".avif",
	"image/bmp":     ".bmp",
	"image/tiff":    ".tif",
	"image/x-icon":  ".ico",
}

// ImageMaterializer re-hosts external images in destination file storage.
type ImageMaterializer struct {
	fetcher         driven.ImageFetcher
	destination     driven.DestinationClient
	metrics         driven.Metrics
	logger          *slog.Logger
	maxBytes        int64
	maxUploads      int
	restrictedHosts []string
}

// ImageMaterializerConfig holds dependencies for ImageMaterializer.
type ImageMaterializerConfig struct {
	Fetcher         driven.ImageFetcher
	Destination     driven.DestinationClient
	Metrics         driven.Metrics
	Logger          *slog.Logger
	MaxBytes        int64    // default: 20 MiB
	MaxUploads      int      // default per save when the request sets none
	RestrictedHosts []string // default: hosts known to block hotlinking
}

// NewImageMaterializer creates a new image materializer.
func NewImageMaterializer(cfg ImageMaterializerConfig) *ImageMaterializer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	m := &ImageMaterializer{
		fetcher:         cfg.Fetcher,
		destination:     cfg.Destination,
		metrics:         metrics,
		logger:          logger,
		maxBytes:        cfg.MaxBytes,
		maxUploads:      cfg.MaxUploads,
		restrictedHosts: cfg.RestrictedHosts,
	}
	if m.maxBytes <= 0 {
		m.maxBytes = MaxImageBytes
	}
	if m.maxUploads <= 0 {
		m.maxUploads = DefaultMaxImageUploads
	}
	if m.restrictedHosts == nil {
		m.restrictedHosts = defaultRestrictedHosts
	}
	return m
}

// uploadOutcome is the cached result for one external URL
type uploadOutcome struct {
	id string
	ok bool
}

// materializeRun is the state of one Materialize call. The quota is shared by properties and blocks.
type materializeRun struct {
	m           *ImageMaterializer
	token       string
	referer     string
	maxUploads  int
	used        int
	outcomes    map[string]uploadOutcome
	diagnostics []domain.ImageDiagnostic
}

// Materialize uploads external images referenced by files properties and image blocks.
// props are rewritten in place. The returned blocks reference uploads where they succeeded;
// image blocks still pointing at a restricted host are dropped. Failures become diagnostics.
func (m *ImageMaterializer) Materialize(ctx context.Context, token string, schema *domain.SimplifiedSchema, props domain.NormalizedProperties, blocks []domain.Block, maxUploads int, referer string) ([]domain.Block, []domain.ImageDiagnostic) {
	if maxUploads <= 0 {
		maxUploads = m.maxUploads
	}
	run := &materializeRun{
		m:          m,
		token:      token,
		referer:    referer,
		maxUploads: maxUploads,
		outcomes:   make(map[string]uploadOutcome),
	}

	names := make([]string, 0, len(props))
	for name, value := range props {
		if value.Type == domain.PropertyTypeFiles {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		value := props[name]
		files := make([]domain.FileRef, len(value.Files))
		copy(files, value.Files)
		for i, f := range files {
			if f.FileUploadID != "" || f.ExternalURL == "" {
				continue
			}
			if id, ok := run.upload(ctx, f.ExternalURL); ok {
				files[i].FileUploadID = id
				files[i].ExternalURL = ""
			}
		}
		value.Files = files
		props[name] = value
	}

	out := make([]domain.Block, 0, len(blocks))
	for _, b := range blocks {
		if b.Kind != domain.BlockImage || b.Image == nil || b.Image.IsUploaded() || b.Image.ExternalURL == "" {
			out = append(out, b)
			continue
		}
		if id, ok := run.upload(ctx, b.Image.ExternalURL); ok {
			b.Image = &domain.ImageRef{FileUploadID: id, Caption: b.Image.Caption}
			out = append(out, b)
			continue
		}
		if m.isRestricted(b.Image.ExternalURL) {
			m.logger.Debug("dropping hotlink-restricted image", "url", domain.RedactURL(b.Image.ExternalURL))
			continue
		}
		out = append(out, b)
	}

	return out, run.diagnostics
}

// upload materializes one URL once per run.
func (r *materializeRun) upload(ctx context.Context, rawURL string) (string, bool) {
	if o, ok := r.outcomes[rawURL]; ok {
		return o.id, o.ok
	}
	id, ok := r.doUpload(ctx, rawURL)
	r.outcomes[rawURL] = uploadOutcome{id: id, ok: ok}
	return id, ok
}

func (r *materializeRun) doUpload(ctx context.Context, rawURL string) (string, bool) {
	m := r.m
	if r.used >= r.maxUploads {
		m.metrics.ImageUpload("skipped")
		r.fail(rawURL, stepQuota, 0, fmt.Sprintf("upload quota of %d reached", r.maxUploads))
		return "", false
	}
	r.used++

	img, err := m.fetcher.Fetch(ctx, rawURL, r.referer, m.maxBytes)
	if err != nil {
		m.metrics.ImageUpload("failed")
		r.fail(rawURL, stepFetch, statusOf(err), err.Error())
		return "", false
	}

	contentType := strings.TrimSpace(strings.SplitN(img.ContentType, ";", 2)[0])
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	filename := filenameFor(rawURL, contentType)

	slot, err := m.destination.StartFileUpload(ctx, r.token, filename, contentType)
	if err != nil {
		m.metrics.ImageUpload("failed")
		r.fail(rawURL, stepStart, statusOf(err), err.Error())
		return "", false
	}

	payload := &domain.UploadPayload{Filename: filename, ContentType: contentType, Data: img.Data}
	if err := m.destination.Upload(ctx, r.token, slot, payload); err != nil {
		m.metrics.ImageUpload("failed")
		r.fail(rawURL, stepUpload, statusOf(err), err.Error())
		return "", false
	}

	m.metrics.ImageUpload("ok")
	return slot.ID, true
}

func (r *materializeRun) fail(rawURL, step string, status int, message string) {
	d := domain.ImageDiagnostic{
		URL:        domain.RedactURL(rawURL),
		Step:       step,
		StatusCode: status,
		Message:    domain.Truncate(domain.ScrubURLs(message), 300),
	}
	r.m.logger.Info("image not materialized", "url", d.URL, "step", step, "status", status, "error", d.Message)
	r.diagnostics = append(r.diagnostics, d)
}

func (m *ImageMaterializer) isRestricted(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range m.restrictedHosts {
		h = strings.ToLower(h)
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func statusOf(err error) int {
	var fe *driven.FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	if errors.Is(err, domain.ErrFileTooLarge) {
		return 413
	}
	return 0
}

// filenameFor derives an upload filename from the URL path and the content type.
func filenameFor(rawURL, contentType string) string {
	base := "image"
	var urlExt string
	if u, err := url.Parse(rawURL); err == nil {
		if seg := path.Base(u.Path); seg != "" && seg != "/" && seg != "." {
			urlExt = path.Ext(seg)
			if name := strings.TrimSuffix(seg, urlExt); name != "" {
				base = name
			}
		}
	}

	ext, ok := contentTypeExtensions[strings.ToLower(contentType)]
	if !ok {
		ext = strings.ToLower(urlExt)
	}
	base = domain.Truncate(base, maxFilenameLength-len(ext))
	return base + ext
}
