package notion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
)

type startUploadRequest struct {
	Mode        string `json:"mode"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

type startUploadResponse struct {
	ID            string            `json:"id"`
	UploadURL     string            `json:"upload_url"`
	UploadMethod  string            `json:"upload_method"`
	UploadHeaders map[string]string `json:"upload_headers"`
	UploadFields  map[string]string `json:"upload_fields"`
}

// StartFileUpload requests a single-part upload slot
func (c *Client) StartFileUpload(ctx context.Context, token, filename, contentType string) (*domain.UploadSlot, error) {
	body := startUploadRequest{Mode: "single_part", Filename: filename, ContentType: contentType}
	var resp startUploadResponse
	if err := c.doRequest(ctx, http.MethodPost, "/file_uploads", token, body, &resp); err != nil {
		return nil, writeError("start file upload", asFetchError(err))
	}
	if resp.ID == "" || resp.UploadURL == "" {
		return nil, writeError("start file upload", errors.New("response carried no upload slot"))
	}
	return &domain.UploadSlot{
		ID:            resp.ID,
		UploadURL:     resp.UploadURL,
		UploadMethod:  resp.UploadMethod,
		UploadHeaders: resp.UploadHeaders,
		UploadFields:  resp.UploadFields,
	}, nil
}

// Upload sends the payload using the encoding the slot shape selects.
// Non-2xx responses are returned as *driven.FetchError.
func (c *Client) Upload(ctx context.Context, token string, slot *domain.UploadSlot, payload *domain.UploadPayload) error {
	if slot == nil || slot.UploadURL == "" {
		return writeError("upload", errors.New("missing upload slot"))
	}

	var (
		req *http.Request
		err error
	)
	switch slot.Encoding() {
	case domain.UploadEncodingFormPost:
		req, err = formPostRequest(ctx, slot, payload)
	case domain.UploadEncodingPut:
		req, err = putRequest(ctx, slot, payload)
	default:
		req, err = multipartRequest(ctx, slot.UploadURL, nil, payload)
		if err == nil {
			c.setHeaders(req, token)
		}
	}
	if err != nil {
		return writeError("upload", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return writeError("upload", domain.RedactTransportError(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return writeError("upload", &driven.FetchError{
			StatusCode: resp.StatusCode,
			Message:    domain.Truncate(strings.TrimSpace(string(body)), maxErrorBody),
		})
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// formPostRequest builds a pre-signed form upload; the signed fields go before the file part
func formPostRequest(ctx context.Context, slot *domain.UploadSlot, payload *domain.UploadPayload) (*http.Request, error) {
	return multipartRequest(ctx, slot.UploadURL, slot.UploadFields, payload)
}

func putRequest(ctx context.Context, slot *domain.UploadSlot, payload *domain.UploadPayload) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, slot.UploadURL, bytes.NewReader(payload.Data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", payload.ContentType)
	for k, v := range slot.UploadHeaders {
		req.Header.Set(k, v)
	}
	return req, nil
}

func multipartRequest(ctx context.Context, target string, fields map[string]string, payload *domain.UploadPayload) (*http.Request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(payload.Filename)))
	h.Set("Content-Type", payload.ContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(payload.Data); err != nil {
		return nil, fmt.Errorf("write file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, nil
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// asFetchError exposes the API status to callers that report per-step diagnostics
func asFetchError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &driven.FetchError{StatusCode: apiErr.StatusCode, Message: apiErr.Message}
	}
	return err
}
