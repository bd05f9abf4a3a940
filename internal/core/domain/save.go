package domain

// SaveOptions are the behavioral flags of a save
type SaveOptions struct {
	// SaveArticle enables page content capture. When false no blocks are written.
	SaveArticle bool `json:"saveArticle"`

	// UseArticle embeds the article text in the property prompt
	UseArticle bool `json:"useArticle"`

	// CustomInstructions are free-form user instructions for the model
	CustomInstructions string `json:"customInstructions,omitempty"`

	// Provider and Model override the configured defaults
	Provider ModelProvider `json:"provider,omitempty"`
	Model    string        `json:"model,omitempty"`

	// MaxImageUploads caps uploads per save; zero means the service default
	MaxImageUploads int `json:"maxImageUploads,omitempty"`

	// Async enqueues the save and returns a job stub
	Async bool `json:"async"`

	// RunID is an optional caller correlation id used for idempotent enqueue
	RunID string `json:"runId,omitempty"`
}

// SaveRequest is one clip-to-record request
type SaveRequest struct {
	CollectionID string      `json:"collectionId"`
	Page         PageContext `json:"page"`
	Options      SaveOptions `json:"options"`
}

// SaveResult describes a completed save
type SaveResult struct {
	PageID      string               `json:"pageId"`
	PageURL     string               `json:"pageUrl"`
	Properties  NormalizedProperties `json:"properties"`
	BlockCount  int                  `json:"blockCount"`
	Diagnostics []ImageDiagnostic    `json:"diagnostics,omitempty"`
	Warnings    []string             `json:"warnings,omitempty"`
}

// ImageDiagnostic explains why an image was not materialized
type ImageDiagnostic struct {
	URL        string `json:"url"`
	Step       string `json:"step"`
	StatusCode int    `json:"statusCode,omitempty"`
	Message    string `json:"message"`
}

// UploadEncoding is the wire encoding of a file upload
type UploadEncoding string

const (
	UploadEncodingFormPost  UploadEncoding = "form_post"
	UploadEncodingMultipart UploadEncoding = "multipart"
	UploadEncodingPut       UploadEncoding = "put"
)

// UploadSlot is an upload target handed out by the destination
type UploadSlot struct {
	ID            string            `json:"id"`
	UploadURL     string            `json:"uploadUrl"`
	UploadMethod  string            `json:"uploadMethod,omitempty"`
	UploadHeaders map[string]string `json:"uploadHeaders,omitempty"`
	UploadFields  map[string]string `json:"uploadFields,omitempty"`
}

// Encoding selects the encoding from the slot shape.
// Form fields mean a pre-signed form POST, a PUT method or signed headers mean a signed-URL PUT,
// anything else is an authenticated multipart POST.
func (s *UploadSlot) Encoding() UploadEncoding {
	switch {
	case len(s.UploadFields) > 0:
		return UploadEncodingFormPost
	case equalFoldTrim(s.UploadMethod, "PUT") || len(s.UploadHeaders) > 0:
		return UploadEncodingPut
	default:
		return UploadEncodingMultipart
	}
}

// UploadPayload is the file content sent to an upload slot
type UploadPayload struct {
	Filename    string
	ContentType string
	Data        []byte
}
