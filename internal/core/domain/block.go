package domain

// BlockKind is the tag of a content block
type BlockKind string

const (
	BlockParagraph        BlockKind = "paragraph"
	BlockHeading1         BlockKind = "heading_1"
	BlockHeading2         BlockKind = "heading_2"
	BlockHeading3         BlockKind = "heading_3"
	BlockBulletedListItem BlockKind = "bulleted_list_item"
	BlockNumberedListItem BlockKind = "numbered_list_item"
	BlockQuote            BlockKind = "quote"
	BlockImage            BlockKind = "image"
)

// allowedBlockKinds is the allow-list of kinds written to the destination
var allowedBlockKinds = map[BlockKind]bool{
	BlockParagraph:        true,
	BlockHeading1:         true,
	BlockHeading2:         true,
	BlockHeading3:         true,
	BlockBulletedListItem: true,
	BlockNumberedListItem: true,
	BlockQuote:            true,
	BlockImage:            true,
}

// IsAllowed reports whether the kind is on the allow-list
func (k BlockKind) IsAllowed() bool {
	return allowedBlockKinds[k]
}

// Destination write limits
const (
	MaxBlocksPerRequest = 100
	MaxRichTextRuns     = 20
	MaxRichTextLength   = 2000
)

// RichText is one plain-text run
type RichText struct {
	Content string `json:"content"`
	Link    string `json:"link,omitempty"`
}

// PlainText joins the run contents
func PlainText(runs []RichText) string {
	var n int
	for _, r := range runs {
		n += len(r.Content)
	}
	b := make([]byte, 0, n)
	for _, r := range runs {
		b = append(b, r.Content...)
	}
	return string(b)
}

// ImageRef points at an image either by external URL or by an uploaded file id
type ImageRef struct {
	ExternalURL  string `json:"externalUrl,omitempty"`
	FileUploadID string `json:"fileUploadId,omitempty"`
	Caption      string `json:"caption,omitempty"`
}

// IsUploaded reports whether the image lives in destination storage
func (r *ImageRef) IsUploaded() bool {
	return r != nil && r.FileUploadID != ""
}

// Block is one unit of page content. Text kinds carry RichText, image carries Image.
type Block struct {
	Kind     BlockKind  `json:"type"`
	RichText []RichText `json:"richText,omitempty"`
	Image    *ImageRef  `json:"image,omitempty"`
}

// NewTextBlock builds a text block with a single run
func NewTextBlock(kind BlockKind, text string) Block {
	return Block{Kind: kind, RichText: []RichText{{Content: text}}}
}

// NewImageBlock builds an external image block
func NewImageBlock(url string) Block {
	return Block{Kind: BlockImage, Image: &ImageRef{ExternalURL: url}}
}
