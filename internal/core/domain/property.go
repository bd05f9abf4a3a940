package domain

// DateValue is the canonical date shape
type DateValue struct {
	Start    string `json:"start"`
	End      string `json:"end,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// FileRef is one entry of a files property
type FileRef struct {
	Name         string `json:"name"`
	ExternalURL  string `json:"externalUrl,omitempty"`
	FileUploadID string `json:"fileUploadId,omitempty"`
}

// PropertyValue is a validated value in the canonical shape for Type.
// Exactly the field matching Type is populated:
//
//	title, rich_text        -> RichText
//	url, email, phone_number -> Text
//	number                  -> Number
//	checkbox                -> Checkbox
//	select, status          -> Options (one entry)
//	multi_select            -> Options
//	date                    -> Date
//	files                   -> Files
type PropertyValue struct {
	Type     PropertyType `json:"type"`
	RichText []RichText   `json:"richText,omitempty"`
	Text     string       `json:"text,omitempty"`
	Number   *float64     `json:"number,omitempty"`
	Checkbox *bool        `json:"checkbox,omitempty"`
	Options  []string     `json:"options,omitempty"`
	Date     *DateValue   `json:"date,omitempty"`
	Files    []FileRef    `json:"files,omitempty"`
}

// PlainText returns the textual content of text-like values
func (v PropertyValue) PlainText() string {
	switch v.Type {
	case PropertyTypeTitle, PropertyTypeRichText:
		return PlainText(v.RichText)
	case PropertyTypeURL, PropertyTypeEmail, PropertyTypePhone:
		return v.Text
	}
	return ""
}

// NormalizedProperties maps schema property names to validated values
type NormalizedProperties map[string]PropertyValue
