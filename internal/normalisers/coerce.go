package normalisers

import (
	"encoding/json"
	"math"
	"net/mail"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

const (
	maxOptionNameLength = 100
	maxFileNameLength   = 100
	maxPhoneLength      = 50
)

// TextCoercer handles title and rich_text.
type TextCoercer struct{}

func (c *TextCoercer) SupportedTypes() []domain.PropertyType {
	return []domain.PropertyType{domain.PropertyTypeTitle, domain.PropertyTypeRichText}
}

func (c *TextCoercer) Coerce(prop *domain.SimplifiedProperty, value any) (domain.PropertyValue, bool) {
	runs := RichText(value)
	if strings.TrimSpace(domain.PlainText(runs)) == "" {
		return domain.PropertyValue{}, false
	}
	return domain.PropertyValue{Type: prop.Type, RichText: runs}, true
}

// NumberCoercer accepts numbers and numeric strings ("1,234.5", " 42 ").
type NumberCoercer struct{}

func (c *NumberCoercer) SupportedTypes() []domain.PropertyType {
	return []domain.PropertyType{domain.PropertyTypeNumber}
}

func (c *NumberCoercer) Coerce(prop *domain.SimplifiedProperty, value any) (domain.PropertyValue, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return domain.PropertyValue{}, false
		}
		f = parsed
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		cleaned = strings.TrimSuffix(cleaned, "%")
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return domain.PropertyValue{}, false
		}
		f = parsed
	default:
		return domain.PropertyValue{}, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return domain.PropertyValue{}, false
	}
	return domain.PropertyValue{Type: prop.Type, Number: &f}, true
}

// CheckboxCoercer accepts booleans, common yes/no strings and numbers.
type CheckboxCoercer struct{}

func (c *CheckboxCoercer) SupportedTypes() []domain.PropertyType {
	return []domain.PropertyType{domain.PropertyTypeCheckbox}
}

func (c *CheckboxCoercer) Coerce(prop *domain.SimplifiedProperty, value any) (domain.PropertyValue, bool) {
	var b bool
	switch v := value.(type) {
	case bool:
		b = v
	case float64:
		b = v != 0
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return domain.PropertyValue{}, false
		}
		b = f != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "1", "checked", "on", "x":
			b = true
		case "false", "no", "n", "0", "unchecked", "off", "":
			b = false
		default:
			return domain.PropertyValue{}, false
		}
	default:
		return domain.PropertyValue{}, false
	}
	return domain.PropertyValue{Type: prop.Type, Checkbox: &b}, true
}

// URLCoercer accepts absolute http(s) URLs.
type URLCoercer struct{}

func (c *URLCoercer) SupportedTypes() []domain.PropertyType {
	return []domain.PropertyType{domain.PropertyTypeURL}
}

func (c *URLCoercer) Coerce(prop *domain.SimplifiedProperty, value any) (domain.PropertyValue, bool) {
	s := stringOf(value, "url", "href")
	if !isHTTPURL(s) {
		return domain.PropertyValue{}, false
	}
	return domain.PropertyValue{Type: prop.Type, Text: strings.TrimSpace(s)}, true
}

// EmailCoercer accepts a single RFC 5322 address and keeps the bare address.
type EmailCoercer struct{}

func (c *EmailCoercer) SupportedTypes() []domain.PropertyType {
	return []domain.PropertyType{domain.PropertyTypeEmail}
}

func (c *EmailCoercer) Coerce(prop *domain.SimplifiedProperty, value any) (domain.PropertyValue, bool) {
	s := strings.TrimSpace(stringOf(value, "email", "address"))
	s = strings.TrimPrefix(s, "mailto:")
	if s == "" {
		return domain.PropertyValue{}, false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return domain.PropertyValue{}, false
	}
	return domain.PropertyValue{Type: prop.Type, Text: addr.Address}, true
}

// PhoneCoercer accepts strings and numbers containing at least one digit.
type PhoneCoercer struct{}

func (c *PhoneCoercer) SupportedTypes() []domain.PropertyType {
	return []domain.PropertyType{domain.PropertyTypePhone}
}

func (c *PhoneCoercer) Coerce(prop *domain.SimplifiedProperty, value any) (domain.PropertyValue, bool) {
	var s string
	switch v := value.(type) {
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		s = v.String()
	default:
		s = strings.TrimSpace(stringOf(value, "phone", "phone_number", "number"))
	}
	s = strings.TrimPrefix(s, "tel:")
	if s == "" || len(s) > maxPhoneLength || !strings.ContainsFunc(s, unicode.IsDigit) {
		return domain.PropertyValue{}, false
	}
	return domain.PropertyValue{Type: prop.Type, Text: s}, true
}

// SelectCoercer handles select and status.
// Names are matched case-insensitively onto existing options. Unknown select names are kept for
// option reconciliation; unknown status names are dropped since status options cannot be created.
type SelectCoercer struct{}

func (c *SelectCoercer) SupportedTypes() []domain.PropertyType {
	return []domain.PropertyType{domain.PropertyTypeSelect, domain.PropertyTypeStatus}
}

func (c *SelectCoercer) Coerce(prop *domain.SimplifiedProperty, value any) (domain.PropertyValue, bool) {
	if arr, ok := value.([]any); ok {
		if len(arr) == 0 {
			return domain.PropertyValue{}, false
		}
		value = arr[0]
	}
	name, ok := optionName(value)
	if !ok {
		return domain.PropertyValue{}, false
	}
	if canonical, found := prop.HasOption(name); found {
		name = canonical
	} else if prop.Type == domain.PropertyTypeStatus {
		return domain.PropertyValue{}, false
	}
	return domain.PropertyValue{Type: prop.Type, Options: []string{name}}, true
}

// MultiSelectCoercer accepts arrays of names or a comma-separated string.
type MultiSelectCoercer struct{}

func (c *MultiSelectCoercer) SupportedTypes() []domain.PropertyType {
	return []domain.PropertyType{domain.PropertyTypeMultiSelect}
}

func (c *MultiSelectCoercer) Coerce(prop *domain.SimplifiedProperty, value any) (domain.PropertyValue, bool) {
	var items []any
	switch v := value.(type) {
	case []any:
		items = v
	case string:
		for _, part := range strings.Split(v, ",") {
			items = append(items, part)
		}
	default:
		items = []any{v}
	}

	seen := make(map[string]bool)
	var names []string
	for _, item := range items {
		name, ok := optionName(item)
		if !ok {
			continue
		}
		if canonical, found := prop.HasOption(name); found {
			name = canonical
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	if len(names) == 0 {
		return domain.PropertyValue{}, false
	}
	return domain.PropertyValue{Type: prop.Type, Options: names}, true
}

// DateCoercer accepts ISO-like date strings and {start, end, time_zone} objects.
type DateCoercer struct{}

func (c *DateCoercer) SupportedTypes() []domain.PropertyType {
	return []domain.PropertyType{domain.PropertyTypeDate}
}

func (c *DateCoercer) Coerce(prop *domain.SimplifiedProperty, value any) (domain.PropertyValue, bool) {
	var start, end, tz string
	switch v := value.(type) {
	case string:
		start = v
	case map[string]any:
		start, _ = v["start"].(string)
		end, _ = v["end"].(string)
		tz, _ = v["time_zone"].(string)
		if tz == "" {
			tz, _ = v["timeZone"].(string)
		}
	default:
		return domain.PropertyValue{}, false
	}

	startNorm, ok := ParseDate(start)
	if !ok {
		return domain.PropertyValue{}, false
	}
	date := &domain.DateValue{Start: startNorm}
	if endNorm, ok := ParseDate(end); ok {
		date.End = endNorm
	}
	if tz != "" {
		if _, err := time.LoadLocation(tz); err == nil {
			date.TimeZone = tz
		}
	}
	return domain.PropertyValue{Type: prop.Type, Date: date}, true
}

// dateOnlyLayouts yield a YYYY-MM-DD value, dateTimeLayouts an RFC 3339 value.
var (
	dateOnlyLayouts = []string{
		"2006-01-02",
		"2006/01/02",
		"January 2, 2006",
		"Jan 2, 2006",
		"2 January 2006",
		"2 Jan 2006",
		"Monday, January 2, 2006",
	}
	dateTimeLayouts = []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		time.RFC1123,
		time.RFC1123Z,
	}
)

// ParseDate normalizes s to YYYY-MM-DD or RFC 3339.
func ParseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateOnlyLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.RFC3339), true
		}
	}
	return "", false
}

// FilesCoercer accepts URLs, {url, name}, {external:{url}} and {file_upload:{id}} entries.
type FilesCoercer struct{}

func (c *FilesCoercer) SupportedTypes() []domain.PropertyType {
	return []domain.PropertyType{domain.PropertyTypeFiles}
}

func (c *FilesCoercer) Coerce(prop *domain.SimplifiedProperty, value any) (domain.PropertyValue, bool) {
	items, ok := value.([]any)
	if !ok {
		items = []any{value}
	}

	var files []domain.FileRef
	seen := make(map[string]bool)
	for _, item := range items {
		ref, ok := fileRef(item)
		if !ok {
			continue
		}
		key := ref.ExternalURL + "|" + ref.FileUploadID
		if seen[key] {
			continue
		}
		seen[key] = true
		files = append(files, ref)
	}
	if len(files) == 0 {
		return domain.PropertyValue{}, false
	}
	return domain.PropertyValue{Type: prop.Type, Files: files}, true
}

func fileRef(item any) (domain.FileRef, bool) {
	var ref domain.FileRef
	switch v := item.(type) {
	case string:
		ref.ExternalURL = strings.TrimSpace(v)
	case map[string]any:
		ref.Name, _ = v["name"].(string)
		if ext, ok := v["external"].(map[string]any); ok {
			ref.ExternalURL, _ = ext["url"].(string)
		} else if up, ok := v["file_upload"].(map[string]any); ok {
			ref.FileUploadID, _ = up["id"].(string)
		} else {
			ref.ExternalURL = stringOf(v, "url", "src", "href")
		}
	default:
		return ref, false
	}

	if ref.FileUploadID == "" {
		if !isHTTPURL(ref.ExternalURL) {
			return ref, false
		}
		ref.ExternalURL = strings.TrimSpace(ref.ExternalURL)
	}
	ref.Name = strings.TrimSpace(ref.Name)
	if ref.Name == "" {
		ref.Name = nameFromURL(ref.ExternalURL)
	}
	if ref.Name == "" {
		ref.Name = "file"
	}
	ref.Name = domain.Truncate(ref.Name, maxFileNameLength)
	return ref, true
}

// optionName extracts and cleans a select option name.
// Commas are not allowed in option names and are removed.
func optionName(value any) (string, bool) {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		s = v.String()
	case bool:
		s = strconv.FormatBool(v)
	case map[string]any:
		s, _ = v["name"].(string)
	default:
		return "", false
	}
	s = strings.ReplaceAll(s, ",", " ")
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "", false
	}
	return domain.Truncate(s, maxOptionNameLength), true
}

// stringOf returns value as a string, looking into the given keys when value is an object.
func stringOf(value any, keys ...string) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]any:
		for _, key := range keys {
			if s, ok := v[key].(string); ok {
				return s
			}
		}
	case []any:
		if len(v) > 0 {
			return stringOf(v[0], keys...)
		}
	}
	return ""
}

func isHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsHTTPURL reports whether s is an absolute http(s) URL.
func IsHTTPURL(s string) bool {
	return isHTTPURL(s)
}

func nameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	return base
}
