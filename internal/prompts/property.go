// Package prompts builds the chat messages sent to the model.
// Every builder is pure and deterministic for identical inputs.
package prompts

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

// Projection limits for page context
const (
	maxTextSample   = 4000
	maxArticleText  = 12000
	maxSelection    = 2000
	maxListEntries  = 30
	maxPromptImages = 20
)

const propertySystemPrompt = `You fill in the properties of a new record in a structured collection from a captured web page.
Reply with a single JSON object and nothing else, shaped as:
{"properties": {"<property name>": <value>, ...}, "children": [<optional content blocks>]}

Rules:
- Only use property names from the schema. Never include read-only properties.
- The title property is mandatory. Never use a placeholder title such as "", "Untitled", "New Page", "No title" or "Home".
- Omit any property you cannot fill from the page. Do not invent values.
- Values by type: title/rich_text are strings; number is a number; checkbox is true or false;
  url/email/phone_number are strings; date is "YYYY-MM-DD" or an ISO 8601 datetime;
  select/status are one option name; multi_select is an array of option names;
  files is an array of image URLs.
- Properties marked imageLike should be filled from the best content image on the page, never from icons or logos.`

const strictOptionsRule = `- select, multi_select and status values must exactly match an existing option name listed in the schema.`

const openOptionsRule = `- select and multi_select values should match existing option names. The user allows new option names when nothing existing fits. status values must match an existing option.`

const childrenRule = `- "children" is optional. When included it is an array of blocks of the form {"type": "paragraph"|"heading_1"|"heading_2"|"heading_3"|"bulleted_list_item"|"numbered_list_item"|"quote", "text": "..."} or {"type": "image", "url": "...", "caption": "..."}.`

// newOptionPattern matches instructions that permit creating option names
var newOptionPattern = regexp.MustCompile(`(?i)\b(new|create|add|invent)\b[^.\n]{0,40}\b(options?|tags?|categor(y|ies)|labels?)\b`)

// AllowsNewOptions reports whether the custom instructions permit new select option names.
func AllowsNewOptions(customInstructions string) bool {
	return newOptionPattern.MatchString(customInstructions)
}

// schemaProperty is the projection of one property shown to the model
type schemaProperty struct {
	Type        domain.PropertyType `json:"type"`
	Description string              `json:"description,omitempty"`
	Options     []string            `json:"options,omitempty"`
	Format      string              `json:"format,omitempty"`
	ImageLike   bool                `json:"imageLike,omitempty"`
	Title       bool                `json:"isTitle,omitempty"`
}

// pageProjection is the projection of the captured page shown to the model
type pageProjection struct {
	URL           string            `json:"url"`
	Title         string            `json:"title,omitempty"`
	Meta          map[string]string `json:"meta,omitempty"`
	SelectionText string            `json:"selectionText,omitempty"`
	TextSample    string            `json:"textSample,omitempty"`
	Headings      []string          `json:"headings,omitempty"`
	ListItems     []string          `json:"listItems,omitempty"`
	Images        []imageProjection `json:"images,omitempty"`
	ArticleTitle  string            `json:"articleTitle,omitempty"`
	ArticleText   string            `json:"articleText,omitempty"`
}

type imageProjection struct {
	URL            string `json:"url"`
	Alt            string `json:"alt,omitempty"`
	NearestHeading string `json:"nearestHeading,omitempty"`
	Size           string `json:"size,omitempty"`
}

// BuildPropertyPrompt returns the system and user messages asking the model for property values.
func BuildPropertyPrompt(schema *domain.SimplifiedSchema, page *domain.PageContext, customInstructions string, useArticle bool) []domain.ChatMessage {
	var sys strings.Builder
	sys.WriteString(propertySystemPrompt)
	sys.WriteString("\n")
	if AllowsNewOptions(customInstructions) {
		sys.WriteString(openOptionsRule)
	} else {
		sys.WriteString(strictOptionsRule)
	}
	sys.WriteString("\n")
	sys.WriteString(childrenRule)

	var user strings.Builder
	user.WriteString("Collection schema:\n")
	user.WriteString(mustJSON(projectSchema(schema)))
	user.WriteString("\n\nCaptured page:\n")
	user.WriteString(mustJSON(projectPage(page, useArticle)))

	if hints := imageHintNames(schema); len(hints) > 0 {
		fmt.Fprintf(&user, "\n\nImage properties to fill from the best content image: %s", strings.Join(hints, ", "))
	}
	if ci := strings.TrimSpace(customInstructions); ci != "" {
		user.WriteString("\n\nUser instructions (follow them unless they break the rules above):\n")
		user.WriteString(ci)
	}

	return []domain.ChatMessage{
		{Role: domain.ChatRoleSystem, Content: sys.String()},
		{Role: domain.ChatRoleUser, Content: user.String()},
	}
}

func projectSchema(schema *domain.SimplifiedSchema) map[string]schemaProperty {
	out := make(map[string]schemaProperty)
	if schema == nil {
		return out
	}
	for name, p := range schema.Properties {
		if !p.Writable {
			continue
		}
		sp := schemaProperty{
			Type:        p.Type,
			Description: p.Description,
			Format:      p.Format,
			ImageLike:   p.ImageLike,
			Title:       name == schema.TitleProperty,
		}
		if len(p.Options) > 0 {
			sp.Options = append([]string(nil), p.Options...)
			sort.Strings(sp.Options)
		}
		out[name] = sp
	}
	return out
}

func projectPage(page *domain.PageContext, useArticle bool) pageProjection {
	if page == nil {
		return pageProjection{}
	}
	p := pageProjection{
		URL:           page.URL,
		Title:         strings.TrimSpace(page.Title),
		Meta:          page.Meta,
		SelectionText: domain.Truncate(strings.TrimSpace(page.SelectionText), maxSelection),
		TextSample:    domain.Truncate(strings.TrimSpace(page.TextSample), maxTextSample),
		Headings:      head(page.Headings, maxListEntries),
		ListItems:     head(page.ListItems, maxListEntries),
	}
	for i, img := range page.Images {
		if i == maxPromptImages {
			break
		}
		ip := imageProjection{URL: img.URL, Alt: img.Alt, NearestHeading: img.NearestHeading}
		if img.Width > 0 && img.Height > 0 {
			ip.Size = fmt.Sprintf("%dx%d", img.Width, img.Height)
		}
		p.Images = append(p.Images, ip)
	}
	if useArticle && page.Article != nil {
		p.ArticleTitle = strings.TrimSpace(page.Article.Title)
		p.ArticleText = domain.Truncate(strings.TrimSpace(page.Article.Text), maxArticleText)
	}
	return p
}

func imageHintNames(schema *domain.SimplifiedSchema) []string {
	if schema == nil {
		return nil
	}
	var names []string
	for name, p := range schema.Properties {
		if p.ImageLike && p.Writable {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func head(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

// mustJSON marshals values that are always encodable. Map keys come out sorted.
func mustJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
