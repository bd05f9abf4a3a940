package domain

import "encoding/json"

// PageContext is the page capture sent by the browser. It is read-only input.
type PageContext struct {
	URL           string            `json:"url"`
	Title         string            `json:"title"`
	Meta          map[string]string `json:"meta,omitempty"`
	SelectionText string            `json:"selectionText,omitempty"`
	TextSample    string            `json:"textSample,omitempty"`
	Headings      []string          `json:"headings,omitempty"`
	ListItems     []string          `json:"listItems,omitempty"`
	Images        []PageImage       `json:"images,omitempty"`
	Article       *Article          `json:"article,omitempty"`
	ArticleBlocks []json.RawMessage `json:"articleBlocks,omitempty"`
}

// PageImage is one image found on the captured page
type PageImage struct {
	URL            string `json:"url"`
	Alt            string `json:"alt,omitempty"`
	NearestHeading string `json:"nearestHeading,omitempty"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
}

// Area returns the rendered pixel area, zero when unknown
func (i PageImage) Area() int {
	return i.Width * i.Height
}

// Article is the readable-article extraction of the page
type Article struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	HTML  string `json:"html,omitempty"`
}

// metaTitleKeys are checked in order when the page title is unusable
var metaTitleKeys = []string{"og:title", "twitter:title", "title", "dc.title"}

// MetaTitle returns the first non-empty title-like meta value
func (p *PageContext) MetaTitle() string {
	for _, key := range metaTitleKeys {
		for k, v := range p.Meta {
			if equalFoldTrim(k, key) && trimmed(v) != "" {
				return trimmed(v)
			}
		}
	}
	return ""
}
