package postprocessors

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

// contentSelectors are the elements converted to blocks, visited in document order
const contentSelectors = "p, h1, h2, h3, h4, h5, h6, li, blockquote, figure, img"

// nonContentSelectors lists elements to strip before conversion
const nonContentSelectors = "script, style, noscript, nav, header, footer, form, iframe"

// HTMLToBlocks converts article HTML into blocks.
// Relative image sources resolve against baseURL.
func HTMLToBlocks(html, baseURL string) ([]domain.Block, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	doc.Find(nonContentSelectors).Remove()

	base, _ := url.Parse(baseURL)
	var blocks []domain.Block

	doc.Find(contentSelectors).Each(func(_ int, s *goquery.Selection) {
		tag := goquery.NodeName(s)

		switch tag {
		case "img":
			// images inside a figure are emitted with the figure
			if s.ParentsFiltered("figure").Length() > 0 {
				return
			}
			if b, ok := imageBlock(s, base, ""); ok {
				blocks = append(blocks, b)
			}
			return
		case "figure":
			img := s.Find("img").First()
			if img.Length() == 0 {
				return
			}
			caption := collapse(s.Find("figcaption").First().Text())
			if b, ok := imageBlock(img, base, caption); ok {
				blocks = append(blocks, b)
			}
			return
		}

		// text inside a list item or quote belongs to that container
		if tag == "p" && s.ParentsFiltered("li, blockquote").Length() > 0 {
			return
		}
		if tag != "li" && tag != "blockquote" && s.ParentsFiltered("blockquote").Length() > 0 {
			return
		}

		text := ownText(s)
		if text == "" {
			return
		}
		blocks = append(blocks, domain.NewTextBlock(textKind(tag, s), text))
	})

	return blocks, nil
}

func textKind(tag string, s *goquery.Selection) domain.BlockKind {
	switch tag {
	case "h1":
		return domain.BlockHeading1
	case "h2":
		return domain.BlockHeading2
	case "h3", "h4", "h5", "h6":
		return domain.BlockHeading3
	case "blockquote":
		return domain.BlockQuote
	case "li":
		if s.Parent().Is("ol") {
			return domain.BlockNumberedListItem
		}
		return domain.BlockBulletedListItem
	}
	return domain.BlockParagraph
}

// ownText returns the element text without nested lists.
func ownText(s *goquery.Selection) string {
	if goquery.NodeName(s) != "li" {
		return collapse(s.Text())
	}
	c := s.Clone()
	c.Find("ul, ol").Remove()
	return collapse(c.Text())
}

func imageBlock(img *goquery.Selection, base *url.URL, caption string) (domain.Block, bool) {
	src := strings.TrimSpace(img.AttrOr("src", ""))
	if src == "" || strings.HasPrefix(src, "data:") {
		src = strings.TrimSpace(img.AttrOr("data-src", ""))
	}
	if src == "" {
		return domain.Block{}, false
	}
	ref, err := url.Parse(src)
	if err != nil {
		return domain.Block{}, false
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return domain.Block{}, false
	}
	if caption == "" {
		caption = collapse(img.AttrOr("alt", ""))
	}
	b := domain.NewImageBlock(ref.String())
	b.Image.Caption = caption
	return b, true
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
