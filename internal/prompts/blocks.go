package prompts

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

const transformSystemPrompt = `You rewrite the content blocks of a saved web page according to the user's instructions.
Reply with a JSON array of blocks and nothing else. Each block is either
{"type": "paragraph"|"heading_1"|"heading_2"|"heading_3"|"bulleted_list_item"|"numbered_list_item"|"quote", "text": "..."}
or {"type": "image", "url": "...", "caption": "..."}.
Keep image URLs exactly as given. Do not add content that is not supported by the input blocks.`

const repairPrompt = `Your previous reply could not be parsed. Reply again with ONLY a JSON array of block objects as described.
No prose, no code fences, no trailing commas. Every element must have a "type" string.`

// flatBlock is the compact block shape exchanged with the model
type flatBlock struct {
	Type    domain.BlockKind `json:"type"`
	Text    string           `json:"text,omitempty"`
	URL     string           `json:"url,omitempty"`
	Caption string           `json:"caption,omitempty"`
}

// BuildBlockTransformPrompt asks the model to rewrite blocks per the custom instructions.
func BuildBlockTransformPrompt(blocks []domain.Block, customInstructions string, page *domain.PageContext) []domain.ChatMessage {
	flat := make([]flatBlock, 0, len(blocks))
	for _, b := range blocks {
		fb := flatBlock{Type: b.Kind}
		if b.Kind == domain.BlockImage && b.Image != nil {
			fb.URL = b.Image.ExternalURL
			fb.Caption = b.Image.Caption
		} else {
			fb.Text = domain.PlainText(b.RichText)
		}
		flat = append(flat, fb)
	}

	var user strings.Builder
	if page != nil {
		fmt.Fprintf(&user, "Page: %s\n", page.URL)
		if t := strings.TrimSpace(page.Title); t != "" {
			fmt.Fprintf(&user, "Title: %s\n", t)
		}
		user.WriteString("\n")
	}
	user.WriteString("Instructions:\n")
	user.WriteString(strings.TrimSpace(customInstructions))
	user.WriteString("\n\nBlocks:\n")
	user.WriteString(mustJSON(flat))

	return []domain.ChatMessage{
		{Role: domain.ChatRoleSystem, Content: transformSystemPrompt},
		{Role: domain.ChatRoleUser, Content: user.String()},
	}
}

// BuildRepairPrompt extends a failed conversation with a stricter instruction.
func BuildRepairPrompt(original []domain.ChatMessage, reply string) []domain.ChatMessage {
	msgs := make([]domain.ChatMessage, 0, len(original)+2)
	msgs = append(msgs, original...)
	msgs = append(msgs,
		domain.ChatMessage{Role: domain.ChatRoleAssistant, Content: domain.Truncate(reply, maxTextSample)},
		domain.ChatMessage{Role: domain.ChatRoleUser, Content: repairPrompt},
	)
	return msgs
}
