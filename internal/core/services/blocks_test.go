package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven/mocks"
)

func contentInput(page *domain.PageContext, instructions string, model *mocks.MockChatModel) BlockInput {
	in := BlockInput{
		Page:    page,
		Options: domain.SaveOptions{SaveArticle: true, CustomInstructions: instructions},
		Knobs:   domain.DefaultModelKnobs(),
	}
	if model != nil {
		in.Model = model
	}
	return in
}

func TestBlockBuilder_NoContentRequested(t *testing.T) {
	b := NewBlockBuilder(BlockBuilderConfig{})
	in := contentInput(&domain.PageContext{URL: "https://x.test/p", ArticleBlocks: articleBlocks(3)}, "", nil)
	in.Options.SaveArticle = false
	in.Suggested = []map[string]any{{"type": "paragraph", "text": "ignored"}}

	blocks, stage := b.Build(context.Background(), in)
	assert.Empty(t, blocks)
	assert.Equal(t, BlockStageNoContent, stage)
}

func TestBlockBuilder_DeterministicFromArticleBlocks(t *testing.T) {
	b := NewBlockBuilder(BlockBuilderConfig{})
	page := &domain.PageContext{
		URL: "https://x.test/p",
		ArticleBlocks: []json.RawMessage{
			json.RawMessage(`{"type":"heading_1","heading_1":{"rich_text":[{"text":{"content":"Intro"}}]}}`),
			json.RawMessage(`{"type":"table","text":"dropped"}`),
			json.RawMessage(`{"type":"image","image":{}}`),
			json.RawMessage(`{"type":"paragraph","text":"Body"}`),
		},
	}

	blocks, stage := b.Build(context.Background(), contentInput(page, "", nil))
	assert.Equal(t, BlockStageDeterministic, stage)
	assert.Equal(t, []string{"Intro", "Body"}, blockTexts(blocks))
}

func TestBlockBuilder_DeterministicFromArticleHTML(t *testing.T) {
	b := NewBlockBuilder(BlockBuilderConfig{})
	page := &domain.PageContext{
		URL:     "https://x.test/p",
		Article: &domain.Article{HTML: `<h2>Part</h2><p>One</p><img src="/a.png">`},
	}

	blocks, stage := b.Build(context.Background(), contentInput(page, "", nil))
	assert.Equal(t, BlockStageDeterministic, stage)
	assert.Equal(t, []string{"Part", "One", "image:https://x.test/a.png"}, blockTexts(blocks))
}

func TestBlockBuilder_ModelTransform(t *testing.T) {
	model := mocks.NewMockChatModel(`[{"type":"bulleted_list_item","text":"Key point"}]`)
	b := NewBlockBuilder(BlockBuilderConfig{})
	page := &domain.PageContext{URL: "https://x.test/p", ArticleBlocks: articleBlocks(3)}

	blocks, stage := b.Build(context.Background(), contentInput(page, "Summarize as bullets", model))
	assert.Equal(t, BlockStageModelTransformed, stage)
	require.Len(t, blocks, 1)
	assert.Equal(t, domain.BlockBulletedListItem, blocks[0].Kind)
	assert.Equal(t, 1, model.CallCount())
}

func TestBlockBuilder_ModelTransformRepairedOnce(t *testing.T) {
	model := mocks.NewMockChatModel("Sure! Here you go.", "```json\n{\"children\":[{\"type\":\"quote\",\"text\":\"Q\"}]}\n```")
	b := NewBlockBuilder(BlockBuilderConfig{})
	page := &domain.PageContext{URL: "https://x.test/p", ArticleBlocks: articleBlocks(2)}

	blocks, stage := b.Build(context.Background(), contentInput(page, "Quote it", model))
	assert.Equal(t, BlockStageModelTransformed, stage)
	assert.Equal(t, 2, model.CallCount())
	assert.Equal(t, []string{"Q"}, blockTexts(blocks))

	repair := model.Calls[1]
	require.Len(t, repair, 4)
	assert.Equal(t, domain.ChatRoleAssistant, repair[2].Role)
}

func TestBlockBuilder_ModelTransformFailsToFallback(t *testing.T) {
	model := mocks.NewMockChatModel("nope", "still nope")
	b := NewBlockBuilder(BlockBuilderConfig{})
	page := &domain.PageContext{
		URL:           "https://x.test/p",
		ArticleBlocks: articleBlocks(2),
		TextSample:    "  A   short   sample  ",
		Images: []domain.PageImage{
			{URL: "https://x.test/small.png", Width: 10, Height: 10},
			{URL: "data:image/png;base64,AAA", Width: 900, Height: 900},
			{URL: "https://x.test/big.png", Width: 800, Height: 600},
		},
	}

	blocks, stage := b.Build(context.Background(), contentInput(page, "Rewrite", model))
	assert.Equal(t, BlockStageFallback, stage)
	assert.Equal(t, 2, model.CallCount(), "exactly one repair attempt")
	assert.Equal(t, []string{
		"image:https://x.test/big.png",
		"image:https://x.test/small.png",
		"A short sample",
	}, blockTexts(blocks))
}

func TestBlockBuilder_ModelErrorFallsBack(t *testing.T) {
	model := mocks.NewMockChatModel()
	model.ChatFn = func(messages []domain.ChatMessage) (*domain.ChatResult, error) {
		return nil, errors.New("upstream 529")
	}
	b := NewBlockBuilder(BlockBuilderConfig{})
	page := &domain.PageContext{URL: "https://x.test/p", ArticleBlocks: articleBlocks(2)}

	blocks, stage := b.Build(context.Background(), contentInput(page, "Rewrite", model))
	assert.Equal(t, BlockStageFallback, stage)
	assert.Equal(t, []string{"Saved from https://x.test/p"}, blockTexts(blocks))
}

func TestBlockBuilder_FallbackPrefersRationale(t *testing.T) {
	b := NewBlockBuilder(BlockBuilderConfig{FallbackImages: 1})
	in := contentInput(&domain.PageContext{
		URL:           "https://x.test/p",
		SelectionText: "selected",
		Images: []domain.PageImage{
			{URL: "https://x.test/1.png"},
			{URL: "https://x.test/2.png"},
		},
	}, "", nil)
	in.Rationale = "A recipe for bread."

	blocks, stage := b.Build(context.Background(), in)
	assert.Equal(t, BlockStageFallback, stage)
	assert.Equal(t, []string{"image:https://x.test/1.png", "A recipe for bread."}, blockTexts(blocks))
}
