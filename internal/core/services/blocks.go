package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
	"github.com/custodia-labs/clipper-core/internal/extract"
	"github.com/custodia-labs/clipper-core/internal/normalisers"
	"github.com/custodia-labs/clipper-core/internal/postprocessors"
	"github.com/custodia-labs/clipper-core/internal/prompts"
)

// BlockStage names the stage that produced a page's content
type BlockStage string

const (
	BlockStageNoContent        BlockStage = "no_content"
	BlockStageDeterministic    BlockStage = "deterministic"
	BlockStageModelTransformed BlockStage = "model_transformed"
	BlockStageModelSuggested   BlockStage = "model_suggested"
	BlockStageFallback         BlockStage = "fallback"
)

// Fallback content limits
const (
	defaultFallbackImages = 5
	fallbackExcerptLength = 500
)

// BlockBuilder turns page content into a bounded block sequence.
//
// Stages run in order: nothing when content capture is off, then the deterministic blocks
// (client article blocks or converted article HTML), optionally rewritten by the model when
// custom instructions are set, then model-suggested children, then the fallback of content
// images plus one paragraph. Content failures never fail the save.
type BlockBuilder struct {
	pipeline       driven.BlockPipeline
	metrics        driven.Metrics
	logger         *slog.Logger
	fallbackImages int
}

// BlockBuilderConfig holds dependencies for BlockBuilder.
type BlockBuilderConfig struct {
	Pipeline       driven.BlockPipeline // default: postprocessors.DefaultPipeline()
	Metrics        driven.Metrics
	Logger         *slog.Logger
	FallbackImages int // default: 5
}

// NewBlockBuilder creates a new block builder.
func NewBlockBuilder(cfg BlockBuilderConfig) *BlockBuilder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pipeline := cfg.Pipeline
	if pipeline == nil {
		pipeline = postprocessors.DefaultPipeline()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	fallbackImages := cfg.FallbackImages
	if fallbackImages <= 0 {
		fallbackImages = defaultFallbackImages
	}
	return &BlockBuilder{
		pipeline:       pipeline,
		metrics:        metrics,
		logger:         logger,
		fallbackImages: fallbackImages,
	}
}

// BlockInput is everything the builder may draw content from
type BlockInput struct {
	Page    *domain.PageContext
	Options domain.SaveOptions

	// Suggested are the children proposed by the property-mapping reply
	Suggested []map[string]any

	// Rationale is free text from the property-mapping reply used by the fallback paragraph
	Rationale string

	// Model rewrites deterministic blocks when custom instructions are set. Optional.
	Model driven.ChatModel
	Knobs domain.ModelKnobs
}

// Build returns the sanitized blocks and the stage that produced them.
func (b *BlockBuilder) Build(ctx context.Context, in BlockInput) ([]domain.Block, BlockStage) {
	if !in.Options.SaveArticle || in.Page == nil {
		return nil, BlockStageNoContent
	}

	deterministic := b.deterministic(in.Page)

	if len(deterministic) > 0 {
		if strings.TrimSpace(in.Options.CustomInstructions) == "" || in.Model == nil {
			return deterministic, BlockStageDeterministic
		}
		if transformed, ok := b.transform(ctx, deterministic, in); ok {
			return transformed, BlockStageModelTransformed
		}
		return b.fallback(in), BlockStageFallback
	}

	if len(in.Suggested) > 0 {
		if suggested := b.pipeline.Process(postprocessors.DecodeBlocks(in.Suggested)); len(suggested) > 0 {
			return suggested, BlockStageModelSuggested
		}
	}

	return b.fallback(in), BlockStageFallback
}

// deterministic converts client article blocks, or the article HTML when no blocks were sent.
func (b *BlockBuilder) deterministic(page *domain.PageContext) []domain.Block {
	if len(page.ArticleBlocks) > 0 {
		return b.pipeline.Process(postprocessors.DecodeRaw(page.ArticleBlocks))
	}
	if page.Article != nil && strings.TrimSpace(page.Article.HTML) != "" {
		blocks, err := postprocessors.HTMLToBlocks(page.Article.HTML, page.URL)
		if err != nil {
			b.logger.Warn("failed to convert article html", "url", domain.RedactURL(page.URL), "error", err)
			return nil
		}
		return b.pipeline.Process(blocks)
	}
	return nil
}

// transform asks the model to rewrite blocks, with one stricter repair attempt.
func (b *BlockBuilder) transform(ctx context.Context, blocks []domain.Block, in BlockInput) ([]domain.Block, bool) {
	provider := string(in.Model.Provider())
	msgs := prompts.BuildBlockTransformPrompt(blocks, in.Options.CustomInstructions, in.Page)

	for attempt := 0; attempt < 2; attempt++ {
		reply, err := in.Model.Chat(ctx, msgs, in.Knobs)
		if err != nil {
			b.metrics.ModelCall(provider, "error")
			b.logger.Warn("block transform call failed", "attempt", attempt+1, "error", err)
			return nil, false
		}

		if objs, ok := extract.BlockArray(reply.Content); ok {
			if out := b.pipeline.Process(postprocessors.DecodeBlocks(objs)); len(out) > 0 {
				b.metrics.ModelCall(provider, "ok")
				return out, true
			}
		}

		b.metrics.ModelCall(provider, "invalid")
		b.logger.Info("block transform reply unusable", "attempt", attempt+1, "error", domain.ErrModelOutputInvalid)
		msgs = prompts.BuildRepairPrompt(msgs, reply.Content)
	}
	return nil, false
}

// fallback builds up to fallbackImages content images plus one paragraph.
func (b *BlockBuilder) fallback(in BlockInput) []domain.Block {
	page := in.Page
	images := make([]domain.PageImage, 0, len(page.Images))
	for _, img := range page.Images {
		if normalisers.IsHTTPURL(img.URL) {
			images = append(images, img)
		}
	}
	sort.SliceStable(images, func(i, j int) bool {
		return images[i].Area() > images[j].Area()
	})

	var blocks []domain.Block
	for i, img := range images {
		if i == b.fallbackImages {
			break
		}
		block := domain.NewImageBlock(img.URL)
		block.Image.Caption = strings.TrimSpace(img.Alt)
		blocks = append(blocks, block)
	}

	blocks = append(blocks, domain.NewTextBlock(domain.BlockParagraph, fallbackText(in.Rationale, page)))
	return b.pipeline.Process(blocks)
}

func fallbackText(rationale string, page *domain.PageContext) string {
	for _, candidate := range []string{rationale, page.SelectionText, page.TextSample} {
		if text := strings.TrimSpace(candidate); text != "" {
			return domain.Truncate(strings.Join(strings.Fields(text), " "), fallbackExcerptLength)
		}
	}
	return fmt.Sprintf("Saved from %s", page.URL)
}
