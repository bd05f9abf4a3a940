package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driving"
	"github.com/custodia-labs/clipper-core/internal/extract"
	"github.com/custodia-labs/clipper-core/internal/normalisers"
	"github.com/custodia-labs/clipper-core/internal/postprocessors"
	"github.com/custodia-labs/clipper-core/internal/prompts"
)

// Verify interface compliance
var _ driving.ClipService = (*ClipService)(nil)

// rationaleKeys are read from the property reply for the fallback paragraph
var rationaleKeys = []string{"rationale", "summary", "description"}

// ClipService runs the clip-to-record pipeline:
//  1. Resolve the schema and a credential able to write to the collection
//  2. Ask the model for property values
//  3. Extract and sanitize them (aliases, url auto-fill, options, title)
//  4. Build content blocks
//  5. Materialize images
//  6. Create the page with the first block batch, then append the rest
type ClipService struct {
	schemas     *SchemaService
	destination driven.DestinationClient
	models      driven.ModelFactory
	sanitizer   *normalisers.Sanitizer
	blocks      *BlockBuilder
	images      *ImageMaterializer
	metrics     driven.Metrics
	logger      *slog.Logger
	knobs       domain.ModelKnobs
}

// ClipServiceConfig holds dependencies for ClipService.
type ClipServiceConfig struct {
	Schemas     *SchemaService
	Destination driven.DestinationClient
	Models      driven.ModelFactory
	Sanitizer   *normalisers.Sanitizer // default: built-in coercion rules
	Blocks      *BlockBuilder
	Images      *ImageMaterializer
	Metrics     driven.Metrics
	Logger      *slog.Logger
	Knobs       *domain.ModelKnobs // default: domain.DefaultModelKnobs()
}

// NewClipService creates a new clip service.
func NewClipService(cfg ClipServiceConfig) *ClipService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	sanitizer := cfg.Sanitizer
	if sanitizer == nil {
		sanitizer = normalisers.NewSanitizer(nil)
	}
	blocks := cfg.Blocks
	if blocks == nil {
		blocks = NewBlockBuilder(BlockBuilderConfig{Metrics: metrics, Logger: logger})
	}
	knobs := domain.DefaultModelKnobs()
	if cfg.Knobs != nil {
		knobs = *cfg.Knobs
	}
	return &ClipService{
		schemas:     cfg.Schemas,
		destination: cfg.Destination,
		models:      cfg.Models,
		sanitizer:   sanitizer,
		blocks:      blocks,
		images:      cfg.Images,
		metrics:     metrics,
		logger:      logger,
		knobs:       knobs,
	}
}

// Save turns the captured page into a destination page.
func (s *ClipService) Save(ctx context.Context, userID string, req *domain.SaveRequest) (*domain.SaveResult, error) {
	if req == nil || strings.TrimSpace(req.CollectionID) == "" {
		return nil, fmt.Errorf("%w: collection id required", domain.ErrInvalidInput)
	}
	page := &req.Page
	logger := s.logger.With("user_id", userID, "collection_id", req.CollectionID)

	// Step 1: schema and owner credential
	cached, cred, err := s.schemas.Resolve(ctx, userID, req.CollectionID)
	if err != nil {
		return nil, err
	}
	schema := cached.Clone()

	// Step 2: property mapping
	model, err := s.models.Create(req.Options.Provider, req.Options.Model)
	if err != nil {
		return nil, fmt.Errorf("create model: %w", err)
	}
	knobs := s.knobs
	if req.Options.Model != "" {
		knobs.Model = req.Options.Model
	}
	provider := string(model.Provider())

	msgs := prompts.BuildPropertyPrompt(schema, page, req.Options.CustomInstructions, req.Options.UseArticle)
	reply, err := model.Chat(ctx, msgs, knobs)
	if err != nil {
		s.metrics.ModelCall(provider, "error")
		return nil, fmt.Errorf("property mapping: %w", err)
	}

	var warnings []string

	// Step 3: extract and sanitize
	proposed := extract.JSONObject(reply.Content)
	if proposed == nil {
		s.metrics.ModelCall(provider, "invalid")
		logger.Warn("model reply held no json object", "error", domain.ErrModelOutputInvalid)
		warnings = append(warnings, "model output invalid: no properties produced")
		proposed = map[string]any{}
	} else {
		s.metrics.ModelCall(provider, "ok")
	}

	props := s.sanitizer.Sanitize(schema, proposed)
	normalisers.FillURL(schema, props, page.URL)

	readLive := func(ctx context.Context) (*domain.SimplifiedSchema, error) {
		raw, err := s.destination.GetCollection(ctx, cred.AccessToken, req.CollectionID)
		if err != nil {
			return nil, err
		}
		return normalisers.SimplifySchema(req.CollectionID, raw)
	}
	patch := normalisers.LiveOptionPatcher(readLive, func(ctx context.Context, property string, propType domain.PropertyType, options []string) error {
		return s.destination.UpdateOptions(ctx, cred.AccessToken, req.CollectionID, property, propType, options)
	})
	report := normalisers.EnsureOptions(ctx, schema, props, patch)
	if report.Changed() {
		s.schemas.Invalidate(ctx, userID, req.CollectionID)
	}
	for _, name := range sortedKeys(report.Errors) {
		logger.Warn("option creation failed", "property", name, "error", report.Errors[name])
	}

	normalisers.EnforceTitle(schema, props, page)

	// Step 4: content blocks
	in := BlockInput{
		Page:      page,
		Options:   req.Options,
		Rationale: rationaleOf(proposed),
		Model:     model,
		Knobs:     knobs,
	}
	if req.Options.SaveArticle {
		in.Suggested, _ = extract.BlocksFromObject(proposed)
	}
	blocks, stage := s.blocks.Build(ctx, in)
	logger.Debug("content blocks built", "stage", stage, "count", len(blocks))

	blocks, cut := postprocessors.Limit(blocks, postprocessors.DefaultMaxBlocks)
	if cut > 0 {
		logger.Warn("content over block limit", "kept", len(blocks), "cut", cut)
		warnings = append(warnings, fmt.Sprintf("content truncated: %d blocks over the %d block limit were not saved", cut, postprocessors.DefaultMaxBlocks))
	}

	// Step 5: images
	var diagnostics []domain.ImageDiagnostic
	if s.images != nil {
		blocks, diagnostics = s.images.Materialize(ctx, cred.AccessToken, schema, props, blocks, req.Options.MaxImageUploads, page.URL)
	}
	if len(diagnostics) > 0 {
		warnings = append(warnings, fmt.Sprintf("%d image(s) could not be uploaded", len(diagnostics)))
	}

	// Step 6: write
	chunks := postprocessors.Chunk(blocks, domain.MaxBlocksPerRequest)
	var first []domain.Block
	if len(chunks) > 0 {
		first = chunks[0]
	}

	created, err := s.destination.CreatePage(ctx, cred.AccessToken, &driven.CreatePageRequest{
		CollectionID: req.CollectionID,
		Properties:   props,
		Children:     first,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrDestinationWrite) {
			err = fmt.Errorf("%w: %v", domain.ErrDestinationWrite, err)
		}
		return nil, fmt.Errorf("create page: %w", err)
	}

	written := len(first)
	for i := 1; i < len(chunks); i++ {
		if err := s.destination.AppendBlocks(ctx, cred.AccessToken, created.ID, chunks[i]); err != nil {
			logger.Warn("block append failed, stopping", "page_id", created.ID, "written", written, "total", len(blocks), "error", err)
			warnings = append(warnings, fmt.Sprintf("content truncated: %d of %d blocks written", written, len(blocks)))
			break
		}
		written += len(chunks[i])
	}

	logger.Info("page saved", "page_id", created.ID, "blocks", written, "stage", stage)

	return &domain.SaveResult{
		PageID:      created.ID,
		PageURL:     created.URL,
		Properties:  props,
		BlockCount:  written,
		Diagnostics: diagnostics,
		Warnings:    warnings,
	}, nil
}

func rationaleOf(obj map[string]any) string {
	for _, key := range rationaleKeys {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
