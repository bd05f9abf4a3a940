package postprocessors

import (
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
	"github.com/custodia-labs/clipper-core/internal/normalisers"
)

// Verify interface compliance
var _ driven.BlockPipeline = (*Pipeline)(nil)

// Pipeline implements BlockPipeline.
// It chains block processors in order, starting with a KindFilter.
type Pipeline struct {
	mu         sync.RWMutex
	processors []driven.BlockProcessor
	sorted     bool
}

// NewPipeline creates a new block pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{
		processors: make([]driven.BlockProcessor, 0),
	}
}

// Add adds a processor to the pipeline.
// Processors are sorted by Order() before processing.
func (p *Pipeline) Add(processor driven.BlockProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processors = append(p.processors, processor)
	p.sorted = false
}

// Process applies all processors in order.
func (p *Pipeline) Process(blocks []domain.Block) []domain.Block {
	p.mu.Lock()
	if !p.sorted {
		sort.SliceStable(p.processors, func(i, j int) bool {
			return p.processors[i].Order() < p.processors[j].Order()
		})
		p.sorted = true
	}
	processors := make([]driven.BlockProcessor, len(p.processors))
	copy(processors, p.processors)
	p.mu.Unlock()

	for _, proc := range processors {
		blocks = proc.Process(blocks)
	}
	return blocks
}

// List returns processor names in order.
func (p *Pipeline) List() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}

// DefaultPipeline creates a pipeline with the default processors.
func DefaultPipeline() *Pipeline {
	p := NewPipeline()
	p.Add(NewKindFilter())
	p.Add(NewRichTextNormalizer())
	p.Add(NewDeduplicator())
	return p
}

// KindFilter keeps only allow-listed kinds. Image blocks need an http(s) URL or an upload id,
// text blocks need non-blank text.
type KindFilter struct{}

// Verify interface compliance
var _ driven.BlockProcessor = (*KindFilter)(nil)

// NewKindFilter creates a new kind filter.
func NewKindFilter() *KindFilter {
	return &KindFilter{}
}

// Process drops disallowed or empty blocks.
func (f *KindFilter) Process(blocks []domain.Block) []domain.Block {
	result := make([]domain.Block, 0, len(blocks))
	for _, b := range blocks {
		if !b.Kind.IsAllowed() {
			continue
		}
		if b.Kind == domain.BlockImage {
			if b.Image == nil {
				continue
			}
			if !b.Image.IsUploaded() && !normalisers.IsHTTPURL(b.Image.ExternalURL) {
				continue
			}
			b.RichText = nil
			result = append(result, b)
			continue
		}
		if strings.TrimSpace(domain.PlainText(b.RichText)) == "" {
			continue
		}
		b.Image = nil
		result = append(result, b)
	}
	return result
}

// Name returns the processor name.
func (f *KindFilter) Name() string {
	return "kind-filter"
}

// Order returns 0 - filtering runs first.
func (f *KindFilter) Order() int {
	return 0
}

// RichTextNormalizer applies the rich text limits to every text block.
type RichTextNormalizer struct{}

// Verify interface compliance
var _ driven.BlockProcessor = (*RichTextNormalizer)(nil)

// NewRichTextNormalizer creates a new rich text normalizer.
func NewRichTextNormalizer() *RichTextNormalizer {
	return &RichTextNormalizer{}
}

// Process normalizes the runs of each text block.
func (n *RichTextNormalizer) Process(blocks []domain.Block) []domain.Block {
	result := make([]domain.Block, len(blocks))
	for i, b := range blocks {
		if b.Kind != domain.BlockImage {
			b.RichText = normalisers.NormalizeRuns(b.RichText)
		} else if b.Image != nil {
			img := *b.Image
			img.Caption = domain.Truncate(strings.TrimSpace(img.Caption), domain.MaxRichTextLength)
			b.Image = &img
		}
		result[i] = b
	}
	return result
}

// Name returns the processor name.
func (n *RichTextNormalizer) Name() string {
	return "rich-text-normalizer"
}

// Order returns 5 - runs after filtering.
func (n *RichTextNormalizer) Order() int {
	return 5
}

// Deduplicator removes repeated images and consecutive duplicate text blocks.
type Deduplicator struct{}

// Verify interface compliance
var _ driven.BlockProcessor = (*Deduplicator)(nil)

// NewDeduplicator creates a new deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// Process drops a block that exactly repeats the one before it.
// Repeats separated by other content are kept.
func (d *Deduplicator) Process(blocks []domain.Block) []domain.Block {
	if len(blocks) <= 1 {
		return blocks
	}

	result := make([]domain.Block, 0, len(blocks))
	var prevKey string
	for _, b := range blocks {
		key := blockKey(b)
		if len(result) > 0 && key == prevKey {
			continue
		}
		prevKey = key
		result = append(result, b)
	}
	return result
}

func blockKey(b domain.Block) string {
	if b.Kind == domain.BlockImage && b.Image != nil {
		return string(b.Kind) + "|" + b.Image.ExternalURL + "|" + b.Image.FileUploadID + "|" + b.Image.Caption
	}
	return string(b.Kind) + "|" + domain.PlainText(b.RichText)
}

// Name returns the processor name.
func (d *Deduplicator) Name() string {
	return "deduplicator"
}

// Order returns 10 - deduplicator runs after normalization.
func (d *Deduplicator) Order() int {
	return 10
}

// DefaultMaxBlocks bounds the blocks written for one page
const DefaultMaxBlocks = 1000

// Limit keeps the first max blocks and reports how many were cut.
func Limit(blocks []domain.Block, max int) ([]domain.Block, int) {
	if max <= 0 {
		max = DefaultMaxBlocks
	}
	if len(blocks) <= max {
		return blocks, 0
	}
	return blocks[:max], len(blocks) - max
}

// Chunk splits blocks into consecutive batches of at most size, preserving order.
func Chunk(blocks []domain.Block, size int) [][]domain.Block {
	if size <= 0 {
		size = domain.MaxBlocksPerRequest
	}
	var chunks [][]domain.Block
	for start := 0; start < len(blocks); start += size {
		end := start + size
		if end > len(blocks) {
			end = len(blocks)
		}
		chunks = append(chunks, blocks[start:end])
	}
	return chunks
}
