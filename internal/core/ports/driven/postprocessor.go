package driven

import "github.com/custodia-labs/clipper-core/internal/core/domain"

// BlockProcessor applies one post-processing step to a block sequence.
// Processors form a pipeline: KindFilter -> RichTextNormalizer -> Deduplicator.
// Every processor must preserve the relative order of the blocks it keeps.
type BlockProcessor interface {
	// Process returns the processed sequence. It must not mutate its input.
	Process(blocks []domain.Block) []domain.Block

	// Name returns the processor name for logging/debugging.
	Name() string

	// Order returns the processor order in the pipeline (lower = earlier).
	Order() int
}

// BlockPipeline chains block processors in order.
type BlockPipeline interface {
	// Process applies all processors in order.
	Process(blocks []domain.Block) []domain.Block

	// Add adds a processor to the pipeline.
	// Processors are sorted by Order() before processing.
	Add(processor BlockProcessor)

	// List returns processor names in order.
	List() []string
}
