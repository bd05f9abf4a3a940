package postprocessors

import (
	"strings"
	"testing"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
)

func TestNewPipeline(t *testing.T) {
	p := NewPipeline()
	if p == nil {
		t.Fatal("expected non-nil pipeline")
	}
	if len(p.processors) != 0 {
		t.Errorf("expected empty processors, got %d", len(p.processors))
	}
}

func TestPipeline_OrderedByOrder(t *testing.T) {
	p := NewPipeline()
	p.Add(NewDeduplicator())
	p.Add(NewRichTextNormalizer())
	p.Add(NewKindFilter())

	p.Process(nil)

	names := p.List()
	want := []string{"kind-filter", "rich-text-normalizer", "deduplicator"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, names)
	}
}

func TestDefaultPipeline(t *testing.T) {
	p := DefaultPipeline()
	names := p.List()
	if len(names) != 3 {
		t.Fatalf("expected 3 processors, got %d", len(names))
	}
}

func TestKindFilter(t *testing.T) {
	f := NewKindFilter()
	blocks := []domain.Block{
		domain.NewTextBlock(domain.BlockParagraph, "kept"),
		domain.NewTextBlock("table", "dropped kind"),
		domain.NewTextBlock(domain.BlockHeading2, "   "),
		domain.NewImageBlock("https://example.com/a.png"),
		domain.NewImageBlock("ftp://example.com/a.png"),
		{Kind: domain.BlockImage},
		{Kind: domain.BlockImage, Image: &domain.ImageRef{FileUploadID: "up-1"}},
	}

	got := f.Process(blocks)
	if len(got) != 3 {
		t.Fatalf("expected 3 blocks, got %d: %+v", len(got), got)
	}
	if got[0].Kind != domain.BlockParagraph {
		t.Errorf("expected paragraph first, got %s", got[0].Kind)
	}
	if got[1].Image.ExternalURL != "https://example.com/a.png" {
		t.Errorf("unexpected image %+v", got[1].Image)
	}
	if got[2].Image.FileUploadID != "up-1" {
		t.Errorf("expected uploaded image, got %+v", got[2].Image)
	}
}

func TestRichTextNormalizer_SplitsLongRuns(t *testing.T) {
	n := NewRichTextNormalizer()
	long := strings.Repeat("a", domain.MaxRichTextLength+10)

	got := n.Process([]domain.Block{domain.NewTextBlock(domain.BlockParagraph, long)})

	if len(got[0].RichText) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(got[0].RichText))
	}
	for _, r := range got[0].RichText {
		if len([]rune(r.Content)) > domain.MaxRichTextLength {
			t.Errorf("run exceeds limit: %d", len(r.Content))
		}
	}
}

func TestDeduplicator(t *testing.T) {
	d := NewDeduplicator()
	blocks := []domain.Block{
		domain.NewImageBlock("https://example.com/a.png"),
		domain.NewImageBlock("https://example.com/a.png"),
		domain.NewTextBlock(domain.BlockParagraph, "Hello"),
		domain.NewTextBlock(domain.BlockParagraph, "Hello"),
		domain.NewTextBlock(domain.BlockParagraph, "hello"),
		domain.NewTextBlock(domain.BlockQuote, "hello"),
	}

	got := d.Process(blocks)
	if len(got) != 4 {
		t.Fatalf("expected 4 blocks, got %d: %+v", len(got), got)
	}
	if got[0].Kind != domain.BlockImage || got[1].Kind != domain.BlockParagraph {
		t.Errorf("unexpected order %s, %s", got[0].Kind, got[1].Kind)
	}
}

func TestDeduplicator_KeepsSeparatedRepeats(t *testing.T) {
	d := NewDeduplicator()
	blocks := []domain.Block{
		domain.NewTextBlock(domain.BlockParagraph, "Chorus"),
		domain.NewImageBlock("https://example.com/diagram.png"),
		domain.NewTextBlock(domain.BlockParagraph, "Verse"),
		domain.NewTextBlock(domain.BlockParagraph, "Chorus"),
		domain.NewImageBlock("https://example.com/diagram.png"),
	}

	got := d.Process(blocks)
	if len(got) != len(blocks) {
		t.Fatalf("expected all %d blocks kept, got %d", len(blocks), len(got))
	}
}

func TestLimit(t *testing.T) {
	blocks := make([]domain.Block, 1200)
	for i := range blocks {
		blocks[i] = domain.NewTextBlock(domain.BlockParagraph, "x")
	}

	got, cut := Limit(blocks, 0)
	if len(got) != DefaultMaxBlocks || cut != 200 {
		t.Errorf("expected %d blocks and 200 cut, got %d and %d", DefaultMaxBlocks, len(got), cut)
	}

	got, cut = Limit(blocks[:5], 10)
	if len(got) != 5 || cut != 0 {
		t.Errorf("short input changed: %d blocks, %d cut", len(got), cut)
	}
}

func TestChunk(t *testing.T) {
	blocks := make([]domain.Block, 250)
	chunks := Chunk(blocks, 100)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	sizes := []int{100, 100, 50}
	for i, c := range chunks {
		if len(c) != sizes[i] {
			t.Errorf("chunk %d: expected %d, got %d", i, sizes[i], len(c))
		}
	}

	if got := Chunk(nil, 100); len(got) != 0 {
		t.Errorf("expected no chunks, got %d", len(got))
	}
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.BlockPipeline = NewPipeline()
	var _ driven.BlockProcessor = NewKindFilter()
	var _ driven.BlockProcessor = NewRichTextNormalizer()
	var _ driven.BlockProcessor = NewDeduplicator()
}
