package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven/mocks"
)

const (
	testUser       = "user-1"
	testCollection = "coll-1"
	testToken      = "tok-1"
)

// scenarioCollection is {Title: title, Tags: multi_select[A,B], URL: url}
var scenarioCollection = json.RawMessage(`{
	"id": "coll-1",
	"properties": {
		"Title": {"id": "title", "type": "title", "title": {}},
		"Tags": {"id": "tg", "type": "multi_select", "multi_select": {"options": [{"name": "A", "color": "red"}, {"name": "B", "color": "blue"}]}},
		"URL": {"id": "ur", "type": "url", "url": {}},
		"Poster": {"id": "po", "type": "files", "files": {}},
		"Created": {"id": "cr", "type": "created_time", "created_time": {}}
	}
}`)

// clipFixture wires the clip pipeline to in-memory collaborators
type clipFixture struct {
	dest    *mocks.MockDestinationClient
	creds   *mocks.MockCredentialStore
	cache   *mocks.MockCacheStore
	model   *mocks.MockChatModel
	fetcher *mocks.MockImageFetcher
	queue   *mocks.MockJobQueue
	schemas *SchemaService
	clips   *ClipService
	jobs    *JobTracker
}

func newClipFixture(t *testing.T, replies ...string) *clipFixture {
	t.Helper()

	f := &clipFixture{
		dest:    mocks.NewMockDestinationClient(),
		creds:   mocks.NewMockCredentialStore(testCredential("cred-1", testToken, 0)),
		cache:   mocks.NewMockCacheStore(),
		model:   mocks.NewMockChatModel(replies...),
		fetcher: mocks.NewMockImageFetcher(),
		queue:   mocks.NewMockJobQueue(),
	}
	f.dest.AddCollection(testCollection, scenarioCollection, testToken)

	f.schemas = NewSchemaService(SchemaServiceConfig{
		Credentials: f.creds,
		Destination: f.dest,
		Schemas:     f.cache,
		Index:       f.cache,
	})
	f.clips = NewClipService(ClipServiceConfig{
		Schemas:     f.schemas,
		Destination: f.dest,
		Models:      &mocks.MockModelFactory{Model: f.model},
		Images: NewImageMaterializer(ImageMaterializerConfig{
			Fetcher:     f.fetcher,
			Destination: f.dest,
		}),
	})
	f.jobs = NewJobTracker(JobTrackerConfig{Queue: f.queue, Clips: f.clips})
	return f
}

func testCredential(id, token string, age time.Duration) *domain.Credential {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(-age)
	return &domain.Credential{
		ID:          id,
		UserID:      testUser,
		WorkspaceID: "ws-" + id,
		AccessToken: token,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func scenarioRequest() *domain.SaveRequest {
	return &domain.SaveRequest{
		CollectionID: testCollection,
		Page: domain.PageContext{
			URL:   "https://x.test/p",
			Title: "Example Post",
		},
	}
}

// articleBlocks builds n distinct paragraph blocks in the loose client shape
func articleBlocks(n int) []json.RawMessage {
	out := make([]json.RawMessage, n)
	for i := range out {
		out[i] = json.RawMessage(fmt.Sprintf(`{"type":"paragraph","text":"Paragraph %d"}`, i))
	}
	return out
}

func blockTexts(blocks []domain.Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		if b.Kind == domain.BlockImage && b.Image != nil {
			out[i] = "image:" + b.Image.ExternalURL + b.Image.FileUploadID
			continue
		}
		out[i] = strings.TrimSpace(domain.PlainText(b.RichText))
	}
	return out
}
