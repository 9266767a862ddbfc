package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// retrieverFunc adapts a function to the Retriever interface for tests.
type retrieverFunc func(ctx context.Context, query string) ([]EvidenceDocument, error)

func (f retrieverFunc) Retrieve(ctx context.Context, query string) ([]EvidenceDocument, error) {
	return f(ctx, query)
}

func TestConsolidateMergesByContent(t *testing.T) {
	shared := EvidenceDocument{
		Content:  "Containers must not run privileged.",
		Metadata: map[string]string{"id": "5.2.1"},
	}
	other := EvidenceDocument{
		Content:  "General hardening advice.",
		Metadata: map[string]string{"id": ""},
	}

	retriever := retrieverFunc(func(ctx context.Context, query string) ([]EvidenceDocument, error) {
		switch query {
		case "alpha", "bravo":
			return []EvidenceDocument{shared}, nil
		case "charlie":
			return []EvidenceDocument{other}, nil
		case "delta":
			return nil, errors.New("backend down")
		case "echo":
			return nil, nil
		}
		// Runs on an errgroup worker, so Error instead of Fatal.
		t.Errorf("unexpected query %q", query)
		return nil, nil
	})

	c := &Consolidator{Retriever: retriever, MaxParallel: 4}
	records := c.Consolidate(context.Background(), []string{"bravo", "delta", "alpha", "echo", "charlie"})

	// Two unique documents survive; the failing and the empty query are
	// skipped without poisoning the rest.
	require.Len(t, records, 2)

	// Sorted by benchmark id, empty id first.
	assert.Equal(t, "", records[0].Document.Metadata["id"])
	assert.Equal(t, "5.2.1", records[1].Document.Metadata["id"])

	// Query attribution is deduplicated and sorted.
	assert.Equal(t, []string{"alpha", "bravo"}, records[1].RetrievedForQueries)
	assert.Equal(t, []string{"charlie"}, records[0].RetrievedForQueries)
}

func TestConsolidateKeepsOnlyTopHit(t *testing.T) {
	retriever := retrieverFunc(func(ctx context.Context, query string) ([]EvidenceDocument, error) {
		return []EvidenceDocument{
			{Content: "best", Metadata: map[string]string{"id": "1"}},
			{Content: "second", Metadata: map[string]string{"id": "2"}},
		}, nil
	})

	c := &Consolidator{Retriever: retriever}
	records := c.Consolidate(context.Background(), []string{"only"})

	require.Len(t, records, 1)
	assert.Equal(t, "best", records[0].Document.Content)
}

func TestConsolidateNoQueries(t *testing.T) {
	c := &Consolidator{Retriever: retrieverFunc(func(ctx context.Context, query string) ([]EvidenceDocument, error) {
		t.Error("retriever must not be called without queries")
		return nil, nil
	})}
	assert.Empty(t, c.Consolidate(context.Background(), nil))
}
