package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
)

// EvidenceDocument is a single retrieval hit from the benchmark knowledge
// base. Two hits with identical content are the same document, regardless
// of which query produced them.
type EvidenceDocument struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// EvidenceRecord pairs a document with the sorted, deduplicated list of
// queries that retrieved it. Records are built once per analysis run and
// read-only afterwards.
type EvidenceRecord struct {
	RetrievedForQueries []string         `json:"retrieved_for_queries"`
	Document            EvidenceDocument `json:"source_document"`
}

// Retriever is the retrieval capability: given a query, return hits ranked
// best-first. Implementations should carry their own timeouts.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]EvidenceDocument, error)
}

// Consolidator fans queries out to the retriever and merges the hits into a
// unique, attributable evidence set.
type Consolidator struct {
	Retriever Retriever
	Logger    hclog.Logger

	// MaxParallel bounds the retrieval fan-out. Zero means sequential.
	MaxParallel int
}

// Consolidate issues each query to the retriever, keeps only the top-ranked
// hit per query (k=1), and merges hits keyed by document content. Queries
// that miss or fail are skipped; one bad query never blanks out the rest of
// the analysis. Results are sorted by the benchmark id in the document
// metadata, empty id first.
func (c *Consolidator) Consolidate(ctx context.Context, queries []string) []EvidenceRecord {
	logger := c.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	limit := c.MaxParallel
	if limit < 1 {
		limit = 1
	}

	// Merge phase is guarded: the fan-out may run concurrently, but the
	// content-keyed map has a single synchronized writer path.
	var mu sync.Mutex
	merged := make(map[string]*EvidenceRecord)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, query := range queries {
		query := query
		g.Go(func() error {
			docs, err := c.Retriever.Retrieve(gctx, query)
			if err != nil {
				logger.Warn("retrieval failed, skipping query", "query", query, "error", err)
				return nil
			}
			if len(docs) == 0 {
				logger.Debug("retrieval miss, skipping query", "query", query)
				return nil
			}
			top := docs[0]

			mu.Lock()
			defer mu.Unlock()
			if rec, ok := merged[top.Content]; ok {
				rec.RetrievedForQueries = append(rec.RetrievedForQueries, query)
			} else {
				merged[top.Content] = &EvidenceRecord{
					RetrievedForQueries: []string{query},
					Document:            top,
				}
			}
			return nil
		})
	}
	// Workers never return errors; Wait only orders the merge after the fan-out.
	_ = g.Wait()

	records := make([]EvidenceRecord, 0, len(merged))
	for _, rec := range merged {
		rec.RetrievedForQueries = dedupeSorted(rec.RetrievedForQueries)
		records = append(records, *rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Document.Metadata["id"] < records[j].Document.Metadata["id"]
	})
	return records
}

func dedupeSorted(in []string) []string {
	sort.Strings(in)
	out := in[:0]
	for i, s := range in {
		if i == 0 || s != in[i-1] {
			out = append(out, s)
		}
	}
	return out
}
