package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/user/ksec-copilot/pkg/engine"
)

// DefaultTimeout bounds a single retrieval call so one slow query degrades
// to a per-query miss instead of stalling the whole analysis.
const DefaultTimeout = 15 * time.Second

// ElasticRetriever searches the benchmark index in Elasticsearch. Documents
// are expected to carry their body in the "text" field and benchmark
// provenance in a "metadata" object; the stored embedding vector is excluded
// from hits to keep responses small.
type ElasticRetriever struct {
	client *resty.Client
	index  string
	logger hclog.Logger
}

// NewElasticRetriever builds a retriever for the given Elasticsearch base
// URL and index name.
func NewElasticRetriever(baseURL, index string, timeout time.Duration, logger hclog.Logger) *ElasticRetriever {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2)
	SetLoggerForResty(client, logger)

	return &ElasticRetriever{client: client, index: index, logger: logger}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source struct {
				Text     string                 `json:"text"`
				Metadata map[string]interface{} `json:"metadata"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Retrieve runs a keyword match query against the index and returns the
// hits best-first. A query with no hits returns an empty slice, not an
// error.
func (r *ElasticRetriever) Retrieve(ctx context.Context, query string) ([]engine.EvidenceDocument, error) {
	body := map[string]interface{}{
		"size": 1,
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				"text": query,
			},
		},
		"_source": map[string]interface{}{
			"excludes": []string{"vector"},
		},
	}

	var out searchResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&out).
		Post(fmt.Sprintf("/%s/_search", r.index))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("elasticsearch search: status %s", resp.Status())
	}

	docs := make([]engine.EvidenceDocument, 0, len(out.Hits.Hits))
	for _, hit := range out.Hits.Hits {
		metadata := make(map[string]string, len(hit.Source.Metadata))
		for k, v := range hit.Source.Metadata {
			metadata[k] = fmt.Sprint(v)
		}
		docs = append(docs, engine.EvidenceDocument{
			Content:  hit.Source.Text,
			Metadata: metadata,
		})
	}
	r.logger.Debug("retrieval query finished", "hits", len(docs))
	return docs, nil
}
