package neo4j

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/arkhipovma/clinsearch/internal/core/domain"
	"github.com/arkhipovma/clinsearch/internal/infrastructure/httpx"
	"github.com/arkhipovma/clinsearch/internal/infrastructure/resilience"
)

// entityIndex is the full-text index over entity names and facts built by
// the ingestion subsystem.
const entityIndex = "entity_search"

// Client looks up clinical entities and facts in the knowledge graph.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	executor *resilience.Executor
}

func New(uri, user, password, database string, executor *resilience.Executor) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Client{
		driver:   driver,
		database: database,
		executor: executor,
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *Client) Search(ctx context.Context, queryText string, limit int) ([]domain.GraphHit, error) {
	const cypher = `
CALL db.index.fulltext.queryNodes($index, $query) YIELD node, score
RETURN node.name AS name,
       node.type AS type,
       node.fact AS fact,
       node.doc_id AS doc_id,
       score
ORDER BY score DESC
LIMIT $limit`

	params := map[string]any{
		"index": entityIndex,
		"query": queryText,
		"limit": limit,
	}

	var hits []domain.GraphHit
	call := func(callCtx context.Context) error {
		result, err := neo4j.ExecuteQuery(callCtx, c.driver, cypher, params,
			neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(c.database),
			neo4j.ExecuteQueryWithReadersRouting(),
		)
		if err != nil {
			return fmt.Errorf("neo4j fulltext query: %w", err)
		}
		hits = recordsToHits(result.Records)
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "neo4j.search", call, classifyGraphError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, httpx.WrapBackend("graph search", err)
	}
	return hits, nil
}

func recordsToHits(records []*neo4j.Record) []domain.GraphHit {
	hits := make([]domain.GraphHit, 0, len(records))
	for _, record := range records {
		hit := domain.GraphHit{
			EntityName:       recordString(record, "name"),
			EntityType:       recordString(record, "type"),
			Fact:             recordString(record, "fact"),
			SourceDocumentID: recordString(record, "doc_id"),
		}
		if raw, ok := record.Get("score"); ok {
			if score, ok := raw.(float64); ok {
				// Lucene scores are unbounded; squash onto (0,1) so
				// fusion sees a comparable scale.
				hit.Score = score / (1 + score)
			}
		}
		if hit.EntityName == "" {
			continue
		}
		hits = append(hits, hit)
	}
	return hits
}

func recordString(record *neo4j.Record, key string) string {
	raw, ok := record.Get(key)
	if !ok || raw == nil {
		return ""
	}
	if s, ok := raw.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", raw)
}

func classifyGraphError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if neo4j.IsConnectivityError(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
