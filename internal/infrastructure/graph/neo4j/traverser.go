package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/dkoval/code-search-engine/internal/core/domain"
)

// Traverser walks the call graph stored in Neo4j. Chunk nodes carry the same
// chunk_id as the relational store; CALLS edges point from caller to callee.
type Traverser struct {
	driver   neo4j.DriverWithContext
	database string
	maxDepth int
}

type Config struct {
	URI      string
	Username string
	Password string
	Database string
	MaxDepth int
}

func NewTraverser(cfg Config) (*Traverser, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 3
	}
	return &Traverser{driver: driver, database: cfg.Database, maxDepth: maxDepth}, nil
}

func (t *Traverser) Verify(ctx context.Context) error {
	if err := t.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return nil
}

func (t *Traverser) Close(ctx context.Context) error {
	return t.driver.Close(ctx)
}

func (t *Traverser) Traverse(ctx context.Context, chunkID string, direction domain.GraphDirection, relation string, maxDepth int) ([]domain.GraphRelation, error) {
	if maxDepth <= 0 || maxDepth > t.maxDepth {
		maxDepth = t.maxDepth
	}
	query, err := traversalQuery(direction, maxDepth)
	if err != nil {
		return nil, err
	}

	session := t.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: t.database,
	})
	defer func() {
		_ = session.Close(ctx)
	}()

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{"chunk_id": chunkID})
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("traverse graph: %w", err)
	}

	rows, ok := records.([]*neo4j.Record)
	if !ok {
		return nil, fmt.Errorf("unexpected traversal result type %T", records)
	}

	relations := make([]domain.GraphRelation, 0, len(rows))
	for _, record := range rows {
		id, _, err := neo4j.GetRecordValue[string](record, "chunk_id")
		if err != nil {
			return nil, fmt.Errorf("read related chunk_id: %w", err)
		}
		depth, _, err := neo4j.GetRecordValue[int64](record, "depth")
		if err != nil {
			return nil, fmt.Errorf("read relation depth: %w", err)
		}
		relations = append(relations, domain.GraphRelation{
			ChunkID:  id,
			Relation: relation,
			Depth:    int(depth),
		})
	}
	return relations, nil
}

// traversalQuery builds the variable-length path match for one direction.
// Cypher cannot parameterize path bounds, so the validated depth is inlined.
func traversalQuery(direction domain.GraphDirection, maxDepth int) (string, error) {
	var pattern string
	switch direction {
	case domain.DirectionCallers:
		pattern = fmt.Sprintf("(related:Chunk)-[:CALLS*1..%d]->(start:Chunk {chunk_id: $chunk_id})", maxDepth)
	case domain.DirectionCallees:
		pattern = fmt.Sprintf("(start:Chunk {chunk_id: $chunk_id})-[:CALLS*1..%d]->(related:Chunk)", maxDepth)
	default:
		return "", fmt.Errorf("unknown traversal direction %q", direction)
	}

	return fmt.Sprintf(`
MATCH path = %s
WHERE related.chunk_id <> $chunk_id
RETURN related.chunk_id AS chunk_id, min(length(path)) AS depth
ORDER BY depth ASC, chunk_id ASC
`, pattern), nil
}
