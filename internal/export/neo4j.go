// Package export pushes finished outputs to optional external sinks: the
// co-authorship graph to Neo4j and produced files to S3-compatible storage.
// Sinks are write-only; nothing is read back.
package export

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"

	"github.com/attlih/cris-network-tool/internal/graph"
	"github.com/attlih/cris-network-tool/internal/observability"
)

// DefaultNeo4jBatchSize is the number of rows sent per UNWIND statement.
const DefaultNeo4jBatchSize = 500

const (
	mergeAuthorsCypher = `UNWIND $rows AS row
MERGE (a:Author {name: row.name})
SET a.affiliation = row.affiliation`

	mergeCoauthoredCypher = `UNWIND $rows AS row
MERGE (s:Author {name: row.source})
MERGE (t:Author {name: row.target})
MERGE (s)-[r:COAUTHORED {publication: row.publication, year: row.year}]->(t)`
)

// Neo4jConfig holds connection settings for the graph sink.
type Neo4jConfig struct {
	URI       string
	Username  string
	Password  string
	Database  string
	BatchSize int
}

// cypherRunner executes one write statement in its own managed transaction.
type cypherRunner interface {
	runWrite(ctx context.Context, cypher string, params map[string]any) error
	close(ctx context.Context) error
}

type driverRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

func (r *driverRunner) runWrite(ctx context.Context, cypher string, params map[string]any) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: r.database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	return err
}

func (r *driverRunner) close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// Neo4jSink writes (:Author) nodes and [:COAUTHORED] relationships with MERGE,
// so repeated pushes of the same graph are idempotent.
type Neo4jSink struct {
	runner    cypherRunner
	batchSize int
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// NewNeo4jSink connects to Neo4j and verifies connectivity.
func NewNeo4jSink(ctx context.Context, cfg Neo4jConfig, logger zerolog.Logger, metrics *observability.Metrics) (*Neo4jSink, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connecting to neo4j at %s: %w", cfg.URI, err)
	}
	return newNeo4jSink(&driverRunner{driver: driver, database: cfg.Database}, cfg.BatchSize, logger, metrics), nil
}

func newNeo4jSink(runner cypherRunner, batchSize int, logger zerolog.Logger, metrics *observability.Metrics) *Neo4jSink {
	if batchSize <= 0 {
		batchSize = DefaultNeo4jBatchSize
	}
	return &Neo4jSink{
		runner:    runner,
		batchSize: batchSize,
		logger:    observability.WithComponent(logger, "neo4j"),
		metrics:   metrics,
	}
}

// Push writes the nodes, then the edges, of g.
func (s *Neo4jSink) Push(ctx context.Context, g *graph.Graph) (err error) {
	defer func() { s.metrics.RecordExport("neo4j", err) }()

	nodes := make([]map[string]any, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes = append(nodes, map[string]any{"name": n.ID, "affiliation": n.Affiliation})
	}
	if err := s.writeBatches(ctx, mergeAuthorsCypher, nodes); err != nil {
		return fmt.Errorf("writing authors: %w", err)
	}

	edges := make([]map[string]any, 0, len(g.Edges))
	for _, e := range g.Edges {
		edges = append(edges, map[string]any{
			"source":      e.Source,
			"target":      e.Target,
			"publication": e.Publication,
			"year":        e.Year,
		})
	}
	if err := s.writeBatches(ctx, mergeCoauthoredCypher, edges); err != nil {
		return fmt.Errorf("writing co-authorships: %w", err)
	}

	s.logger.Info().
		Int("nodes", len(nodes)).
		Int("edges", len(edges)).
		Msg("graph pushed to neo4j")
	return nil
}

func (s *Neo4jSink) writeBatches(ctx context.Context, cypher string, rows []map[string]any) error {
	for start := 0; start < len(rows); start += s.batchSize {
		end := min(start+s.batchSize, len(rows))
		if err := s.runner.runWrite(ctx, cypher, map[string]any{"rows": rows[start:end]}); err != nil {
			return fmt.Errorf("rows %d-%d: %w", start, end-1, err)
		}
	}
	return nil
}

// Close releases the driver.
func (s *Neo4jSink) Close(ctx context.Context) error {
	return s.runner.close(ctx)
}
