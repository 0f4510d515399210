package export

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attlih/cris-network-tool/internal/domain"
	"github.com/attlih/cris-network-tool/internal/graph"
	"github.com/attlih/cris-network-tool/internal/observability"
)

type runCall struct {
	cypher string
	rows   []map[string]any
}

type fakeRunner struct {
	calls  []runCall
	failAt int
	closed bool
}

func (f *fakeRunner) runWrite(_ context.Context, cypher string, params map[string]any) error {
	f.calls = append(f.calls, runCall{cypher: cypher, rows: params["rows"].([]map[string]any)})
	if f.failAt > 0 && len(f.calls) == f.failAt {
		return errors.New("transient failure")
	}
	return nil
}

func (f *fakeRunner) close(context.Context) error {
	f.closed = true
	return nil
}

func sampleGraph() *graph.Graph {
	return &graph.Graph{
		Edges: []domain.Edge{
			domain.NewEdge("A", "B", "P", "2020"),
			domain.NewEdge("A", "C", "P", "2020"),
			domain.NewEdge("B", "C", "P", "2020"),
		},
		Nodes: []domain.Node{
			{ID: "A", Label: "A", Affiliation: "X"},
			{ID: "B", Label: "B", Affiliation: "Y"},
			{ID: "C", Label: "C"},
		},
	}
}

func TestNeo4jSink_Push(t *testing.T) {
	runner := &fakeRunner{}
	metrics := observability.NewMetrics("test_neo4j_push")
	sink := newNeo4jSink(runner, 2, zerolog.Nop(), metrics)

	require.NoError(t, sink.Push(context.Background(), sampleGraph()))

	require.Len(t, runner.calls, 4)
	assert.Equal(t, mergeAuthorsCypher, runner.calls[0].cypher)
	assert.Len(t, runner.calls[0].rows, 2)
	assert.Len(t, runner.calls[1].rows, 1)
	assert.Equal(t, map[string]any{"name": "C", "affiliation": ""}, runner.calls[1].rows[0])

	assert.Equal(t, mergeCoauthoredCypher, runner.calls[2].cypher)
	assert.Equal(t, map[string]any{
		"source": "A", "target": "B", "publication": "P", "year": "2020",
	}, runner.calls[2].rows[0])
	assert.Len(t, runner.calls[3].rows, 1)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Exports.WithLabelValues("neo4j", "ok")))

	require.NoError(t, sink.Close(context.Background()))
	assert.True(t, runner.closed)
}

func TestNeo4jSink_PushFailure(t *testing.T) {
	runner := &fakeRunner{failAt: 3}
	metrics := observability.NewMetrics("test_neo4j_fail")
	sink := newNeo4jSink(runner, 2, zerolog.Nop(), metrics)

	err := sink.Push(context.Background(), sampleGraph())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing co-authorships")
	assert.Contains(t, err.Error(), "rows 0-1")
	assert.Len(t, runner.calls, 3)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Exports.WithLabelValues("neo4j", "failed")))
}

func TestNeo4jSink_EmptyGraph(t *testing.T) {
	runner := &fakeRunner{}
	sink := newNeo4jSink(runner, 0, zerolog.Nop(), nil)

	require.NoError(t, sink.Push(context.Background(), &graph.Graph{}))
	assert.Empty(t, runner.calls)
	assert.Equal(t, DefaultNeo4jBatchSize, sink.batchSize)
}
