package pipeline

import (
	"context"

	"github.com/osgraph/osgraph/internal/graph"
	"github.com/osgraph/osgraph/internal/logger"
)

// Reasoner is the oracle interface the assembler consumes.
type Reasoner interface {
	Derive(ctx context.Context, subject, graphJSON, document string) (string, error)
}

// Assembler folds documents into the graph one at a time. The loop is
// strictly sequential: each call sees the graph as left by the previous
// document, which is what lets the oracle link new facts to old ones.
type Assembler struct {
	oracle Reasoner
}

// NewAssembler builds an assembler over the given oracle.
func NewAssembler(oracle Reasoner) *Assembler {
	return &Assembler{oracle: oracle}
}

// Assemble merges every document into g. A failing document is recorded and
// skipped; the graph carries on from its last good state.
func (a *Assembler) Assemble(ctx context.Context, g *graph.Graph, subject string, docs []Document) (applied int, failed []FailedLink) {
	for i, doc := range docs {
		if ctx.Err() != nil {
			for _, rest := range docs[i:] {
				failed = append(failed, FailedLink{URL: rest.URL, Reason: ctx.Err().Error()})
			}
			return applied, failed
		}

		graphJSON, err := g.ContextJSON()
		if err != nil {
			failed = append(failed, FailedLink{URL: doc.URL, Reason: err.Error()})
			continue
		}

		raw, err := a.oracle.Derive(ctx, subject, graphJSON, doc.Content)
		if err != nil {
			logger.Warn("oracle call failed", "url", doc.URL, "err", err)
			failed = append(failed, FailedLink{URL: doc.URL, Reason: err.Error()})
			continue
		}

		delta, err := graph.ParseDelta(raw)
		if err != nil {
			logger.Warn("unparseable delta", "url", doc.URL, "err", err)
			failed = append(failed, FailedLink{URL: doc.URL, Reason: err.Error()})
			continue
		}

		stats := g.Apply(delta)
		applied++
		for _, reason := range stats.Dropped {
			logger.Warn("delta entry dropped", "url", doc.URL, "reason", reason)
		}
		logger.Info("document merged", "url", doc.URL,
			"nodes_added", stats.NodesAdded, "nodes_merged", stats.NodesMerged,
			"edges_added", stats.EdgesAdded, "dropped", len(stats.Dropped))
	}
	return applied, failed
}
