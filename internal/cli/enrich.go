package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/osgraph/osgraph/internal/enrich"
	"github.com/osgraph/osgraph/internal/graph"
	"github.com/osgraph/osgraph/internal/logger"
	"github.com/osgraph/osgraph/internal/oracle"
)

var (
	enrichTimeout time.Duration
	subgraphOnly  bool
)

// enrichCmd represents the enrich command
var enrichCmd = &cobra.Command{
	Use:   "enrich <final_graph.json> <person>",
	Short: "Extract a person's subgraph and enrich their identifiers",
	Long: `Enrich loads an assembled graph, finds every person node whose label
contains the given name, and for each one:
- extracts the subgraph reachable from that person
- collects associated identifiers (emails, usernames, phones), including
  those one hop behind the person's social media accounts
- checks emails against the breach corpus (HIBP_API_KEY)
- enumerates accounts for usernames and emails via the configured tools
- asks the reasoning model for investigative guidance over the subgraph
  and the enrichment findings (DEEPSEEK_API_KEY)

Results are written next to the input graph.

Example:
  osgraph enrich data/john_doe/1700000000/final_graph.json "John Doe"
  osgraph enrich final_graph.json john_doe --subgraph-only`,
	Args: cobra.ExactArgs(2),
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	enrichCmd.Flags().DurationVar(&enrichTimeout, "timeout", 15*time.Minute, "overall enrichment timeout")
	enrichCmd.Flags().BoolVar(&subgraphOnly, "subgraph-only", false, "extract subgraphs without external lookups")
}

func runEnrich(cmd *cobra.Command, args []string) error {
	graphPath, person := args[0], args[1]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(graphPath)
	if err != nil {
		return fmt.Errorf("read graph: %w", err)
	}
	g := graph.New()
	if err := json.Unmarshal(data, g); err != nil {
		return fmt.Errorf("parse graph: %w", err)
	}

	people := g.PersonNodes(person)
	if len(people) == 0 {
		return fmt.Errorf("no person node matching %q in %s", person, graphPath)
	}

	ctx, cancel := context.WithTimeout(context.Background(), enrichTimeout)
	defer cancel()

	runner := &enrich.Runner{
		Breach:    enrich.NewBreachClient(cfg.Enrich),
		Usernames: &enrich.UsernameEnumerator{Tool: cfg.Enrich.UsernameTool},
		Emails:    &enrich.EmailEnumerator{Tool: cfg.Enrich.EmailTool},
	}

	var adviser *oracle.Client
	if !subgraphOnly {
		if cfg.Oracle.APIKey == "" {
			fmt.Fprintln(os.Stderr, "Note: DEEPSEEK_API_KEY not set; skipping guidance")
		} else if adviser, err = oracle.NewClient(cfg.Oracle); err != nil {
			return err
		}
	}

	dir := filepath.Dir(graphPath)
	for _, node := range people {
		sub := g.Subgraph(node.ID)
		ids := g.AssociatedIdentifiers(node.ID)

		subPath := filepath.Join(dir, node.ID+"_subgraph.json")
		if err := writeJSON(subPath, sub); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ %s: subgraph with %d nodes, %d edges -> %s\n",
			node.Label, sub.NodeCount(), sub.EdgeCount(), subPath)
		fmt.Fprintf(os.Stderr, "✓ %s: %d emails, %d usernames, %d phones\n",
			node.Label, len(ids.Emails), len(ids.Usernames), len(ids.Phones))

		if subgraphOnly {
			continue
		}

		report := runner.Run(ctx, ids)
		reportPath := filepath.Join(dir, node.ID+"_enrichment.json")
		if err := writeJSON(reportPath, report); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ %s: enrichment report -> %s\n", node.Label, reportPath)

		if adviser != nil {
			if err := writeGuidance(ctx, adviser, dir, node, sub, report); err != nil {
				logger.Warn("guidance unavailable", "person", node.ID, "err", err)
			}
		}
	}
	return nil
}

// writeGuidance asks the oracle for next steps over the enriched subgraph
// and persists the answer beside the other per-person artifacts.
func writeGuidance(ctx context.Context, adviser *oracle.Client, dir string, node *graph.Node, sub *graph.Graph, report *enrich.Report) error {
	subJSON, err := sub.ContextJSON()
	if err != nil {
		return err
	}
	reportJSON, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	advice, err := adviser.Advise(ctx, node.Label, subJSON, string(reportJSON))
	if err != nil {
		return err
	}
	path := filepath.Join(dir, node.ID+"_guidance.md")
	if err := os.WriteFile(path, []byte(advice), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ %s: guidance -> %s\n", node.Label, path)
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
