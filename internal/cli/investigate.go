package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/osgraph/osgraph/internal/pipeline"
)

var (
	invPages       int
	invTimeout     time.Duration
	invHeaded      bool
	invNoCache     bool
	invDataDir     string
	invSkipDomains []string
	invRobots      bool
	invProxy       string
	invProxyUser   string
	invProxyPass   string
)

// investigateCmd represents the investigate command
var investigateCmd = &cobra.Command{
	Use:   "investigate <subject>",
	Short: "Investigate a subject and assemble a knowledge graph",
	Long: `Investigate runs the full pipeline for a named subject:
- page through web search results for the quoted subject name
- retrieve each candidate page (browser first, scraping API when blocked)
- reduce pages to structured text
- merge each document into the knowledge graph via the reasoning model
- write run artifacts (graph JSON, viewer page, source dump, failures)

Requires DEEPSEEK_API_KEY. Optional: SCRAPEDO_TOKENS (comma-separated)
for the escalation tier, PROXYCURL_API_KEY for professional profiles.

Example:
  osgraph investigate "John Doe"
  osgraph investigate "John Doe" --pages 5 --data-dir ./runs
  osgraph investigate "John Doe" --headed --proxy http://127.0.0.1:8080`,
	Args: cobra.ExactArgs(1),
	RunE: runInvestigate,
}

func init() {
	rootCmd.AddCommand(investigateCmd)

	investigateCmd.Flags().IntVar(&invPages, "pages", 3, "search result pages to harvest")
	investigateCmd.Flags().DurationVar(&invTimeout, "timeout", 30*time.Minute, "overall run timeout")
	investigateCmd.Flags().BoolVar(&invHeaded, "headed", false, "run the browser with a visible window")
	investigateCmd.Flags().BoolVar(&invNoCache, "no-cache", false, "disable the escalation response cache")
	investigateCmd.Flags().StringVar(&invDataDir, "data-dir", "data", "directory for run artifacts")
	investigateCmd.Flags().StringSliceVar(&invSkipDomains, "skip-domain", nil, "extra domains that bypass the browser (substring match)")
	investigateCmd.Flags().BoolVar(&invRobots, "respect-robots", false, "route robots-disallowed links to the escalation tier")
	investigateCmd.Flags().StringVar(&invProxy, "proxy", "", "proxy server for the browser (scheme://host:port)")
	investigateCmd.Flags().StringVar(&invProxyUser, "proxy-user", "", "proxy username")
	investigateCmd.Flags().StringVar(&invProxyPass, "proxy-pass", "", "proxy password")
}

func runInvestigate(cmd *cobra.Command, args []string) error {
	subject := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Oracle.APIKey == "" {
		return fmt.Errorf("DEEPSEEK_API_KEY environment variable not set")
	}

	cfg.Search.Pages = invPages
	cfg.Browser.Headless = !invHeaded
	cfg.Browser.ProxyServer = invProxy
	cfg.Browser.ProxyUsername = invProxyUser
	cfg.Browser.ProxyPassword = invProxyPass
	cfg.Cache.Enabled = !invNoCache
	cfg.Output.DataDir = invDataDir
	cfg.Scrape.SkipDomains = append(cfg.Scrape.SkipDomains, invSkipDomains...)
	cfg.Scrape.RespectRobots = invRobots

	if len(cfg.Scrape.APITokens) == 0 {
		fmt.Fprintln(os.Stderr, "Note: SCRAPEDO_TOKENS not set; blocked pages cannot be escalated")
	}

	ctx, cancel := context.WithTimeout(context.Background(), invTimeout)
	defer cancel()

	summary, err := pipeline.Run(ctx, cfg, subject)
	if err != nil {
		return fmt.Errorf("investigation failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Discovered %d links\n", summary.Links)
	fmt.Fprintf(os.Stderr, "✓ Retrieved %d documents (%d failed)\n", summary.Documents, summary.Failed)
	fmt.Fprintf(os.Stderr, "✓ Assembled graph: %d nodes, %d edges\n", summary.Nodes, summary.Edges)
	fmt.Fprintf(os.Stderr, "✓ Finished in %s\n\n", summary.Elapsed)
	fmt.Printf("Artifacts: %s\n", summary.Dir)
	return nil
}
