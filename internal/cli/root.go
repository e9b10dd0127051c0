package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/osgraph/osgraph/internal/logger"
	"github.com/osgraph/osgraph/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "osgraph",
	Short: "osgraph - open-source intelligence graphs from public web data",
	Long: `osgraph investigates a named subject across the public web and assembles
what it finds into a knowledge graph.

It searches for the subject, retrieves candidate pages through a real
browser (escalating to scraping services when blocked), and feeds each
document to a reasoning model that decides what the page adds to the
graph. Identifiers discovered along the way can be enriched against
breach corpora and account enumeration tools.

Only use osgraph on subjects you are authorized to investigate.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("osgraph v0.2.1")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.osgraph/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home + "/.osgraph")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match OSGRAPH_*
	viper.SetEnvPrefix("OSGRAPH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}

	logger.SetVerbose(verbose)
}

// loadConfig merges defaults, the config file and the secret-bearing
// environment variables into a runnable configuration.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Secrets come from the environment only, never from the config file.
	cfg.Oracle.APIKey = os.Getenv("DEEPSEEK_API_KEY")
	if tokens := os.Getenv("SCRAPEDO_TOKENS"); tokens != "" {
		for _, t := range strings.Split(tokens, ",") {
			if t = strings.TrimSpace(t); t != "" {
				cfg.Scrape.APITokens = append(cfg.Scrape.APITokens, t)
			}
		}
	}
	cfg.Scrape.ProfileAPIKey = os.Getenv("PROXYCURL_API_KEY")
	cfg.Enrich.BreachAPIKey = os.Getenv("HIBP_API_KEY")

	cfg.Output.Verbose = verbose
	return cfg, nil
}
