package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ksec-copilot",
	Short: "AI-Powered Kubernetes Manifest Security Copilot",
	Long: `K-SEC Copilot scans a Kubernetes manifest with a static security scanner,
consolidates the findings against a benchmark knowledge base and walks you
through AI-generated remediation suggestions one decision at a time.`,
}

var DebugMode bool

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// newLogger builds the process logger honoring the --debug flag.
func newLogger() hclog.Logger {
	level := hclog.Warn
	if DebugMode {
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:  "ksec-copilot",
		Level: level,
	})
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&DebugMode, "debug", false, "Enable debug logging")
}
