package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/ksec-copilot/pkg/adk"
	"github.com/user/ksec-copilot/pkg/config"
	"github.com/user/ksec-copilot/pkg/engine"
	"github.com/user/ksec-copilot/pkg/retrieval"
	"github.com/user/ksec-copilot/pkg/scanner"
)

var (
	analyzeQuestion string
	analyzeSarif    string
	analyzeReview   bool
	analyzeChat     bool
	analyzeOutput   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <manifest.yaml>",
	Short: "Scan a manifest, consolidate benchmark evidence and generate a remediation report",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logger := newLogger()

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			return
		}

		manifestPath := args[0]
		data, err := os.ReadFile(manifestPath)
		if err != nil {
			fmt.Printf("Error reading manifest: %v\n", err)
			return
		}
		manifest := string(data)

		providerName := cfg.SelectedProvider
		if providerName == "" {
			providerName = adk.DefaultProvider
		}
		apiKey := cfg.GetAPIKey(providerName)
		if apiKey == "" && providerName == adk.DefaultProvider {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		}
		if apiKey == "" {
			fmt.Println("Error: API Key not found.")
			fmt.Println("Please run 'ksec-copilot config setup' to configure your keys.")
			return
		}

		ctx := context.Background()
		fmt.Printf("Connecting to %s (Model: %s)...\n", providerName, cfg.SelectedModel)
		provider, err := adk.NewProvider(ctx, providerName, apiKey, cfg.SelectedModel)
		if err != nil {
			fmt.Printf("Error creating AI provider: %v\n", err)
			return
		}
		if closer, ok := provider.(interface{ Close() }); ok {
			defer closer.Close()
		}

		var scan engine.Scanner
		if analyzeSarif != "" {
			scan = &scanner.SARIFFileScanner{Path: analyzeSarif, Logger: logger.Named("sarif")}
		} else {
			scan = scanner.NewTrivyScanner(cfg.Scanner.Binary, logger.Named("trivy"))
		}

		retriever := retrieval.NewElasticRetriever(
			cfg.Retrieval.URL,
			cfg.Retrieval.Index,
			time.Duration(cfg.Retrieval.TimeoutSeconds)*time.Second,
			logger.Named("retrieval"),
		)

		pipeline := &engine.Pipeline{
			Scanner: scan,
			Consolidator: &engine.Consolidator{
				Retriever:   retriever,
				Logger:      logger.Named("consolidator"),
				MaxParallel: 4,
			},
			Generator: adk.NewAnalyst(provider),
			Logger:    logger.Named("pipeline"),
		}

		fmt.Println("Scanning manifest and consolidating benchmark evidence...")
		analysis, err := pipeline.Analyze(ctx, manifest, analyzeQuestion)
		if err != nil {
			fmt.Printf("Analysis failed: %v\n", err)
			return
		}

		if analysis.NoIssues {
			fmt.Println("\nScan result: no security issues found. The manifest looks clean.")
			return
		}

		fmt.Printf("\nQueries generated: %d, unique benchmark documents: %d\n",
			analysis.Summary.TotalQueries, analysis.Summary.UniqueDocuments)
		fmt.Println("\n[Analysis Report]")
		fmt.Println("--------------------------------------------------")
		fmt.Println(analysis.Report)
		fmt.Println("--------------------------------------------------")

		parser := &engine.SuggestionParser{Logger: logger.Named("parser")}
		suggestions, dropped := parser.Parse(analysis.Report)
		if dropped > 0 {
			fmt.Printf("Note: %d malformed suggestion block(s) were dropped.\n", dropped)
		}

		if analyzeReview {
			if len(suggestions) == 0 {
				fmt.Println("No actionable suggestions to review.")
			} else {
				session := engine.NewReviewSession(manifest, suggestions, &engine.PatchEngine{Logger: logger.Named("patch")}, logger.Named("review"))
				runReview(session)

				outPath := analyzeOutput
				if outPath == "" {
					outPath = manifestPath + ".patched.yaml"
				}
				if err := os.WriteFile(outPath, []byte(session.Document()), 0644); err != nil {
					fmt.Printf("Error writing patched manifest: %v\n", err)
				} else {
					fmt.Printf("Patched manifest written to %s\n", outPath)
				}
			}
		} else if len(suggestions) > 0 {
			fmt.Printf("%d remediation suggestion(s) parsed. Re-run with --review to apply them interactively.\n", len(suggestions))
		}

		if analyzeChat {
			runChat(ctx, provider, analysis.Report)
		}
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeQuestion, "question", "q", "", "Question to ask about the manifest")
	analyzeCmd.Flags().StringVar(&analyzeSarif, "sarif", "", "Use findings from a SARIF report instead of running the scanner")
	analyzeCmd.Flags().BoolVar(&analyzeReview, "review", false, "Review and apply suggestions interactively")
	analyzeCmd.Flags().BoolVar(&analyzeChat, "chat", false, "Ask follow-up questions after the analysis")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "Path for the patched manifest (default: <manifest>.patched.yaml)")
	rootCmd.AddCommand(analyzeCmd)
}
