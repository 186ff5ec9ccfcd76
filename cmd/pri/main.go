package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gopri/adapters/postgres"
	"gopri/app"
	"gopri/internal/config"
	"gopri/internal/judge"
	"gopri/ports"
	"gopri/ui"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	rootCmd := &cobra.Command{
		Use:          "pri",
		Short:        "Participant Reliability Index for Global Dialogues surveys",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")

	rootCmd.AddCommand(newRunCmd(), newServeCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Calculate PRI scores for one survey",
		RunE:  runPRI,
	}
	f := cmd.Flags()
	f.Int("gd", 0, "Global Dialogue survey number, e.g. 3 for GD3")
	f.String("data-root", "", "directory holding the GD<n> export folders")
	f.String("output-root", "", "directory receiving analysis_output/GD<n>/pri")
	f.Int("limit", 0, "only score the first N participants")
	f.Bool("debug", false, "verbose per-component logging")
	f.Bool("llm-judge", false, "score open-ended answers with the LLM judges")
	f.String("unreliable-method", "", "outliers, percentile or threshold")
	f.Float64("unreliable-threshold", 0, "percentile (percentile method) or 1-5 cutoff (threshold method); unset uses the method default")
	f.Bool("html", false, "also write the correlation report as HTML")
	cmd.MarkFlagRequired("gd")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored PRI runs over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if port, _ := cmd.Flags().GetString("port"); port != "" {
				cfg.Server.Port = port
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("DATABASE_URL is required to serve stored runs")
			}
			driver, dsn := cfg.Database.DatabaseDriver()
			db, err := postgres.Open(cmd.Context(), driver, dsn)
			if err != nil {
				return err
			}
			defer db.Close()
			return ui.NewApp(postgres.NewRunRepository(db), ui.Config{Port: cfg.Server.Port}).Start(cmd.Context())
		},
	}
	cmd.Flags().String("port", "", "listen port (default $PORT or 8080)")
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func runPRI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}

	var judgeClient ports.JudgeClient
	if cfg.Judge.Enabled {
		c := judge.NewHTTPClient(cfg.Judge.APIKey, cfg.Judge.BaseURL, cfg.Judge.Timeout, cfg.Judge.Temperature, cfg.Judge.MaxTokens)
		c.Referer = "https://globaldialogues.ai"
		judgeClient = c
	}

	var repo ports.RunRepository
	if cfg.Database.URL != "" {
		driver, dsn := cfg.Database.DatabaseDriver()
		db, err := postgres.Open(cmd.Context(), driver, dsn)
		if err != nil {
			return err
		}
		defer db.Close()
		repo = postgres.NewRunRepository(db)
	}

	res, err := app.NewPRIService(cfg, judgeClient, repo).Run(cmd.Context())
	if err != nil {
		return err
	}
	app.PrintSummary(os.Stdout, res)
	return nil
}

// applyRunFlags overlays explicitly set flags on the loaded config
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("gd") {
		cfg.Paths.Survey, _ = f.GetInt("gd")
	}
	if f.Changed("data-root") {
		cfg.Paths.DataRoot, _ = f.GetString("data-root")
	}
	if f.Changed("output-root") {
		cfg.Paths.OutputRoot, _ = f.GetString("output-root")
	}
	if f.Changed("limit") {
		cfg.Run.ParticipantLimit, _ = f.GetInt("limit")
	}
	if f.Changed("debug") {
		cfg.Run.Debug, _ = f.GetBool("debug")
	}
	if f.Changed("llm-judge") {
		cfg.Judge.Enabled, _ = f.GetBool("llm-judge")
	}
	if f.Changed("unreliable-method") {
		cfg.Run.UnreliableMethod, _ = f.GetString("unreliable-method")
	}
	if f.Changed("unreliable-threshold") {
		th, _ := f.GetFloat64("unreliable-threshold")
		cfg.Run.UnreliableThreshold = &th
	}
	if f.Changed("html") {
		cfg.Run.HTMLReport, _ = f.GetBool("html")
	}
	if cfg.Paths.Survey <= 0 {
		return fmt.Errorf("--gd must be a positive survey number")
	}
	return cfg.Validate()
}
