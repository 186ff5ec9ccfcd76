package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopri/domain/pri"
	"gopri/internal/errors"
	"gopri/internal/percent"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Paths      PathConfig      `yaml:"paths"`
	Thresholds ThresholdConfig `yaml:"thresholds"`
	Weights    WeightConfig    `yaml:"weights"`
	Judge      JudgeConfig     `yaml:"judge"`
	Run        RunConfig       `yaml:"run"`
	Database   DatabaseConfig  `yaml:"database"`
	Server     ServerConfig    `yaml:"server"`
}

// PathConfig locates the survey exports and the output directory
type PathConfig struct {
	DataRoot   string `yaml:"data_root"`
	OutputRoot string `yaml:"output_root"`
	Survey     int    `yaml:"survey"`
}

// ThresholdConfig holds the signal cutoffs
type ThresholdConfig struct {
	ASCHigh               float64 `yaml:"asc_high"`
	ASCLow                float64 `yaml:"asc_low"`
	DisagreementAll       float64 `yaml:"disagreement_all"`
	DisagreementSegment   float64 `yaml:"disagreement_segment"`
	MajorSegmentMin       float64 `yaml:"major_segment_min"`
	DurationReasonableMax float64 `yaml:"duration_reasonable_max_seconds"`
	UninformativeTag      string  `yaml:"uninformative_tag"`
}

// WeightConfig holds the two fusion weight sets
type WeightConfig struct {
	Heuristic map[pri.Component]float64 `yaml:"heuristic"`
	Enhanced  map[pri.Component]float64 `yaml:"enhanced"`
}

// JudgeConfig holds external judge settings
type JudgeConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Models        []string      `yaml:"models"`
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"-"`
	MaxConcurrent int           `yaml:"max_concurrent"`
	BatchSize     int           `yaml:"batch_size"`
	Timeout       time.Duration `yaml:"timeout"`
	Temperature   float64       `yaml:"temperature"`
	MaxTokens     int           `yaml:"max_tokens"`
}

// RunConfig holds per-run switches. A nil UnreliableThreshold uses the
// method default; zero is a legal explicit value.
type RunConfig struct {
	ParticipantLimit    int      `yaml:"participant_limit"`
	Debug               bool     `yaml:"debug"`
	UnreliableMethod    string   `yaml:"unreliable_method"`
	UnreliableThreshold *float64 `yaml:"unreliable_threshold"`
	HTMLReport          bool     `yaml:"html_report"`
}

// DatabaseConfig holds result storage settings. An empty URL disables storage.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string `yaml:"port"`
}

// Default judge models
var DefaultJudgeModels = []string{
	"anthropic/claude-sonnet-4",
	"openai/gpt-4o-mini",
	"google/gemini-2.5-flash-preview",
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Paths: PathConfig{
			DataRoot:   "Data",
			OutputRoot: "analysis_output",
		},
		Thresholds: ThresholdConfig{
			ASCHigh:               0.70,
			ASCLow:                0.30,
			DisagreementAll:       0.30,
			DisagreementSegment:   0.40,
			MajorSegmentMin:       20,
			DurationReasonableMax: 60 * 90,
			UninformativeTag:      "Uninformative answer",
		},
		Weights: WeightConfig{
			Heuristic: map[pri.Component]float64{
				pri.ComponentDuration:     0.30,
				pri.ComponentLowQuality:   0.30,
				pri.ComponentDisagreement: 0.20,
				pri.ComponentASC:          0.20,
			},
			Enhanced: map[pri.Component]float64{
				pri.ComponentDuration:     0.20,
				pri.ComponentLowQuality:   0.20,
				pri.ComponentDisagreement: 0.15,
				pri.ComponentASC:          0.15,
				pri.ComponentJudge:        0.30,
			},
		},
		Judge: JudgeConfig{
			Models:        append([]string(nil), DefaultJudgeModels...),
			BaseURL:       "https://openrouter.ai/api/v1",
			MaxConcurrent: 200,
			BatchSize:     100,
			Timeout:       60 * time.Second,
			Temperature:   0.1,
			MaxTokens:     500,
		},
		Run: RunConfig{
			UnreliableMethod: "outliers",
		},
		Server: ServerConfig{Port: "8080"},
	}
}

// Load reads configuration from environment variables, overlays the YAML file
// at path (or PRI_CONFIG_FILE when path is empty) and validates the result.
func Load(path string) (*Config, error) {
	config := Default()

	loadPathConfig(&config.Paths)
	loadThresholdConfig(&config.Thresholds)
	loadJudgeConfig(&config.Judge)
	loadRunConfig(&config.Run)
	config.Database.URL = getEnvOrDefault("DATABASE_URL", "")
	config.Server.Port = getEnvOrDefault("PORT", config.Server.Port)

	if path == "" {
		path = os.Getenv("PRI_CONFIG_FILE")
	}
	if path != "" {
		if err := config.overlayFile(path); err != nil {
			return nil, errors.Wrap(err, "failed to load configuration file")
		}
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.ConfigInvalidf("cannot read %s: %v", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.ConfigInvalidf("cannot parse %s: %v", path, err)
	}
	return nil
}

func loadPathConfig(p *PathConfig) {
	p.DataRoot = getEnvOrDefault("PRI_DATA_ROOT", p.DataRoot)
	p.OutputRoot = getEnvOrDefault("PRI_OUTPUT_ROOT", p.OutputRoot)
	p.Survey = getEnvIntOrDefault("PRI_SURVEY", p.Survey)
}

func loadThresholdConfig(t *ThresholdConfig) {
	t.ASCHigh = getEnvFloatOrDefault("PRI_ASC_HIGH", t.ASCHigh)
	t.ASCLow = getEnvFloatOrDefault("PRI_ASC_LOW", t.ASCLow)
	t.DisagreementAll = getEnvFloatOrDefault("PRI_DISAGREEMENT_ALL", t.DisagreementAll)
	t.DisagreementSegment = getEnvFloatOrDefault("PRI_DISAGREEMENT_SEGMENT", t.DisagreementSegment)
	t.MajorSegmentMin = getEnvFloatOrDefault("PRI_MAJOR_SEGMENT_MIN", t.MajorSegmentMin)
	t.DurationReasonableMax = getEnvFloatOrDefault("PRI_DURATION_MAX_SECONDS", t.DurationReasonableMax)
	t.UninformativeTag = getEnvOrDefault("PRI_UNINFORMATIVE_TAG", t.UninformativeTag)
}

func loadJudgeConfig(j *JudgeConfig) {
	j.Enabled = getEnvBoolOrDefault("PRI_LLM_JUDGE", j.Enabled)
	if models := os.Getenv("PRI_JUDGE_MODELS"); models != "" {
		j.Models = splitList(models)
	}
	j.BaseURL = getEnvOrDefault("OPENROUTER_BASE_URL", j.BaseURL)
	j.APIKey = getEnvOrDefault("OPENROUTER_API_KEY", j.APIKey)
	j.MaxConcurrent = getEnvIntOrDefault("PRI_JUDGE_MAX_CONCURRENT", j.MaxConcurrent)
	j.BatchSize = getEnvIntOrDefault("PRI_JUDGE_BATCH_SIZE", j.BatchSize)
	j.Timeout = getEnvDurationOrDefault("PRI_JUDGE_TIMEOUT", j.Timeout)
	j.Temperature = getEnvFloatOrDefault("PRI_JUDGE_TEMPERATURE", j.Temperature)
	j.MaxTokens = getEnvIntOrDefault("PRI_JUDGE_MAX_TOKENS", j.MaxTokens)
}

func loadRunConfig(r *RunConfig) {
	r.ParticipantLimit = getEnvIntOrDefault("PRI_LIMIT", r.ParticipantLimit)
	r.Debug = getEnvBoolOrDefault("PRI_DEBUG", r.Debug)
	r.UnreliableMethod = getEnvOrDefault("PRI_UNRELIABLE_METHOD", r.UnreliableMethod)
	if value := os.Getenv("PRI_UNRELIABLE_THRESHOLD"); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			r.UnreliableThreshold = &f
		}
	}
	r.HTMLReport = getEnvBoolOrDefault("PRI_HTML_REPORT", r.HTMLReport)
}

// Validate checks weights, thresholds and judge settings
func (c *Config) Validate() error {
	if err := validateWeights("heuristic", c.Weights.Heuristic, pri.HeuristicComponents); err != nil {
		return err
	}
	enhanced := append(append([]pri.Component(nil), pri.HeuristicComponents...), pri.ComponentJudge)
	if err := validateWeights("enhanced", c.Weights.Enhanced, enhanced); err != nil {
		return err
	}

	t := c.Thresholds
	for name, v := range map[string]float64{
		"asc_high":             t.ASCHigh,
		"asc_low":              t.ASCLow,
		"disagreement_all":     t.DisagreementAll,
		"disagreement_segment": t.DisagreementSegment,
	} {
		if _, err := percent.RequireRatio(v); err != nil {
			return errors.ConfigInvalidf("threshold %s: %v", name, err)
		}
	}
	if t.ASCLow >= t.ASCHigh {
		return errors.ConfigInvalidf("asc_low (%.2f) must be below asc_high (%.2f)", t.ASCLow, t.ASCHigh)
	}
	if t.MajorSegmentMin < 0 {
		return errors.ConfigInvalid("major_segment_min cannot be negative")
	}
	if t.DurationReasonableMax <= 0 {
		return errors.ConfigInvalid("duration reasonable maximum must be positive")
	}

	if c.Judge.Enabled {
		if c.Judge.APIKey == "" {
			return errors.ConfigInvalid("OPENROUTER_API_KEY is required when the LLM judge is enabled")
		}
		if len(c.Judge.Models) == 0 {
			return errors.ConfigInvalid("at least one judge model is required")
		}
		if c.Judge.MaxConcurrent <= 0 || c.Judge.BatchSize <= 0 {
			return errors.ConfigInvalid("judge concurrency and batch size must be positive")
		}
		if c.Judge.Timeout <= 0 {
			return errors.ConfigInvalid("judge timeout must be positive")
		}
	}

	switch c.Run.UnreliableMethod {
	case "outliers", "percentile", "threshold":
	default:
		return errors.ConfigInvalidf("unknown unreliable method %q", c.Run.UnreliableMethod)
	}
	if th := c.Run.UnreliableThreshold; th != nil {
		if *th < 0 {
			return errors.ConfigInvalidf("unreliable threshold %.2f cannot be negative", *th)
		}
		if c.Run.UnreliableMethod == "percentile" && *th > 100 {
			return errors.ConfigInvalidf("unreliable percentile %.2f must be between 0 and 100", *th)
		}
	}
	if c.Run.ParticipantLimit < 0 {
		return errors.ConfigInvalid("participant limit cannot be negative")
	}
	return nil
}

func validateWeights(name string, weights map[pri.Component]float64, want []pri.Component) error {
	if len(weights) != len(want) {
		return errors.ConfigInvalidf("%s weights must cover exactly %d components, got %d", name, len(want), len(weights))
	}
	sum := 0.0
	for _, c := range want {
		w, ok := weights[c]
		if !ok {
			return errors.ConfigInvalidf("%s weights are missing component %s", name, c)
		}
		if w < 0 {
			return errors.ConfigInvalidf("%s weight for %s is negative", name, c)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-6 {
		return errors.ConfigInvalidf("%s weights sum to %.6f, expected 1", name, sum)
	}
	return nil
}

// OutputDir is where a run writes its reports
func (p PathConfig) OutputDir() string {
	return filepath.Join(p.OutputRoot, fmt.Sprintf("GD%d", p.Survey), "pri")
}

// DatabaseDriver maps the URL scheme to a database/sql driver name
func (d DatabaseConfig) DatabaseDriver() (driver, dsn string) {
	switch {
	case strings.HasPrefix(d.URL, "sqlite://"):
		return "sqlite", strings.TrimPrefix(d.URL, "sqlite://")
	case strings.HasPrefix(d.URL, "file:"):
		return "sqlite", d.URL
	default:
		return "postgres", d.URL
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
