// =============================================================================
// Skrubbify - Configuration Module
// =============================================================================
//
// This module loads the application configuration. Every layout offset and
// pricing rule that has differed between deployments lives here instead of
// in code.
//
// SOURCES (later wins):
//   1. Built-in defaults (the canonical Snabbgross receipt)
//   2. The YAML configuration file (skrubbify.yaml), if present
//   3. A .env file in the working directory, if present
//   4. SKRUBBIFY_* environment variables
//   5. Command-line flags (applied by the cmd package)
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/skrubbify/internal/extractor"
	"github.com/ginjaninja78/skrubbify/internal/receipt"
	"github.com/ginjaninja78/skrubbify/internal/report"
)

// DefaultConfigFile is the configuration file read when --config is not set.
const DefaultConfigFile = "skrubbify.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SKRUBBIFY_"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for receipts when no file is given.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives batch reports and error logs.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// ArchiveDir receives processed receipts when archiving is enabled.
	// Default: "./archive"
	ArchiveDir string `yaml:"archive_dir"`

	// OutputName names batch reports. Placeholders:
	//   {original}  - receipt file name without extension
	//   {timestamp} - YYYYMMDD_HHMMSS
	//   {date}      - YYYYMMDD
	//   {uuid}      - a random UUID
	// Default: "{original}_Skrubbenpriser.txt"
	OutputName string `yaml:"output_name"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel is one of "debug", "info", "warn", "error".
	// Default: "warn"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency bounds the receipts processed at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError keeps processing the batch after a failed receipt.
	// Default: true
	ContinueOnError *bool `yaml:"continue_on_error"`

	Extraction ExtractionConfig `yaml:"extraction"`
	Layout     LayoutConfig     `yaml:"layout"`
	Pricing    PricingConfig    `yaml:"pricing"`
	Report     ReportConfig     `yaml:"report"`
}

// ExtractionConfig configures the text extraction.
type ExtractionConfig struct {
	// Pages is "all" or "first".
	Pages string `yaml:"pages"`

	// CharWidth is the column advance in PDF units; 0 derives it from the
	// font size.
	CharWidth float64 `yaml:"char_width"`

	// OriginX is the x coordinate of column zero.
	OriginX float64 `yaml:"origin_x"`
}

// LayoutConfig locates the item table and its columns.
type LayoutConfig struct {
	// Isolation is "delimiter" or "markers".
	Isolation string `yaml:"isolation"`

	Delimiter  string `yaml:"delimiter"`
	HeaderSkip *int   `yaml:"header_skip"`

	StartMarker string `yaml:"start_marker"`
	StopMarker  string `yaml:"stop_marker"`

	// Ranges are [start, end) rune offsets.
	NameRange     []int `yaml:"name_range"`
	QuantityRange []int `yaml:"quantity_range"`
	PriceRange    []int `yaml:"price_range"`
}

// PricingConfig holds the business rules.
//
// QUESTION FOR PRODUCT OWNER: deployments have used threshold 0.85 and 0.95,
// a +1 deposit and a +2 flat surcharge. The defaults follow the newest
// receipt script; the alternatives are one setting away.
type PricingConfig struct {
	// RoundingThreshold: ceil(p)-p above this rounds to nearest instead.
	// Default: 0.95
	RoundingThreshold *float64 `yaml:"rounding_threshold"`

	// RoundingMode is "half_even" or "half_up".
	RoundingMode string `yaml:"rounding_mode"`

	// VATFactor multiplies listed prices. 1.0 when VAT is included, 1.12
	// for 12% food VAT.
	VATFactor float64 `yaml:"vat_factor"`

	DepositMarker string `yaml:"deposit_marker"`

	// DepositMode is "fold" or "flat".
	DepositMode          string `yaml:"deposit_mode"`
	DepositFlatSurcharge *int64 `yaml:"deposit_flat_surcharge"`

	// FlatSurcharge is added to every price after rounding.
	FlatSurcharge int64 `yaml:"flat_surcharge"`

	ExcludeMarkers []string `yaml:"exclude_markers"`
}

// ReportConfig configures the report output.
type ReportConfig struct {
	// Output is the report path for a single receipt.
	// Default: "Skrubbenpriser.txt"
	Output string `yaml:"output"`

	// Format overrides the extension-based format ("text", "csv", "xlsx", "xml").
	Format string `yaml:"format"`

	// NameWidth pads names in the text report. Default: 34
	NameWidth int `yaml:"name_width"`

	TrimNames bool `yaml:"trim_names"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the configuration file at path and applies environment
// overrides. A missing file is not an error when required is false.
func Load(path string, required bool) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// A missing .env file is the common case.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset option.
func applyDefaults(cfg *Config) {
	if cfg.InputDir == "" {
		cfg.InputDir = "./input"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.ArchiveDir == "" {
		cfg.ArchiveDir = "./archive"
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "{original}_Skrubbenpriser.txt"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.ContinueOnError == nil {
		cfg.ContinueOnError = boolPtr(true)
	}

	// Extraction defaults.
	if cfg.Extraction.Pages == "" {
		cfg.Extraction.Pages = extractor.PagesAll
	}

	// Layout defaults.
	layout := receipt.DefaultLayout()
	if cfg.Layout.Isolation == "" {
		cfg.Layout.Isolation = layout.Isolation
	}
	if cfg.Layout.Delimiter == "" {
		cfg.Layout.Delimiter = layout.Delimiter
	}
	if cfg.Layout.HeaderSkip == nil {
		cfg.Layout.HeaderSkip = intPtr(layout.HeaderSkip)
	}
	if len(cfg.Layout.NameRange) == 0 {
		cfg.Layout.NameRange = []int{layout.NameRange.Start, layout.NameRange.End}
	}
	if len(cfg.Layout.QuantityRange) == 0 {
		cfg.Layout.QuantityRange = []int{layout.QuantityRange.Start, layout.QuantityRange.End}
	}
	if len(cfg.Layout.PriceRange) == 0 {
		cfg.Layout.PriceRange = []int{layout.PriceRange.Start, layout.PriceRange.End}
	}

	// Pricing defaults.
	if cfg.Pricing.RoundingThreshold == nil {
		cfg.Pricing.RoundingThreshold = floatPtr(receipt.DefaultRoundingThreshold.InexactFloat64())
	}
	if cfg.Pricing.RoundingMode == "" {
		cfg.Pricing.RoundingMode = receipt.RoundHalfEven
	}
	if cfg.Pricing.VATFactor == 0 {
		cfg.Pricing.VATFactor = 1.0
	}
	if cfg.Pricing.DepositMarker == "" {
		cfg.Pricing.DepositMarker = receipt.DefaultDepositMarker
	}
	if cfg.Pricing.DepositMode == "" {
		cfg.Pricing.DepositMode = receipt.DepositFold
	}
	if cfg.Pricing.DepositFlatSurcharge == nil {
		cfg.Pricing.DepositFlatSurcharge = int64Ptr(1)
	}
	if cfg.Pricing.ExcludeMarkers == nil {
		cfg.Pricing.ExcludeMarkers = append([]string(nil), receipt.DefaultExcludeMarkers...)
	}

	// Report defaults.
	if cfg.Report.Output == "" {
		cfg.Report.Output = "Skrubbenpriser.txt"
	}
	if cfg.Report.NameWidth == 0 {
		cfg.Report.NameWidth = report.DefaultOptions().NameWidth
	}
}

// Validate checks the configuration by building every component option.
func (c *Config) Validate() error {
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level: %q", c.LogLevel)
	}
	if err := c.ExtractorOptions().Validate(); err != nil {
		return fmt.Errorf("extraction: %w", err)
	}

	opts, err := c.ReceiptOptions()
	if err != nil {
		return err
	}
	if err := opts.Layout.Validate(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	if err := opts.Pricing.Validate(); err != nil {
		return fmt.Errorf("pricing: %w", err)
	}

	if c.Report.Format != "" {
		if _, err := report.New(c.Report.Format, c.ReportOptions()); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}
	return nil
}

// =============================================================================
// COMPONENT OPTIONS
// =============================================================================

// ExtractorOptions returns the text extraction options.
func (c *Config) ExtractorOptions() extractor.Options {
	return extractor.Options{
		Pages:     c.Extraction.Pages,
		CharWidth: c.Extraction.CharWidth,
		OriginX:   c.Extraction.OriginX,
	}
}

// ReceiptOptions converts the layout and pricing sections.
func (c *Config) ReceiptOptions() (receipt.Options, error) {
	nameRange, err := toRange("name_range", c.Layout.NameRange)
	if err != nil {
		return receipt.Options{}, err
	}
	quantityRange, err := toRange("quantity_range", c.Layout.QuantityRange)
	if err != nil {
		return receipt.Options{}, err
	}
	priceRange, err := toRange("price_range", c.Layout.PriceRange)
	if err != nil {
		return receipt.Options{}, err
	}

	layout := receipt.Layout{
		Isolation:     c.Layout.Isolation,
		Delimiter:     c.Layout.Delimiter,
		HeaderSkip:    *c.Layout.HeaderSkip,
		StartMarker:   c.Layout.StartMarker,
		StopMarker:    c.Layout.StopMarker,
		NameRange:     nameRange,
		QuantityRange: quantityRange,
		PriceRange:    priceRange,
	}

	pricing := receipt.Pricing{
		Rounder: receipt.Rounder{
			Threshold: decimal.NewFromFloat(*c.Pricing.RoundingThreshold),
			Mode:      c.Pricing.RoundingMode,
		},
		VATFactor:            decimal.NewFromFloat(c.Pricing.VATFactor),
		DepositMarker:        c.Pricing.DepositMarker,
		DepositMode:          c.Pricing.DepositMode,
		DepositFlatSurcharge: *c.Pricing.DepositFlatSurcharge,
		FlatSurcharge:        c.Pricing.FlatSurcharge,
		ExcludeMarkers:       c.Pricing.ExcludeMarkers,
	}

	return receipt.Options{Layout: layout, Pricing: pricing}, nil
}

// ReportOptions returns the report options.
func (c *Config) ReportOptions() report.Options {
	return report.Options{
		Format:    c.Report.Format,
		NameWidth: c.Report.NameWidth,
		TrimNames: c.Report.TrimNames,
	}
}

func toRange(name string, v []int) (receipt.Range, error) {
	if len(v) != 2 {
		return receipt.Range{}, fmt.Errorf("%s must have exactly two elements, got %d", name, len(v))
	}
	return receipt.Range{Start: v[0], End: v[1]}, nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// applyEnv reads SKRUBBIFY_* variables into cfg.
func applyEnv(cfg *Config) error {
	strVars := map[string]*string{
		"INPUT_DIR":      &cfg.InputDir,
		"OUTPUT_DIR":     &cfg.OutputDir,
		"ARCHIVE_DIR":    &cfg.ArchiveDir,
		"LOG_LEVEL":      &cfg.LogLevel,
		"PAGES":          &cfg.Extraction.Pages,
		"ROUNDING_MODE":  &cfg.Pricing.RoundingMode,
		"DEPOSIT_MODE":   &cfg.Pricing.DepositMode,
		"REPORT_OUTPUT":  &cfg.Report.Output,
		"REPORT_FORMAT":  &cfg.Report.Format,
		"DEPOSIT_MARKER": &cfg.Pricing.DepositMarker,
	}
	for key, dst := range strVars {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "VAT_FACTOR"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("invalid %sVAT_FACTOR: %w", EnvPrefix, err)
		}
		cfg.Pricing.VATFactor = f
	}
	if v, ok := os.LookupEnv(EnvPrefix + "ROUNDING_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("invalid %sROUNDING_THRESHOLD: %w", EnvPrefix, err)
		}
		cfg.Pricing.RoundingThreshold = &f
	}
	if v, ok := os.LookupEnv(EnvPrefix + "FLAT_SURCHARGE"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sFLAT_SURCHARGE: %w", EnvPrefix, err)
		}
		cfg.Pricing.FlatSurcharge = n
	}
	if v, ok := os.LookupEnv(EnvPrefix + "MAX_CONCURRENCY"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sMAX_CONCURRENCY: %w", EnvPrefix, err)
		}
		cfg.MaxConcurrency = n
	}

	return nil
}

func boolPtr(v bool) *bool { return &v }

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }

func floatPtr(v float64) *float64 { return &v }
