package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/aleister1102/jssecretscanner/internal/config"
	"github.com/aleister1102/jssecretscanner/internal/datastore"
	"github.com/aleister1102/jssecretscanner/internal/differ"
	"github.com/aleister1102/jssecretscanner/internal/logger"
	"github.com/aleister1102/jssecretscanner/internal/models"
	"github.com/aleister1102/jssecretscanner/internal/reporter"
	"github.com/aleister1102/jssecretscanner/internal/scanner"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Exit codes beyond the generic 1.
const (
	exitHighRisk = 2
	exitConfig   = 3
)

// errHighRisk is returned when --fail-on-high-risk is set and the scan found
// critical or high severity findings.
var errHighRisk = errors.New("high-risk findings detected")

func exitCode(err error) int {
	switch {
	case errors.Is(err, errHighRisk):
		return exitHighRisk
	case common.ScanErrorKindOf(err) == common.KindConfig:
		return exitConfig
	default:
		return 1
	}
}

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <target>",
		Short: "Scan the JavaScript of one origin",
		Long: `Scan fetches the entry page of <target>, discovers its scripts and reports
what they leak. <target> is a host, host:port or URL; only its scheme and
host are used. Without a scheme https is tried first, then http.

Examples:
  # Scan with defaults, print the summary only
  jssecretscanner scan app.example.com

  # Write JSON, CSV and text reports to ./out
  jssecretscanner scan -s all -o out https://app.example.com

  # Only look for secrets and API endpoints, deeper chunk graph
  jssecretscanner scan --include secrets,api_endpoints -d 5 app.example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runScanCmd,
	}

	flags := cmd.Flags()
	defaults := config.NewDefaultScanConfig()

	// Scan bounds
	flags.IntP("max-resources", "n", defaults.MaxResources, "Maximum number of script resources to fetch")
	flags.Float64P("timeout", "t", defaults.Timeout, "Per-request timeout in seconds")
	flags.IntP("workers", "w", defaults.MaxWorkers, "Number of concurrent fetches")
	flags.IntP("depth", "d", defaults.MaxDepth, "Maximum discovery depth (entry scripts are depth 1)")
	flags.Int("max-file-size", defaults.MaxFileSizeMB, "Maximum script size in MB")
	flags.Int("retries", defaults.MaxRetries, "Retries on network errors")

	// Scope
	flags.StringSlice("include", nil, "Only report these categories (comma separated)")
	flags.StringSlice("exclude-domain", nil, "Never fetch scripts from these domains")
	flags.StringSlice("allow-domain", nil, "Only fetch scripts from these domains and their subdomains (list the target host too)")
	flags.StringSlice("exclude-url", nil, "Skip script URLs matching these regular expressions")
	flags.Bool("include-third-party", false, "Also fetch known analytics and tag-manager scripts")
	flags.Bool("same-site", false, "Only report URLs and endpoints on the target's site")
	flags.Float64("min-entropy", 0, "Override the entropy floor of secret-like categories")
	flags.String("patterns", "", "YAML file with extra or replacement pattern categories")

	// HTTP
	flags.Bool("verify-tls", false, "Verify TLS certificates")
	flags.Bool("gitleaks", false, "Also match the gitleaks default rules in the secrets category")
	flags.Bool("scan-html-bodies", false, "Analyze script URLs that return an HTML document")
	flags.StringP("user-agent", "A", defaults.UserAgent, "User-Agent header")
	flags.StringArrayP("header", "H", nil, `Extra request header ("Name: value"), repeatable`)
	flags.String("proxy", "", "HTTP proxy URL")

	// Output
	flags.StringP("save-format", "s", defaults.SaveFormat, "Report format: none, json, csv, txt, md or all")
	flags.StringP("output", "o", "", "Report output directory")
	flags.Int("top", defaultSummaryTop, "Findings shown per category in the summary (0 hides them)")
	flags.Bool("no-color", false, "Disable colored output")
	flags.Bool("fail-on-high-risk", false, "Exit with code 2 when critical or high findings are reported")

	// Local stores
	flags.String("parquet-dir", "", "Archive findings as Parquet under this directory")
	flags.String("history-db", "", "Record scans in this SQLite database")
	flags.Bool("diff", false, "Compare findings with the previous archived scan (needs --parquet-dir)")

	return cmd
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyScanFlags(cmd.Flags(), cfg); err != nil {
		return common.NewScanError(common.KindConfig, "invalid flags", err)
	}
	out, err := readOutputFlags(cmd.Flags())
	if err != nil {
		return common.NewScanError(common.KindConfig, "invalid flags", err)
	}
	if out.diff && cfg.StorageConfig.ParquetBasePath == "" {
		return common.NewScanError(common.KindConfig, "invalid flags",
			common.NewValidationError("diff", true, "--diff needs --parquet-dir or storage_config.parquet_base_path"))
	}

	log, err := buildLogger(cmd, cfg)
	if err != nil {
		return common.NewScanError(common.KindConfig, "failed to initialize logger", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storeOpts, closeStores, err := buildStoreOptions(cfg.StorageConfig, log)
	if err != nil {
		return common.NewScanError(common.KindConfig, "failed to open local stores", err)
	}
	defer closeStores()

	s, err := scanner.New(cfg, nil, log, storeOpts...)
	if err != nil {
		return err
	}

	result, err := s.Scan(ctx, args[0])
	if err != nil {
		return err
	}

	paths, err := reporter.NewReporter(cfg.ReporterConfig, log).Write(result, cfg.ScanConfig.SaveFormat)
	if err != nil {
		log.Error().Err(err).Msg("Failed to write reports")
	}

	opts := out.summary
	if out.diff {
		var diffErr error
		if opts.Diff, diffErr = diffFindings(ctx, cfg.StorageConfig, result, log); diffErr != nil {
			log.Error().Err(diffErr).Msg("Failed to compare with the previous scan")
		}
	}
	printSummary(cmd.OutOrStdout(), result, paths, opts)

	if out.failOnHighRisk && result.Summary.HighRiskCount > 0 {
		return fmt.Errorf("%w: %d", errHighRisk, result.Summary.HighRiskCount)
	}
	return err
}

// outputFlags are the scan flags that shape the terminal output rather than
// the scan itself.
type outputFlags struct {
	summary        summaryOptions
	diff           bool
	failOnHighRisk bool
}

func readOutputFlags(flags *pflag.FlagSet) (outputFlags, error) {
	var out outputFlags
	var err error
	if out.summary.Top, err = flags.GetInt("top"); err != nil {
		return out, err
	}
	if out.summary.NoColor, err = flags.GetBool("no-color"); err != nil {
		return out, err
	}
	if out.diff, err = flags.GetBool("diff"); err != nil {
		return out, err
	}
	out.failOnHighRisk, err = flags.GetBool("fail-on-high-risk")
	return out, err
}

// loadConfig loads the file configuration named by --config or found in the
// default locations.
func loadConfig(cmd *cobra.Command) (*config.GlobalConfig, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, common.NewScanError(common.KindConfig, "invalid flags", err)
	}
	cfg, err := config.LoadGlobalConfig(path, zerolog.Nop())
	if err != nil {
		return nil, common.NewScanError(common.KindConfig, "failed to load configuration", err)
	}
	return cfg, nil
}

func buildLogger(cmd *cobra.Command, cfg *config.GlobalConfig) (zerolog.Logger, error) {
	builder := logger.NewLoggerBuilder().
		WithConfig(cfg.LogConfig).
		WithConsoleOutput(cmd.ErrOrStderr())
	noColor, err := cmd.Flags().GetBool("no-color")
	if err != nil {
		return zerolog.Logger{}, err
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return zerolog.Logger{}, err
	}
	if noColor {
		builder = builder.WithNoColor(true)
	}
	if verbose {
		builder = builder.WithLevel(zerolog.DebugLevel)
	}
	l, err := builder.Build()
	if err != nil {
		return zerolog.Logger{}, err
	}
	return *l.GetZerolog(), nil
}

// applyScanFlags overlays the flags the user set on cfg. Unset flags keep the
// file or default values.
func applyScanFlags(flags *pflag.FlagSet, cfg *config.GlobalConfig) error {
	scan := &cfg.ScanConfig
	var errs common.ErrorCollector

	setInt := func(name string, dst *int) {
		if flags.Changed(name) {
			v, err := flags.GetInt(name)
			errs.Add(err)
			*dst = v
		}
	}
	setFloat := func(name string, dst *float64) {
		if flags.Changed(name) {
			v, err := flags.GetFloat64(name)
			errs.Add(err)
			*dst = v
		}
	}
	setString := func(name string, dst *string) {
		if flags.Changed(name) {
			v, err := flags.GetString(name)
			errs.Add(err)
			*dst = v
		}
	}
	setSlice := func(name string, dst *[]string) {
		if flags.Changed(name) {
			v, err := flags.GetStringSlice(name)
			errs.Add(err)
			*dst = v
		}
	}
	setBool := func(name string, dst *bool, invert bool) {
		if flags.Changed(name) {
			v, err := flags.GetBool(name)
			errs.Add(err)
			*dst = v != invert
		}
	}

	setInt("max-resources", &scan.MaxResources)
	setFloat("timeout", &scan.Timeout)
	setInt("workers", &scan.MaxWorkers)
	setInt("depth", &scan.MaxDepth)
	setInt("max-file-size", &scan.MaxFileSizeMB)
	setInt("retries", &scan.MaxRetries)

	setSlice("include", &scan.IncludeCategories)
	setSlice("exclude-domain", &scan.ExcludeDomains)
	setSlice("allow-domain", &scan.AllowedDomains)
	setSlice("exclude-url", &scan.ExcludeURLPatterns)
	setBool("include-third-party", &scan.ExcludeThirdParty, true)
	setBool("same-site", &scan.SameSiteOnly, false)
	setFloat("min-entropy", &scan.MinEntropy)
	setString("patterns", &scan.PatternsFile)

	setBool("verify-tls", &scan.VerifyTLS, false)
	setBool("gitleaks", &scan.Gitleaks, false)
	setBool("scan-html-bodies", &scan.SkipHTMLBodies, true)
	setString("user-agent", &scan.UserAgent)
	setString("proxy", &cfg.HTTPConfig.Proxy)
	if flags.Changed("header") {
		headers, err := flags.GetStringArray("header")
		errs.Add(err)
		for _, raw := range headers {
			name, value, ok := strings.Cut(raw, ":")
			if !ok || strings.TrimSpace(name) == "" {
				errs.Add(common.NewValidationError("header", raw, `expected "Name: value"`))
				continue
			}
			if cfg.HTTPConfig.CustomHeaders == nil {
				cfg.HTTPConfig.CustomHeaders = make(map[string]string)
			}
			cfg.HTTPConfig.CustomHeaders[strings.TrimSpace(name)] = strings.TrimSpace(value)
		}
	}

	setString("save-format", &scan.SaveFormat)
	setString("output", &cfg.ReporterConfig.OutputDir)
	setString("parquet-dir", &cfg.StorageConfig.ParquetBasePath)
	setString("history-db", &cfg.StorageConfig.SQLitePath)

	return errs.Error()
}

// buildStoreOptions opens the stores enabled in cfg. The returned func closes
// them.
func buildStoreOptions(cfg config.StorageConfig, log zerolog.Logger) ([]scanner.Option, func(), error) {
	var opts []scanner.Option
	closeFn := func() {}

	if cfg.ParquetBasePath != "" {
		store, err := datastore.NewFindingsStore(cfg, log)
		if err != nil {
			return nil, closeFn, err
		}
		opts = append(opts, scanner.WithFindingsSink(store))
	}

	if cfg.SQLitePath != "" {
		db, err := datastore.NewHistoryDB(cfg.SQLitePath, log)
		if err != nil {
			return nil, closeFn, err
		}
		opts = append(opts, scanner.WithHistory(db))
		closeFn = func() {
			if err := db.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close history database")
			}
		}
	}
	return opts, closeFn, nil
}

// diffFindings compares result with the previous archive of its origin.
func diffFindings(ctx context.Context, cfg config.StorageConfig, result *models.ScanResult, log zerolog.Logger) (*differ.FindingsDiff, error) {
	store, err := datastore.NewFindingsStore(cfg, log)
	if err != nil {
		return nil, err
	}
	return differ.NewFindingsDiffer(store, differ.DefaultConfig(), log).Differentiate(ctx, result)
}
