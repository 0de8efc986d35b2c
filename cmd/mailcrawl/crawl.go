package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/mailcrawl/internal/config"
	"github.com/nao1215/mailcrawl/internal/crawler"
	"github.com/nao1215/mailcrawl/internal/fetch"
	mlog "github.com/nao1215/mailcrawl/internal/log"
	"github.com/nao1215/mailcrawl/internal/metrics"
	"github.com/nao1215/mailcrawl/internal/model"
	"github.com/nao1215/mailcrawl/internal/report"
	"github.com/nao1215/mailcrawl/internal/sink"
)

// promptText is shown when no URL is given on the command line.
const promptText = "Please enter a website to crawl for emails:"

// addCrawlFlags registers the flags of the crawl (root) command.
func addCrawlFlags(cmd *cobra.Command) {
	// Fetch behavior flags
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout of a single request")
	cmd.Flags().IntP("retries", "r", config.DefaultMaxRetries,
		"Number of retries after a failed request")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of pages fetched concurrently")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")
	cmd.Flags().String("proxy", "",
		"Route requests through a SOCKS5 proxy (e.g., 127.0.0.1:9050)")

	// Output flags
	cmd.Flags().String("output-dir", config.DefaultOutputDir,
		"Directory for the <domain>.csv and <domain>.txt files")
	cmd.Flags().StringSlice("sink", []string{config.SinkFile},
		"Result destinations: file, sqlite, redis (comma separated)")
	cmd.Flags().String("db-dir", "",
		"SQLite database directory (default: XDG data directory)")
	cmd.Flags().String("redis-addr", config.DefaultRedisAddr,
		"Redis server address for the redis sink")
	cmd.Flags().String("redis-prefix", config.DefaultRedisPrefix,
		"Prefix of every Redis key")

	// Report flags
	cmd.Flags().String("report", "",
		"Write a Markdown summary to the specified file")
	cmd.Flags().BoolP("json", "j", false,
		"Print a JSON summary to stdout after the crawl")
	cmd.Flags().String("metrics-file", "",
		"Write Prometheus metrics in text format to the specified file")

	// Logging and configuration
	cmd.Flags().Bool("redact", false,
		"Mask email addresses in log output")
	cmd.Flags().String("log-format", config.LogFormatText,
		"Log format on stderr: text or json")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .mailcrawl in current or home directory)")
}

// runCrawlCmd executes the crawl.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	report.NewConsoleReporter(out).Banner()

	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, logger, out)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates a structured logger based on the logging settings.
func setupLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.LogFormat == config.LogFormatJSON {
		return mlog.NewJSONLogger(w, cfg.Verbose, cfg.Redact)
	}
	return mlog.NewLogger(w, cfg.Verbose, cfg.Redact)
}

// buildConfig creates a Config from defaults, the configuration file and
// the command flags, in that order.
//
// Design decision: Flags that can also be set per site in the configuration
// file only override the file when the user actually passed them. Otherwise
// the flag's default value would always hide the file's value.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error

	cfg.Verbose = getVerboseFlag(cmd)

	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	if len(args) > 0 {
		cfg.Target = strings.TrimSpace(args[0])
	} else {
		cfg.Target, err = promptTarget(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return nil, err
		}
	}

	cfg.ApplySite(siteKey(cfg.Target))

	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("retries") {
		if cfg.MaxRetries, err = flags.GetInt("retries"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return nil, err
		}
	}

	cfg.MaxBodySize, err = flags.GetInt64("max-body-size")
	if err != nil {
		return nil, err
	}

	cfg.Proxy, err = flags.GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.OutputDir, err = flags.GetString("output-dir")
	if err != nil {
		return nil, err
	}

	sinks, err := flags.GetStringSlice("sink")
	if err != nil {
		return nil, err
	}
	cfg.Sinks = normalizeSinks(sinks)

	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}

	cfg.RedisAddr, err = flags.GetString("redis-addr")
	if err != nil {
		return nil, err
	}

	cfg.RedisPrefix, err = flags.GetString("redis-prefix")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = flags.GetString("report")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = flags.GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MetricsFile, err = flags.GetString("metrics-file")
	if err != nil {
		return nil, err
	}

	cfg.Redact, err = flags.GetBool("redact")
	if err != nil {
		return nil, err
	}

	logFormat, err := flags.GetString("log-format")
	if err != nil {
		return nil, err
	}
	cfg.LogFormat = strings.ToLower(logFormat)

	return cfg, nil
}

// promptTarget asks for the URL to crawl and reads one line from in.
// End of input without a line yields an empty target, which fails
// validation.
func promptTarget(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprintln(out, promptText)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read url: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// siteKey returns the configuration file key for target: its lowercase
// host (and port, if any). Unparsable targets yield "" and are rejected
// later by the crawler.
func siteKey(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// normalizeSinks lowercases and trims the sink names and drops empty and
// repeated entries.
func normalizeSinks(names []string) []string {
	seen := make(map[string]bool, len(names))
	result := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		result = append(result, name)
	}
	return result
}

// runCrawl executes the crawl described by cfg.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) (err error) {
	logger.Info("starting crawl",
		"target", cfg.Target,
		"workers", cfg.Workers,
		"sinks", cfg.Sinks,
	)

	fetcher, err := fetch.NewHTTPFetcher(
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithMaxRetries(cfg.MaxRetries),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithProxy(cfg.Proxy),
		fetch.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}

	results, files, err := openSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := results.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close results: %w", closeErr))
		}
	}()

	var consoleOpts []report.ConsoleOption
	if files != nil {
		consoleOpts = append(consoleOpts, report.WithDumpPath(files.VisitedPath))
	}
	reporter := report.NewConsoleReporter(out, consoleOpts...)

	m := metrics.New()

	spider := crawler.NewSpider(fetcher, results,
		crawler.WithWorkers(cfg.Workers),
		crawler.WithExtensions(cfg.Extensions),
		crawler.WithReporter(reporter),
		crawler.WithLogger(logger),
		crawler.WithMetrics(m),
	)

	stats, err := spider.Run(ctx, cfg.Target)
	if stats == nil {
		return err
	}

	if cfg.MetricsFile != "" {
		if metricsErr := m.WriteTextfile(cfg.MetricsFile); metricsErr != nil {
			logger.Error("failed to write metrics", "path", cfg.MetricsFile, "error", metricsErr)
		}
	}

	if err != nil {
		return err
	}

	return outputReports(cfg, stats, out)
}

// openSinks creates the result destinations selected in cfg.
// The returned FileSink is non-nil when the file sink is selected.
func openSinks(ctx context.Context, cfg *config.Config, logger *slog.Logger) (sink.Sink, *sink.FileSink, error) {
	var (
		sinks []sink.Sink
		files *sink.FileSink
	)

	closeAll := func() {
		for _, s := range sinks {
			_ = s.Close() //nolint:errcheck // already failing
		}
	}

	for _, name := range cfg.Sinks {
		switch name {
		case config.SinkFile:
			files = sink.NewFileSink(cfg.OutputDir)
			sinks = append(sinks, files)
		case config.SinkSQLite:
			db, err := sink.OpenDatabaseSink(cfg.DBDir)
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("failed to open database: %w", err)
			}
			logger.Info("database opened", "dir", cfg.DBDir)
			sinks = append(sinks, db)
		case config.SinkRedis:
			rs, err := sink.DialRedis(ctx, cfg.RedisAddr, sink.WithRedisPrefix(cfg.RedisPrefix))
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			logger.Info("redis connected", "addr", cfg.RedisAddr)
			sinks = append(sinks, rs)
		default:
			closeAll()
			return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownSink, name)
		}
	}

	if len(sinks) == 1 {
		return sinks[0], files, nil
	}
	return sink.Multi(sinks...), files, nil
}

// outputReports writes the optional Markdown and JSON summaries.
func outputReports(cfg *config.Config, stats *model.Stats, out io.Writer) (err error) {
	var writers []report.Writer

	if cfg.ReportFile != "" {
		f, createErr := createReportFile(cfg.ReportFile)
		if createErr != nil {
			return createErr
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("failed to close report file: %w", closeErr)
			}
		}()
		writers = append(writers, report.NewMarkdownWriter(f))
	}

	if cfg.JSONReport {
		writers = append(writers, report.NewJSONWriter(out,
			report.WithPrettyPrint(),
			report.WithVersion(getVersion()),
		))
	}

	if len(writers) == 0 {
		return nil
	}
	if _, err := report.NewMultiWriter(writers...).Write(stats); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// createReportFile creates the report file at path, creating parent
// directories if needed.
func createReportFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := os.Create(path) //nolint:gosec // User-provided report path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	return f, nil
}
