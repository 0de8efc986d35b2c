package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for mailcrawl.
// The root command itself runs a crawl; the subcommands inspect stored
// results and manage the configuration file.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mailcrawl [url]",
		Short: "Crawl a website and collect email addresses",
		Long: `mailcrawl crawls a website starting at the given URL, follows every link
that stays on the same host, and collects the email addresses found in the
pages it fetches.

Found addresses are appended to <domain>.csv while the crawl runs, and the
visited URLs are written to <domain>.txt when it ends. Use --sink to also
store results in SQLite or Redis.

When no URL is given, mailcrawl asks for one on standard input.

Examples:
  # Crawl a site
  mailcrawl https://example.com

  # Fetch four pages at a time and keep results in SQLite too
  mailcrawl --workers 4 --sink file,sqlite https://example.com

  # Write a Markdown summary and print a JSON summary
  mailcrawl --report report.md --json https://example.com`,
		Args:          cobra.MaximumNArgs(1),
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCrawlCmd,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	addCrawlFlags(cmd)

	// Add subcommands
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewEmailsCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
