package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/mailcrawl/internal/config"
	"github.com/nao1215/mailcrawl/internal/database"
)

// NewEmailsCmd creates the emails command.
// This command lists the email addresses stored by crawls that used the
// sqlite sink.
func NewEmailsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emails <domain>",
		Short: "List email addresses stored in the database",
		Long: `Emails lists every address stored for a domain by crawls run with
--sink sqlite, oldest first. Each address is listed once even when several
crawls found it.

The domain is the crawled host (and port, if any). A URL is accepted too.

Examples:
  # List stored addresses
  mailcrawl emails example.com

  # Include the page each address was first found on
  mailcrawl emails --source example.com

  # Output JSON
  mailcrawl emails --json example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runEmailsCmd,
	}

	addDBDirFlag(cmd)
	cmd.Flags().BoolP("source", "s", false,
		"Show the page each address was first found on")
	cmd.Flags().BoolP("json", "j", false,
		"Output records in JSON format")

	return cmd
}

// addDBDirFlag registers the --db-dir flag shared by the database commands.
func addDBDirFlag(cmd *cobra.Command) {
	cmd.Flags().String("db-dir", "",
		"SQLite database directory (default: XDG data directory)")
}

// openDatabase opens the existing crawl database selected by --db-dir.
func openDatabase(cmd *cobra.Command) (*database.CrawlDB, error) {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false

	db, err := database.Open(dbDir, opts)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("%w (run a crawl with --sink sqlite first)", err)
		}
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// domainArg turns a command argument into a stored domain key.
// Both "example.com" and "https://Example.com/page" yield "example.com".
func domainArg(arg string) string {
	arg = strings.TrimSpace(arg)
	if strings.Contains(arg, "://") {
		return siteKey(arg)
	}
	return strings.ToLower(strings.TrimSuffix(arg, "/"))
}

// runEmailsCmd executes the emails command.
func runEmailsCmd(cmd *cobra.Command, args []string) error {
	domain := domainArg(args[0])
	if domain == "" {
		return fmt.Errorf("invalid domain: %q", args[0])
	}

	showSource, err := cmd.Flags().GetBool("source")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	db, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := db.ListEmails(cmd.Context(), domain)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if jsonOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if records == nil {
			return encoder.Encode([]any{})
		}
		return encoder.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintf(out, "No email addresses stored for %s\n", domain)
		return nil
	}

	for _, rec := range records {
		if showSource {
			fmt.Fprintf(out, "%s\t%s\n", rec.Email, rec.PageURL)
			continue
		}
		fmt.Fprintln(out, rec.Email)
	}

	return nil
}
