package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/mailcrawl/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <domain>",
		Short: "List recorded crawl sessions for a domain",
		Long: `History lists the crawl sessions stored for a domain by crawls run with
--sink sqlite, newest first.

Examples:
  # List sessions
  mailcrawl history example.com

  # Also print the URLs each session visited
  mailcrawl history --visited example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runHistoryCmd,
	}

	addDBDirFlag(cmd)
	cmd.Flags().Bool("visited", false,
		"Print the URLs visited by each session")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	domain := domainArg(args[0])
	if domain == "" {
		return fmt.Errorf("invalid domain: %q", args[0])
	}

	showVisited, err := cmd.Flags().GetBool("visited")
	if err != nil {
		return err
	}

	db, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	sessions, err := db.ListSessions(ctx, domain)
	if err != nil {
		return fmt.Errorf("failed to get crawl history: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Fprintf(out, "No crawl history found for %s\n", domain)
		fmt.Fprintln(out, "\nUse 'mailcrawl --sink sqlite <url>' to record crawls.")
		return nil
	}

	fmt.Fprintf(out, "Crawl history for %s (%d sessions):\n\n", domain, len(sessions))
	fmt.Fprintf(out, "  %-36s  %-20s  %7s  %6s  %8s  %s\n",
		"ID", "Started", "Visited", "Emails", "Failures", "Status")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 100))

	for _, s := range sessions {
		fmt.Fprintf(out, "  %-36s  %-20s  %7d  %6d  %8d  %s\n",
			s.ID,
			s.StartedAt.Local().Format("2006-01-02 15:04:05"),
			s.URLsVisited,
			s.EmailsFound,
			s.FetchFailures,
			sessionStatus(s),
		)

		if !showVisited {
			continue
		}
		urls, err := db.VisitedURLs(ctx, s.ID)
		if err != nil {
			return err
		}
		for _, u := range urls {
			fmt.Fprintf(out, "      %s\n", u)
		}
	}

	return nil
}

// sessionStatus describes how a session ended.
func sessionStatus(s database.SessionRecord) string {
	switch {
	case s.FinishedAt.IsZero():
		return "running"
	case s.Interrupted:
		return "interrupted"
	default:
		return "complete"
	}
}
