package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/mailcrawl/internal/model"
)

// MarkdownWriter outputs crawl summaries in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(stats *model.Stats) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, stats)
	w.writeFetchChart(md, stats)
	w.writeAlert(md, stats)
	w.writeEmails(md, stats)
	w.writeVisited(md, stats)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the title and the crawl information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, stats *model.Stats) {
	md.H1("Email Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed", "`" + stats.Seed + "`"},
			{"Domain", "`" + stats.Domain + "`"},
			{"Session", "`" + stats.SessionID + "`"},
			{"Started", stats.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", stats.Duration().Round(time.Millisecond).String()},
			{"URLs Visited", strconv.Itoa(stats.URLsVisited)},
			{"Emails Found", strconv.Itoa(stats.EmailsFound)},
			{"Fetch Failures", strconv.Itoa(stats.FetchFailures)},
			{"Status", statusText(stats)},
		},
	})
	md.PlainText("")
}

// statusText returns the status text based on crawl state.
func statusText(stats *model.Stats) string {
	if stats.Interrupted {
		return "⚠️ Interrupted (partial results)"
	}
	return "✅ Complete"
}

// writeFetchChart writes a mermaid pie chart of fetch outcomes.
func (w *MarkdownWriter) writeFetchChart(md *markdown.Markdown, stats *model.Stats) {
	if stats.URLsVisited == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Fetch Outcomes"),
		piechart.WithShowData(true),
	)

	if ok := stats.URLsVisited - stats.FetchFailures; ok > 0 {
		chart.LabelAndIntValue("Fetched", uint64(ok))
	}
	if stats.FetchFailures > 0 {
		chart.LabelAndIntValue("Failed", uint64(stats.FetchFailures))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert describing how trustworthy the results are.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, stats *model.Stats) {
	switch {
	case stats.Interrupted:
		md.Warningf(
			"The crawl was interrupted. %d URL(s) were visited before it stopped.",
			stats.URLsVisited,
		)
	case stats.FetchFailures > 0:
		md.Importantf(
			"%d page(s) could not be fetched. Addresses on those pages are missing.",
			stats.FetchFailures,
		)
	case stats.EmailsFound == 0:
		md.Note("The crawl completed without finding any email address.")
	default:
		md.Tip("The crawl completed and every page was fetched.")
	}
	md.PlainText("")
}

// writeEmails writes the list of email addresses.
func (w *MarkdownWriter) writeEmails(md *markdown.Markdown, stats *model.Stats) {
	md.H2("Email Addresses")
	md.PlainText("")

	if len(stats.Emails) == 0 {
		md.PlainText("No email addresses found.")
		md.PlainText("")
		return
	}

	items := make([]string, len(stats.Emails))
	for i, e := range stats.Emails {
		items[i] = "`" + e + "`"
	}
	md.BulletList(items...)
	md.PlainText("")
}

// writeVisited writes the visited URLs inside a collapsible block.
func (w *MarkdownWriter) writeVisited(md *markdown.Markdown, stats *model.Stats) {
	md.H2("Visited URLs")
	md.PlainText("")

	if len(stats.Visited) == 0 {
		md.PlainText("No URL was visited.")
		md.PlainText("")
		return
	}

	md.Details(strconv.Itoa(len(stats.Visited))+" URL(s)", strings.Join(stats.Visited, "<br>"))
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [mailcrawl](https://github.com/nao1215/mailcrawl)*")
}
