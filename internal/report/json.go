package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/mailcrawl/internal/model"
)

// JSONWriter outputs crawl summaries in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// version is stamped into the output when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
	}
}

// WithVersion records the mailcrawl version in the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport wraps the statistics with output metadata.
//
// Design decision: We wrap the statistics rather than adding fields to
// model.Stats because this keeps output-specific data out of the core
// data structure.
type JSONReport struct {
	// Version is the mailcrawl version that produced the report.
	Version string `json:"version,omitempty"`

	// DurationSeconds is the crawl duration, precomputed for consumers.
	DurationSeconds float64 `json:"duration_seconds"`

	// Stats is the crawl summary.
	Stats *model.Stats `json:"stats"`
}

// Write outputs the summary in JSON format followed by a newline.
func (w *JSONWriter) Write(stats *model.Stats) (int, error) {
	v := JSONReport{
		Version:         w.version,
		DurationSeconds: stats.Duration().Seconds(),
		Stats:           stats,
	}

	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
