package sink

import (
	"context"
	"errors"
	"unicode"

	"github.com/nao1215/mailcrawl/internal/model"
)

// Sink is the output side of a crawl.
// Implementations must be safe for concurrent use because several crawl
// workers may append at the same time.
type Sink interface {
	// AppendEmail writes one newly found email address.
	AppendEmail(ctx context.Context, rec model.EmailRecord) error

	// Finalize writes the crawl summary and the visited URLs.
	// It is called once, also when the crawl was interrupted.
	Finalize(ctx context.Context, stats *model.Stats) error

	// Close releases the resources held by the sink.
	Close() error
}

// BaseName derives a file-system friendly name from a domain by replacing
// every rune that is not a letter or digit with an underscore.
// For example, "example.com" becomes "example_com".
func BaseName(domain string) string {
	out := []rune(domain)
	for i, r := range out {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			out[i] = '_'
		}
	}
	return string(out)
}

// Multi returns a Sink that forwards every call to all of the given sinks
// in order. AppendEmail and Finalize stop at the first error; Close closes
// every sink and joins the errors.
func Multi(sinks ...Sink) Sink {
	return &multiSink{sinks: sinks}
}

type multiSink struct {
	sinks []Sink
}

func (m *multiSink) AppendEmail(ctx context.Context, rec model.EmailRecord) error {
	for _, s := range m.sinks {
		if err := s.AppendEmail(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiSink) Finalize(ctx context.Context, stats *model.Stats) error {
	for _, s := range m.sinks {
		if err := s.Finalize(ctx, stats); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
