package crawler

import (
	"context"
	"sync"
	"time"

	"github.com/nao1215/mailcrawl/internal/model"
)

// session is the mutable state of one crawl.
//
// Every URL known to the session is in exactly one of frontier, inFlight or
// visited, and moves only forward: frontier -> inFlight -> visited. A URL
// abandoned on cancellation leaves inFlight without becoming visited.
type session struct {
	mu   sync.Mutex
	cond *sync.Cond

	id        string
	seed      string
	domain    string
	startedAt time.Time

	frontier *Frontier
	inFlight map[string]struct{}

	visited      map[string]struct{}
	visitedOrder []string

	emails     map[string]struct{}
	emailOrder []string

	fetchFailures int

	// abandoned is true once an in-flight URL was dropped on cancellation.
	abandoned bool

	// err is the first fatal error. Workers stop once it is set.
	err error
}

func newSession(id, seed, domain string, startedAt time.Time) *session {
	s := &session{
		id:        id,
		seed:      seed,
		domain:    domain,
		startedAt: startedAt,
		frontier:  NewFrontier(),
		inFlight:  make(map[string]struct{}),
		visited:   make(map[string]struct{}),
		emails:    make(map[string]struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	s.frontier.Push(seed)
	return s
}

// next blocks until a URL is available and moves it into the in-flight set.
// It returns false when the crawl is over: the frontier is drained with
// nothing in flight, a fatal error was recorded, or ctx is done.
func (s *session) next(ctx context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if s.err != nil || ctx.Err() != nil {
			return "", false
		}
		if u, ok := s.frontier.Pop(); ok {
			s.inFlight[u] = struct{}{}
			return u, true
		}
		if len(s.inFlight) == 0 {
			// Drained. Wake the other idle workers so they exit too.
			s.cond.Broadcast()
			return "", false
		}
		s.cond.Wait()
	}
}

// complete admits links that the session has never seen and moves pageURL
// from in-flight to visited. It returns the new frontier length.
func (s *session) complete(pageURL string, links []string, failed bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, link := range links {
		if s.known(link) {
			continue
		}
		s.frontier.Push(link)
	}

	delete(s.inFlight, pageURL)
	s.visited[pageURL] = struct{}{}
	s.visitedOrder = append(s.visitedOrder, pageURL)
	if failed {
		s.fetchFailures++
	}

	s.cond.Broadcast()
	return s.frontier.Len()
}

// abandon drops an in-flight URL without marking it visited.
func (s *session) abandon(pageURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inFlight, pageURL)
	s.abandoned = true
	s.cond.Broadcast()
}

// known reports whether u is queued, in flight or visited.
// The caller must hold s.mu.
func (s *session) known(u string) bool {
	if s.frontier.Contains(u) {
		return true
	}
	if _, ok := s.inFlight[u]; ok {
		return true
	}
	_, ok := s.visited[u]
	return ok
}

// recordEmail adds email to the email set. It reports whether the address
// is new and, if so, the number of addresses recorded so far.
func (s *session) recordEmail(email string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emails[email]; ok {
		return len(s.emailOrder), false
	}
	s.emails[email] = struct{}{}
	s.emailOrder = append(s.emailOrder, email)
	return len(s.emailOrder), true
}

// fail records a fatal error and wakes every waiting worker.
func (s *session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err == nil {
		s.err = err
	}
	s.cond.Broadcast()
}

// wake releases workers blocked in next so they can observe cancellation.
func (s *session) wake() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cond.Broadcast()
}

// snapshot returns the crawl statistics. Slices are copies.
func (s *session) snapshot(finishedAt time.Time) *model.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &model.Stats{
		SessionID:     s.id,
		Seed:          s.seed,
		Domain:        s.domain,
		URLsVisited:   len(s.visitedOrder),
		EmailsFound:   len(s.emailOrder),
		FetchFailures: s.fetchFailures,
		StartedAt:     s.startedAt,
		FinishedAt:    finishedAt,
		Interrupted:   s.frontier.Len() > 0 || len(s.inFlight) > 0 || s.abandoned,
		Visited:       append([]string{}, s.visitedOrder...),
		Emails:        append([]string{}, s.emailOrder...),
	}
}
