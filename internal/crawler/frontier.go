package crawler

// Frontier is a FIFO queue of URLs waiting to be fetched.
// Pushing a URL that is already queued is a no-op, so the queue never holds
// duplicates. A Frontier is not safe for concurrent use; the session guards
// it with its mutex.
type Frontier struct {
	queue   []string
	head    int
	members map[string]struct{}
}

// NewFrontier creates an empty Frontier.
func NewFrontier() *Frontier {
	return &Frontier{members: make(map[string]struct{})}
}

// Push appends u unless it is already queued. It reports whether u was added.
func (f *Frontier) Push(u string) bool {
	if _, ok := f.members[u]; ok {
		return false
	}
	f.members[u] = struct{}{}
	f.queue = append(f.queue, u)
	return true
}

// Pop removes and returns the oldest URL.
func (f *Frontier) Pop() (string, bool) {
	if f.head == len(f.queue) {
		return "", false
	}

	u := f.queue[f.head]
	f.queue[f.head] = ""
	f.head++
	delete(f.members, u)

	// Reclaim the consumed prefix once it dominates the slice.
	if f.head > 64 && f.head*2 > len(f.queue) {
		f.queue = append([]string(nil), f.queue[f.head:]...)
		f.head = 0
	}
	return u, true
}

// Len returns the number of queued URLs.
func (f *Frontier) Len() int {
	return len(f.queue) - f.head
}

// Contains reports whether u is queued.
func (f *Frontier) Contains(u string) bool {
	_, ok := f.members[u]
	return ok
}
