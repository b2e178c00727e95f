package extractor

import "sync"

// SeenURLs remembers which response URLs were already scanned during this
// process. It is never persisted, so a restart scans everything again.
type SeenURLs struct {
	mu   sync.Mutex
	urls map[string]struct{}
}

func NewSeenURLs() *SeenURLs {
	return &SeenURLs{urls: map[string]struct{}{}}
}

// MarkSeen records url and reports whether it was new.
func (s *SeenURLs) MarkSeen(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.urls[url]; found {
		return false
	}
	s.urls[url] = struct{}{}
	return true
}

func (s *SeenURLs) Seen(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, found := s.urls[url]
	return found
}

// Forget lets url be scanned again.
func (s *SeenURLs) Forget(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.urls, url)
}
