package providers

import (
	"fmt"
	"sync"

	"github.com/sportfeed/aggregator/internal/proxy"
)

// StaticList is the last-resort user-supplied provider (spec §6's
// PROXY_LIST): a fixed pool of server|user|pass entries rotated
// round-robin rather than via session templating.
type StaticList struct {
	mu      sync.Mutex
	entries []StaticEntry
	next    int
}

func NewStaticList(entries []StaticEntry) *StaticList {
	return &StaticList{entries: entries}
}

func (s *StaticList) Name() string { return "static-list" }

func (s *StaticList) GetProxy() (proxy.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 {
		return proxy.Config{}, fmt.Errorf("proxy: static list is empty")
	}
	e := s.entries[s.next%len(s.entries)]
	s.next++
	return proxy.Config{Server: e.Server, Username: e.Username, Password: e.Password}, nil
}
