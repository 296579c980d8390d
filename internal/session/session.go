// Package session keeps per-browser dashboard state in memory.
package session

import (
	"sync"
	"time"

	"github.com/anytimesk/stock-ml-front-end/internal/panel"
	"github.com/anytimesk/stock-ml-front-end/internal/theme"
)

// Tab is a page of the navigation shell.
type Tab string

const (
	TabSearch Tab = "search"
	TabML     Tab = "ml"
)

// Tabs lists the shell's tabs in menu order.
var Tabs = []Tab{TabSearch, TabML}

// ParseTab accepts a known tab name.
func ParseTab(s string) (Tab, bool) {
	for _, t := range Tabs {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Path is the URL of the tab's page.
func (t Tab) Path() string {
	return "/" + string(t)
}

// Session is one browser's dashboard.
type Session struct {
	ID       string
	ClientID string
	Theme    *theme.State
	Search   *panel.SearchPanel
	ML       *panel.MLPanel

	mu        sync.Mutex
	activeTab Tab
	lastSeen  time.Time
	used      bool
	closed    bool
}

// ActiveTab returns the tab the user last visited.
func (s *Session) ActiveTab() Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTab
}

// SetActiveTab records the visited tab.
func (s *Session) SetActiveTab(t Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeTab = t
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
	s.used = true
}

// activity returns when the session was last seen and whether any request
// after the creating one has used it.
func (s *Session) activity() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen, s.used
}

// Close releases the session's chart and theme subscription. It is safe to
// call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.Search.Close()
}
