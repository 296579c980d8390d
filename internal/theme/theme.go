// Package theme holds the light/dark display mode of a dashboard session
// and notifies subscribers when it changes.
package theme

import (
	"sort"
	"strings"
	"sync"
)

// Mode is a display theme.
type Mode string

const (
	Light Mode = "light"
	Dark  Mode = "dark"
)

// ParseMode accepts "light" or "dark", ignoring case, surrounding space and
// the quotes structured client-hint headers carry.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.Trim(strings.TrimSpace(s), `"`))) {
	case Light:
		return Light, true
	case Dark:
		return Dark, true
	}
	return "", false
}

// Toggled returns the other mode.
func (m Mode) Toggled() Mode {
	if m == Dark {
		return Light
	}
	return Dark
}

// Palette is the fixed set of colours for a mode.
type Palette struct {
	Background     string
	Foreground     string
	CardBackground string
	BorderColor    string
	ShadowColor    string
}

var palettes = map[Mode]Palette{
	Light: {
		Background:     "#fafafa",
		Foreground:     "#0a0a0a",
		CardBackground: "#ffffff",
		BorderColor:    "#e5e7eb",
		ShadowColor:    "rgba(0, 0, 0, 0.1)",
	},
	Dark: {
		Background:     "#0a0a0a",
		Foreground:     "#fafafa",
		CardBackground: "#111827",
		BorderColor:    "#374151",
		ShadowColor:    "rgba(0, 0, 0, 0.5)",
	},
}

// Palette returns the colours for m. Unknown modes get the light palette.
func (m Mode) Palette() Palette {
	if p, ok := palettes[m]; ok {
		return p
	}
	return palettes[Light]
}

// Resolve picks the initial mode: a valid persisted preference first, then
// the platform hint, then light.
func Resolve(persisted, platformHint string) Mode {
	if m, ok := ParseMode(persisted); ok {
		return m
	}
	if m, ok := ParseMode(platformHint); ok {
		return m
	}
	return Light
}

// State is an observable Mode. It is safe for concurrent use. Subscribers
// are called synchronously, outside the state lock, in subscription order.
// Publishes are serialised and each one reads the mode afresh, so after
// overlapping changes the last value persisted and broadcast is the
// current mode. Subscribers must not change the State they observe.
type State struct {
	pubMu sync.Mutex

	mu      sync.RWMutex
	mode    Mode
	persist func(Mode)
	subs    map[int]func(Mode)
	nextID  int
}

// NewState creates a State starting at initial. persist, when not nil, is
// called with every new mode before subscribers are notified.
func NewState(initial Mode, persist func(Mode)) *State {
	if _, ok := ParseMode(string(initial)); !ok {
		initial = Light
	}
	return &State{
		mode:    initial,
		persist: persist,
		subs:    make(map[int]func(Mode)),
	}
}

// Mode returns the current mode.
func (s *State) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Palette returns the palette of the current mode.
func (s *State) Palette() Palette {
	return s.Mode().Palette()
}

// Toggle flips the mode and returns the new one.
func (s *State) Toggle() Mode {
	s.mu.Lock()
	s.mode = s.mode.Toggled()
	mode := s.mode
	s.mu.Unlock()

	s.publish()
	return mode
}

// Set changes the mode. Setting the current mode does nothing.
func (s *State) Set(mode Mode) {
	if _, ok := ParseMode(string(mode)); !ok {
		return
	}

	s.mu.Lock()
	if s.mode == mode {
		s.mu.Unlock()
		return
	}
	s.mode = mode
	s.mu.Unlock()

	s.publish()
}

// Subscribe registers fn for mode changes and returns a function that
// removes it. The returned function may be called more than once.
func (s *State) Subscribe(fn func(Mode)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Subscribers returns the number of registered subscribers.
func (s *State) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// snapshot must be called with s.mu held.
func (s *State) snapshot() []func(Mode) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]func(Mode), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.subs[id])
	}
	return out
}

func (s *State) publish() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.RLock()
	mode := s.mode
	subs := s.snapshot()
	s.mu.RUnlock()

	if s.persist != nil {
		s.persist(mode)
	}
	for _, fn := range subs {
		fn(mode)
	}
}
