package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anytimesk/stock-ml-front-end/internal/chart"
	"github.com/anytimesk/stock-ml-front-end/internal/panel"
	"github.com/anytimesk/stock-ml-front-end/internal/prefs"
	"github.com/anytimesk/stock-ml-front-end/internal/theme"
)

// Config holds session settings.
type Config struct {
	CookieName       string        `mapstructure:"cookieName" validate:"required"`
	ClientCookieName string        `mapstructure:"clientCookieName" validate:"required"`
	IdleTTL          time.Duration `mapstructure:"idleTtl" validate:"gt=0"`
	// UnusedTTL expires sessions that no request reused after the one that
	// created them. Zero, or a value above IdleTTL, means IdleTTL.
	UnusedTTL     time.Duration `mapstructure:"unusedTtl" validate:"gte=0"`
	SweepInterval time.Duration `mapstructure:"sweepInterval" validate:"gt=0"`
	Secure        bool          `mapstructure:"secure"`
}

// Factory holds what a new session's panels are built from.
type Factory struct {
	Searcher       panel.Searcher
	ML             panel.MLActions
	Prefs          prefs.Store
	SearchPageSize int
	FilesPageSize  int
	ChartWidth     int
	ChartHeight    int
	Timeout        time.Duration
	TrainTimeout   time.Duration
}

// Store is the in-memory session table.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	factory  Factory
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore(factory Factory, cfg Config, logger *zap.Logger) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		factory:  factory,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Config returns the store's settings.
func (s *Store) Config() Config {
	return s.cfg
}

// Create starts a session for a browser with an initial theme. Theme
// changes are saved to the preference store under clientID.
func (s *Store) Create(clientID string, initial theme.Mode) *Session {
	f := s.factory
	id := uuid.NewString()

	persist := func(m theme.Mode) {
		if f.Prefs == nil || clientID == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := f.Prefs.SetTheme(ctx, clientID, string(m)); err != nil {
			s.logger.Warn("Failed to persist theme", zap.String("client_id", clientID), zap.Error(err))
		}
	}
	state := theme.NewState(initial, persist)

	logger := s.logger.With(zap.String("session_id", id))
	view := chart.NewView(state, f.ChartWidth, f.ChartHeight, logger)

	sess := &Session{
		ID:        id,
		ClientID:  clientID,
		Theme:     state,
		Search:    panel.NewSearchPanel(f.Searcher, view, f.SearchPageSize, f.Timeout, logger),
		ML:        panel.NewMLPanel(f.ML, f.FilesPageSize, f.Timeout, f.TrainTimeout, logger),
		activeTab: TabSearch,
		lastSeen:  s.now(),
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	s.logger.Debug("Session created", zap.String("session_id", id), zap.String("theme", string(initial)))
	return sess
}

// Get returns a live session and marks it used.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	sess.touch(s.now())
	return sess, true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep closes sessions idle for longer than the configured TTL, or never
// reused within UnusedTTL, and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.now()
	idleCutoff := now.Add(-s.cfg.IdleTTL)
	unusedCutoff := idleCutoff
	if s.cfg.UnusedTTL > 0 && s.cfg.UnusedTTL < s.cfg.IdleTTL {
		unusedCutoff = now.Add(-s.cfg.UnusedTTL)
	}

	var expired []*Session
	s.mu.Lock()
	for id, sess := range s.sessions {
		lastSeen, used := sess.activity()
		cutoff := idleCutoff
		if !used {
			cutoff = unusedCutoff
		}
		if lastSeen.Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
	}
	if len(expired) > 0 {
		s.logger.Info("Expired idle sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps on every interval until ctx is done.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Close closes every session.
func (s *Store) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}
