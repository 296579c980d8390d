// Package prefs persists per-browser display preferences.
package prefs

import "context"

// Store saves the theme preference of a browser, identified by its client
// id cookie. GetTheme returns "" with a nil error when nothing is stored.
type Store interface {
	GetTheme(ctx context.Context, clientID string) (string, error)
	SetTheme(ctx context.Context, clientID, theme string) error
}
