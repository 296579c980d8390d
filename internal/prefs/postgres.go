package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// PostgresConfig holds the connection settings of the preference database.
type PostgresConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

// DSN returns the key/value connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.DBName,
		c.SSLMode,
	)
}

const createThemeTable = `
CREATE TABLE IF NOT EXISTS theme_preferences (
	client_id  TEXT PRIMARY KEY,
	theme      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const upsertTheme = `
INSERT INTO theme_preferences (client_id, theme, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (client_id) DO UPDATE SET theme = EXCLUDED.theme, updated_at = NOW()`

// themeRow is a row of theme_preferences.
type themeRow struct {
	ClientID  string    `db:"client_id"`
	Theme     string    `db:"theme"`
	UpdatedAt time.Time `db:"updated_at"`
}

// PostgresStore keeps preferences in the theme_preferences table.
type PostgresStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPostgresStore creates a new Postgres preference store
func NewPostgresStore(db *sqlx.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the preference table when it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createThemeTable); err != nil {
		return fmt.Errorf("failed to create theme_preferences: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTheme(ctx context.Context, clientID string) (string, error) {
	var row themeRow
	err := s.db.GetContext(ctx, &row,
		`SELECT client_id, theme, updated_at FROM theme_preferences WHERE client_id = $1`, clientID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		s.logger.Error("Failed to read theme preference", zap.String("client_id", clientID), zap.Error(err))
		return "", fmt.Errorf("failed to read theme preference: %w", err)
	}
	return row.Theme, nil
}

func (s *PostgresStore) SetTheme(ctx context.Context, clientID, theme string) error {
	if _, err := s.db.ExecContext(ctx, upsertTheme, clientID, theme); err != nil {
		s.logger.Error("Failed to save theme preference", zap.String("client_id", clientID), zap.Error(err))
		return fmt.Errorf("failed to save theme preference: %w", err)
	}
	return nil
}

// ConnectPostgres opens the pool with the "pgx" driver, which the caller
// registers by importing github.com/jackc/pgx/v4/stdlib.
func ConnectPostgres(cfg PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", cfg.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}
