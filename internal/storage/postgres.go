package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/mselser95/polymarket-lag/pkg/types"
	"go.uber.org/zap"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage connects to PostgreSQL and verifies the connection.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// Record inserts a closed position into the closed_positions table.
func (p *PostgresStorage) Record(ctx context.Context, event *types.PositionClosedEvent) error {
	query := `
		INSERT INTO closed_positions (
			id, entity_id, entity_slug, token_id, outcome,
			entry_price, entry_size, entry_time,
			exit_price, exit_time, exit_reason,
			profit_pct, profit_abs, move_symbol, move_pct
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		event.PositionID,
		event.EntityID,
		event.EntitySlug,
		event.TokenID,
		event.Outcome,
		event.EntryPrice,
		event.EntrySize,
		event.EntryTime,
		event.ExitPrice,
		event.ExitTime,
		string(event.ExitReason),
		event.ProfitPct,
		event.ProfitAbs,
		event.MoveSymbol,
		event.MovePct,
	)
	if err != nil {
		return fmt.Errorf("insert closed position: %w", err)
	}

	p.logger.Debug("position-recorded",
		zap.String("position-id", event.PositionID),
		zap.String("entity-slug", event.EntitySlug),
		zap.Float64("profit-pct", event.ProfitPct))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
