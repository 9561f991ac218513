package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mselser95/polymarket-lag/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func closedEvent() *types.PositionClosedEvent {
	entry := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &types.PositionClosedEvent{
		PositionID: "a1b2c3d4-0000-0000-0000-000000000000",
		EntityID:   "entity-1",
		EntitySlug: "bitcoin-above-100k",
		TokenID:    "token-yes",
		Outcome:    types.OutcomeYes,
		EntryPrice: 0.50,
		EntrySize:  200,
		EntryTime:  entry,
		ExitPrice:  0.506,
		ExitTime:   entry.Add(31 * time.Second),
		ExitReason: types.ExitProfit,
		ProfitPct:  1.2,
		ProfitAbs:  1.2,
		MoveSymbol: "BTCUSDT",
		MovePct:    0.25,
	}
}

func TestConsoleStorage_Record(t *testing.T) {
	storage := NewConsoleStorage(zap.NewNop())

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	recordErr := storage.Record(context.Background(), closedEvent())

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	output := buf.String()

	require.NoError(t, recordErr)
	assert.Contains(t, output, "POSITION CLOSED")
	assert.Contains(t, output, "bitcoin-above-100k")
	assert.Contains(t, output, "BTCUSDT")
	assert.Contains(t, output, "a1b2c3d4")
	assert.Contains(t, output, "PROFIT")
}

func TestConsoleStorage_Close(t *testing.T) {
	storage := NewConsoleStorage(zap.NewNop())
	assert.NoError(t, storage.Close())
}

func TestPostgresStorage_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	storage := &PostgresStorage{db: db, logger: zap.NewNop()}
	event := closedEvent()

	mock.ExpectExec("INSERT INTO closed_positions").
		WithArgs(
			event.PositionID, event.EntityID, event.EntitySlug, event.TokenID, event.Outcome,
			event.EntryPrice, event.EntrySize, event.EntryTime,
			event.ExitPrice, event.ExitTime, string(event.ExitReason),
			event.ProfitPct, event.ProfitAbs, event.MoveSymbol, event.MovePct,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, storage.Record(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_RecordError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	storage := &PostgresStorage{db: db, logger: zap.NewNop()}

	mock.ExpectExec("INSERT INTO closed_positions").
		WillReturnError(errors.New("connection reset"))

	err = storage.Record(context.Background(), closedEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert closed position")
}

func TestPostgresStorage_Close(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	storage := &PostgresStorage{db: db, logger: zap.NewNop()}

	mock.ExpectClose()
	assert.NoError(t, storage.Close())
}
