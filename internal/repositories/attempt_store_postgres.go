package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/showcase/internal/database"
	"github.com/BradenHooton/showcase/internal/models"
	"github.com/jackc/pgx/v5"
)

// PostgresAttemptStore persists attempt records in the login_attempts table.
// It lets several server processes share one limiter state.
type PostgresAttemptStore struct {
	db        *database.DB
	retention time.Duration
	now       func() time.Time
}

// NewPostgresAttemptStore creates a store backed by db
func NewPostgresAttemptStore(db *database.DB, retention time.Duration, now func() time.Time) *PostgresAttemptStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if now == nil {
		now = time.Now
	}
	return &PostgresAttemptStore{db: db, retention: retention, now: now}
}

// Get returns the client's record, or a zero record when absent or stale.
// Stale rows are deleted as a side effect.
func (s *PostgresAttemptStore) Get(ctx context.Context, clientID string) (models.AttemptRecord, error) {
	record, err := scanAttempt(s.db.Pool.QueryRow(ctx, `
		SELECT client_id, attempts, last_attempt_at, cooldown_until
		FROM login_attempts WHERE client_id = $1
	`, clientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.AttemptRecord{ClientID: clientID}, nil
	}
	if err != nil {
		return models.AttemptRecord{}, fmt.Errorf("failed to load attempt record: %w", database.MapPostgresError(err))
	}

	if s.isStale(record) {
		if _, err := s.db.Pool.Exec(ctx, `DELETE FROM login_attempts WHERE client_id = $1 AND last_attempt_at < $2`,
			clientID, s.cutoff()); err != nil {
			return models.AttemptRecord{}, fmt.Errorf("failed to evict stale attempt record: %w", err)
		}
		return models.AttemptRecord{ClientID: clientID}, nil
	}
	return record, nil
}

// Set upserts a record
func (s *PostgresAttemptStore) Set(ctx context.Context, record models.AttemptRecord) error {
	_, err := s.db.Pool.Exec(ctx, upsertAttemptSQL,
		record.ClientID, record.Attempts, record.LastAttemptAt, nullableTime(record.CooldownUntil))
	if err != nil {
		return fmt.Errorf("failed to store attempt record: %w", database.MapPostgresError(err))
	}
	return nil
}

// Delete removes the client's record
func (s *PostgresAttemptStore) Delete(ctx context.Context, clientID string) error {
	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM login_attempts WHERE client_id = $1`, clientID); err != nil {
		return fmt.Errorf("failed to delete attempt record: %w", err)
	}
	return nil
}

// Update locks the client's row for the duration of fn so that concurrent
// failures from several processes are serialised
func (s *PostgresAttemptStore) Update(ctx context.Context, clientID string, fn func(*models.AttemptRecord)) (models.AttemptRecord, error) {
	var result models.AttemptRecord

	err := s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		// Make sure a row exists so FOR UPDATE has something to lock
		if _, err := tx.Exec(ctx, `
			INSERT INTO login_attempts (client_id, attempts, last_attempt_at)
			VALUES ($1, 0, $2)
			ON CONFLICT (client_id) DO NOTHING
		`, clientID, s.now()); err != nil {
			return err
		}

		record, err := scanAttempt(tx.QueryRow(ctx, `
			SELECT client_id, attempts, last_attempt_at, cooldown_until
			FROM login_attempts WHERE client_id = $1
			FOR UPDATE
		`, clientID))
		if err != nil {
			return err
		}
		if s.isStale(record) || record.Attempts == 0 {
			record = models.AttemptRecord{ClientID: clientID}
		}

		fn(&record)
		record.ClientID = clientID

		if record.Attempts <= 0 {
			result = models.AttemptRecord{ClientID: clientID}
			_, err = tx.Exec(ctx, `DELETE FROM login_attempts WHERE client_id = $1`, clientID)
			return err
		}

		result = record
		_, err = tx.Exec(ctx, upsertAttemptSQL,
			record.ClientID, record.Attempts, record.LastAttemptAt, nullableTime(record.CooldownUntil))
		return err
	})
	if err != nil {
		return models.AttemptRecord{}, fmt.Errorf("failed to update attempt record: %w", database.MapPostgresError(err))
	}
	return result, nil
}

// Sweep deletes every row older than the retention horizon
func (s *PostgresAttemptStore) Sweep(ctx context.Context) (int64, error) {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM login_attempts WHERE last_attempt_at < $1`, s.cutoff())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep attempt records: %w", err)
	}
	return tag.RowsAffected(), nil
}

// List returns all live records
func (s *PostgresAttemptStore) List(ctx context.Context) ([]models.AttemptRecord, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT client_id, attempts, last_attempt_at, cooldown_until
		FROM login_attempts
		WHERE last_attempt_at >= $1 AND attempts > 0
		ORDER BY last_attempt_at DESC
	`, s.cutoff())
	if err != nil {
		return nil, fmt.Errorf("failed to list attempt records: %w", err)
	}
	defer rows.Close()

	var records []models.AttemptRecord
	for rows.Next() {
		record, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Ping checks database connectivity
func (s *PostgresAttemptStore) Ping(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

func (s *PostgresAttemptStore) cutoff() time.Time {
	return s.now().Add(-s.retention)
}

func (s *PostgresAttemptStore) isStale(record models.AttemptRecord) bool {
	return s.now().Sub(record.LastAttemptAt) > s.retention
}

const upsertAttemptSQL = `
	INSERT INTO login_attempts (client_id, attempts, last_attempt_at, cooldown_until)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (client_id) DO UPDATE
	SET attempts = EXCLUDED.attempts,
	    last_attempt_at = EXCLUDED.last_attempt_at,
	    cooldown_until = EXCLUDED.cooldown_until
`

func scanAttempt(row pgx.Row) (models.AttemptRecord, error) {
	var (
		record        models.AttemptRecord
		cooldownUntil *time.Time
	)
	if err := row.Scan(&record.ClientID, &record.Attempts, &record.LastAttemptAt, &cooldownUntil); err != nil {
		return models.AttemptRecord{}, err
	}
	if cooldownUntil != nil {
		record.CooldownUntil = *cooldownUntil
	}
	return record, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
