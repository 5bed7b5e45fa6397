package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lancerhub/webhook-guard/reconcile"
	_ "github.com/lib/pq" // PostgreSQL driver
)

/*
PostgreSQL implementation of reconcile.RecordStore

Three tables:
  - transactions: the marketplace's system of record for payments
  - reconciliation_findings: append-only audit log of sweep findings
  - reconciliation_corrections: one row per applied corrective write, keyed
    by (provider_object_id, event_id), so corrections stay idempotent across
    resumed runs
*/

type Store struct {
	DB *sql.DB
}

// NewStore cria uma nova instância do repositório PostgreSQL com pool padrão (25, 5, 5 min)
func NewStore(connectionString string) (*Store, error) {
	return NewStoreWithPoolConfig(connectionString, 25, 5, 5)
}

// NewStoreWithPoolConfig cria uma nova instância do repositório PostgreSQL com configuração customizável
func NewStoreWithPoolConfig(connectionString string, maxOpenConns, maxIdleConns, maxLifeMinutes int) (*Store, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
	if maxLifeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(maxLifeMinutes) * time.Minute)
	}

	return &Store{DB: db}, nil
}

// GetByProviderObjectID busca uma transação pelo id do objeto no provedor
func (s *Store) GetByProviderObjectID(ctx context.Context, objectID string) (reconcile.Transaction, error) {
	query := `SELECT id, provider_object_id, status, amount_cents, currency, updated_at
	          FROM transactions WHERE provider_object_id = $1`

	var t reconcile.Transaction
	err := s.DB.QueryRowContext(ctx, query, objectID).Scan(
		&t.ID,
		&t.ProviderObjectID,
		&t.Status,
		&t.Amount,
		&t.Currency,
		&t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return reconcile.Transaction{}, reconcile.ErrNotFound
	}
	if err != nil {
		return reconcile.Transaction{}, fmt.Errorf("selecting transaction: %w", err)
	}

	return t, nil
}

// ListUpdatedSince returns transactions touched inside the window
func (s *Store) ListUpdatedSince(ctx context.Context, since, until time.Time) ([]reconcile.Transaction, error) {
	query := `SELECT id, provider_object_id, status, amount_cents, currency, updated_at
	          FROM transactions WHERE updated_at >= $1 AND updated_at < $2
	          ORDER BY updated_at`

	rows, err := s.DB.QueryContext(ctx, query, since, until)
	if err != nil {
		return nil, fmt.Errorf("selecting transactions in window: %w", err)
	}
	defer rows.Close()

	var transactions []reconcile.Transaction
	for rows.Next() {
		var t reconcile.Transaction
		if err := rows.Scan(&t.ID, &t.ProviderObjectID, &t.Status, &t.Amount, &t.Currency, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	return transactions, nil
}

// ApplyStatus re-applies a known status transition. The corrections guard
// insert and the update run in one transaction; when the guard row already
// exists the correction was applied by an earlier run and nothing is written.
func (s *Store) ApplyStatus(ctx context.Context, objectID, status, eventID string) (bool, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	guard := `INSERT INTO reconciliation_corrections (provider_object_id, event_id, applied_at)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (provider_object_id, event_id) DO NOTHING`
	result, err := tx.ExecContext(ctx, guard, objectID, eventID, time.Now())
	if err != nil {
		return false, fmt.Errorf("inserting correction guard: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading guard result: %w", err)
	}
	if inserted == 0 {
		return false, nil
	}

	update := `UPDATE transactions SET status = $2, updated_at = $3 WHERE provider_object_id = $1`
	if _, err := tx.ExecContext(ctx, update, objectID, status, time.Now()); err != nil {
		return false, fmt.Errorf("updating transaction status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing correction: %w", err)
	}
	return true, nil
}

// InsertFromProvider creates a local transaction for a provider object
// missing locally. ON CONFLICT DO NOTHING keeps it idempotent.
func (s *Store) InsertFromProvider(ctx context.Context, rec reconcile.ProviderRecord) (bool, error) {
	query := `INSERT INTO transactions (id, provider_object_id, status, amount_cents, currency, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (provider_object_id) DO NOTHING`

	result, err := s.DB.ExecContext(ctx, query,
		uuid.New().String(),
		rec.ObjectID,
		rec.Status,
		rec.Amount,
		rec.Currency,
		time.Now(),
	)
	if err != nil {
		return false, fmt.Errorf("inserting transaction: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading insert result: %w", err)
	}

	return inserted > 0, nil
}

// AppendFinding persists one finding. The log is append-only: there is no
// update or delete path anywhere in this package.
func (s *Store) AppendFinding(ctx context.Context, f reconcile.Finding) error {
	query := `INSERT INTO reconciliation_findings
	          (id, kind, severity, provider, object_id, event_id, local_id,
	           local_status, upstream_status, local_amount, upstream_amount,
	           currency, action, detail, detected_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := s.DB.ExecContext(ctx, query,
		f.ID,
		f.Kind.String(),
		f.Severity.String(),
		f.Provider.String(),
		f.ObjectID,
		f.EventID,
		f.LocalID,
		f.LocalStatus,
		f.UpstreamStatus,
		f.LocalAmount,
		f.UpstreamAmount,
		f.Currency,
		f.Action.String(),
		f.Detail,
		f.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting finding: %w", err)
	}
	return nil
}

// Close fecha a conexão com o banco
func (s *Store) Close(ctx context.Context) error {
	return s.DB.Close()
}
