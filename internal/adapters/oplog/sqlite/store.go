package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/bnema/windsurf-accounts-cli/internal/domain"
	"github.com/bnema/windsurf-accounts-cli/internal/ports"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store keeps the operation log in a local SQLite database.
type Store struct {
	db *sqlx.DB
}

var _ ports.OperationLogStore = (*Store)(nil)

func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "oplog.db")

	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := runMigrations(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db := sqlx.NewDb(sqlDB, "sqlite3")
	// SQLite serializes writes; a second writer only produces lock errors.
	db.SetMaxOpenConns(1)

	return &Store{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type logRow struct {
	ID           string `db:"id"`
	OpType       string `db:"op_type"`
	OpStatus     string `db:"op_status"`
	Message      string `db:"message"`
	AccountID    string `db:"account_id"`
	AccountEmail string `db:"account_email"`
	CreatedAt    int64  `db:"created_at"`
}

func (s *Store) Append(ctx context.Context, entry domain.OperationLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO operation_logs (id, op_type, op_status, message, account_id, account_email, created_at)
		VALUES (:id, :op_type, :op_status, :message, :account_id, :account_email, :created_at)
	`

	_, err := s.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":            entry.ID,
		"op_type":       string(entry.Type),
		"op_status":     string(entry.Status),
		"message":       entry.Message,
		"account_id":    string(entry.AccountID),
		"account_email": entry.AccountEmail,
		"created_at":    entry.CreatedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("insert operation log: %w", err)
	}

	return nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]domain.OperationLog, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []logRow
	query := `SELECT * FROM operation_logs ORDER BY created_at DESC, id DESC LIMIT ?`
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("select operation logs: %w", err)
	}

	entries := make([]domain.OperationLog, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, domain.OperationLog{
			ID:           row.ID,
			Type:         domain.OperationType(row.OpType),
			Status:       domain.OperationStatus(row.OpStatus),
			Message:      row.Message,
			AccountID:    domain.AccountID(row.AccountID),
			AccountEmail: row.AccountEmail,
			CreatedAt:    time.Unix(row.CreatedAt, 0).UTC(),
		})
	}

	return entries, nil
}
