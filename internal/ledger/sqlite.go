package ledger

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"oraculo/internal/core"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const dateLayout = "2006-01-02"

// SQLiteRepository implements Writer, Reader and ContextStore on a single
// SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func runMigrations(dbPath string) error {
	// Separate connection so the migration driver does not interfere with
	// the main pool.
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements Writer.
func (r *SQLiteRepository) Append(ctx context.Context, e core.LedgerEntry) (string, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO despesas (user_id, description, amount_cents, category, expense_date, status, expense_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Description, e.Amount.Cents, e.Category,
		e.ExpenseDate.Format(dateLayout), e.Status, e.ExpenseType)
	if err != nil {
		return "", fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Expense committed to ledger",
		"id", id,
		"user_id", e.UserID,
		"description", e.Description,
		"amount_cents", e.Amount.Cents,
		"category", e.Category,
		"expense_date", e.ExpenseDate.Format(dateLayout))

	return strconv.FormatInt(id, 10), nil
}

// ListByPeriod implements Reader. The range is inclusive on both ends.
func (r *SQLiteRepository) ListByPeriod(ctx context.Context, userID string, start, end time.Time) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, description, amount_cents, category, expense_date, status, expense_type, created_at
		 FROM despesas
		 WHERE user_id = ? AND expense_date >= ? AND expense_date <= ?
		 ORDER BY expense_date, id`,
		userID, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var entries []core.LedgerEntry
	for rows.Next() {
		var (
			e       core.LedgerEntry
			id      int64
			dateStr string
		)
		if err := rows.Scan(&id, &e.UserID, &e.Description, &e.Amount.Cents,
			&e.Category, &dateStr, &e.Status, &e.ExpenseType, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.ID = strconv.FormatInt(id, 10)
		d, err := time.ParseInLocation(dateLayout, dateStr, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse expense date %q: %w", dateStr, err)
		}
		e.ExpenseDate = d
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return entries, nil
}

// LoadPatterns implements ContextStore.
func (r *SQLiteRepository) LoadPatterns(ctx context.Context, userID string) (core.UsagePatterns, bool, error) {
	var (
		p        core.UsagePatterns
		catsJSON string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT interactions, total_expenses_cents, top_categories
		 FROM user_context WHERE user_id = ?`, userID).
		Scan(&p.Interactions, &p.TotalExpenses.Cents, &catsJSON)
	if err == sql.ErrNoRows {
		return core.UsagePatterns{}, false, nil
	}
	if err != nil {
		return core.UsagePatterns{}, false, fmt.Errorf("load user context: %w", err)
	}

	p.TopCategories = make(map[string]int)
	if catsJSON != "" {
		if err := json.Unmarshal([]byte(catsJSON), &p.TopCategories); err != nil {
			// A corrupt row must not block the conversation; start fresh.
			slog.WarnContext(ctx, "Discarding malformed top_categories", "user_id", userID, "error", err)
			p.TopCategories = make(map[string]int)
		}
	}
	return p, true, nil
}

// SavePatterns implements ContextStore.
func (r *SQLiteRepository) SavePatterns(ctx context.Context, userID string, p core.UsagePatterns) error {
	catsJSON, err := json.Marshal(p.TopCategories)
	if err != nil {
		return fmt.Errorf("marshal top categories: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO user_context (user_id, interactions, total_expenses_cents, top_categories, updated_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(user_id) DO UPDATE SET
		   interactions = excluded.interactions,
		   total_expenses_cents = excluded.total_expenses_cents,
		   top_categories = excluded.top_categories,
		   updated_at = CURRENT_TIMESTAMP`,
		userID, p.Interactions, p.TotalExpenses.Cents, string(catsJSON))
	if err != nil {
		return fmt.Errorf("save user context: %w", err)
	}
	return nil
}
