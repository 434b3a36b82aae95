package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/deusflow/newsbot/internal/logger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// PostgresStore keeps subscribers and send history in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects, pings and applies pending migrations.
func NewPostgresStore(ctx context.Context, connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	version, dirty, err := RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("PostgreSQL store connected", "schema_version", version, "dirty", dirty)

	return newPostgresStore(db), nil
}

func newPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// RunMigrations applies all pending migrations and returns version info
func RunMigrations(db *sql.DB) (uint, bool, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return 0, false, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return 0, false, fmt.Errorf("failed to create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, false, fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

func (ps *PostgresStore) exec(ctx context.Context, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return ps.db.ExecContext(ctx, query, args...)
}

func (ps *PostgresStore) AddSubscriber(ctx context.Context, userID string, joinedAt time.Time) error {
	q := ps.sb.Insert("subscribers").
		Columns("user_id", "active", "joined_at").
		Values(userID, true, joinedAt).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET active = EXCLUDED.active, joined_at = EXCLUDED.joined_at")
	if _, err := ps.exec(ctx, q); err != nil {
		return fmt.Errorf("failed to add subscriber: %w", err)
	}
	return nil
}

func (ps *PostgresStore) RemoveSubscriber(ctx context.Context, userID string) error {
	if _, err := ps.exec(ctx, ps.sb.Delete("subscribers").Where(sq.Eq{"user_id": userID})); err != nil {
		return fmt.Errorf("failed to remove subscriber: %w", err)
	}
	return nil
}

func (ps *PostgresStore) GetSubscriber(ctx context.Context, userID string) (Subscriber, error) {
	query, args, err := ps.sb.Select("user_id", "active", "joined_at").
		From("subscribers").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return Subscriber{}, fmt.Errorf("build query: %w", err)
	}

	var s Subscriber
	err = ps.db.QueryRowContext(ctx, query, args...).Scan(&s.UserID, &s.Active, &s.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Subscriber{}, ErrNotFound
	}
	if err != nil {
		return Subscriber{}, fmt.Errorf("failed to get subscriber: %w", err)
	}
	return s, nil
}

func (ps *PostgresStore) CountSubscribers(ctx context.Context) (int, error) {
	query, args, err := ps.sb.Select("COUNT(*)").From("subscribers").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	var n int
	if err := ps.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count subscribers: %w", err)
	}
	return n, nil
}

func (ps *PostgresStore) ActiveSubscribers(ctx context.Context, limit int) ([]Subscriber, error) {
	b := ps.sb.Select("user_id", "active", "joined_at").
		From("subscribers").
		Where(sq.Eq{"active": true}).
		OrderBy("joined_at ASC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := ps.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	var out []Subscriber
	for rows.Next() {
		var s Subscriber
		if err := rows.Scan(&s.UserID, &s.Active, &s.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (ps *PostgresStore) SaveNewsRecord(ctx context.Context, rec NewsRecord) error {
	q := ps.sb.Insert("news_records").
		Columns("id", "title", "link", "category", "sent_at", "expire_at").
		Values(rec.ID, rec.Title, rec.Link, rec.Category, rec.SentAt, rec.ExpireAt)
	if _, err := ps.exec(ctx, q); err != nil {
		return fmt.Errorf("failed to save news record: %w", err)
	}
	return nil
}

func (ps *PostgresStore) IsLinkSent(ctx context.Context, link string, now time.Time) (bool, error) {
	query, args, err := ps.sb.Select("COUNT(*)").
		From("news_records").
		Where(sq.Eq{"link": link}).
		Where(sq.Gt{"expire_at": now}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}
	var n int
	if err := ps.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check link: %w", err)
	}
	return n > 0, nil
}

func (ps *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := ps.exec(ctx, ps.sb.Delete("news_records").Where(sq.LtOrEq{"expire_at": now}))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
