// Package storage is the SQLite backend of store.Store.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"budget/internal/core"
	"budget/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Store = (*SQLiteRepository)(nil)

const settingsKey = "settings"

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, store.Unavailable("open sqlite database", err)
	}
	// SQLite serialises writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, store.Unavailable("ping database", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite schema ready", "path", dbPath, "version", version)

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return store.Unavailable("ping sqlite", r.db.PingContext(ctx))
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// parseID maps identifiers that can never exist in this backend to ErrNotFound.
func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, store.ErrNotFound
	}
	return n, nil
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }

func expectOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return store.Unavailable(op, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

const expenseColumns = `id, category, amount_cents, frequency, description, month, year, author, created_at, modified_by, modified_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e                   core.Expense
		id, created, modifd int64
		freq                string
	)
	if err := row.Scan(&id, &e.Category, &e.Amount.Cents, &freq, &e.Description, &e.Month, &e.Year,
		&e.Author, &created, &e.ModifiedBy, &modifd); err != nil {
		return core.Expense{}, err
	}
	e.ID = formatID(id)
	e.Frequency = core.Frequency(freq)
	e.CreatedAt = fromUnix(created)
	e.ModifiedAt = fromUnix(modifd)
	return e, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (string, error) {
	e = e.Normalize()
	if err := e.Validate(); err != nil {
		return "", err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (category, amount_cents, frequency, description, month, year, author, created_at, modified_by, modified_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Category, e.Amount.Cents, string(e.Frequency), e.Description, int(e.Month), e.Year,
		e.Author, toUnix(e.CreatedAt), e.ModifiedBy, toUnix(e.ModifiedAt))
	if err != nil {
		return "", store.Unavailable("create expense", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", store.Unavailable("create expense", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", id,
		"category", e.Category,
		"amount_cents", e.Amount.Cents,
		"month", int(e.Month),
		"year", e.Year)

	return formatID(id), nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	n, err := parseID(id)
	if err != nil {
		return core.Expense{}, err
	}
	e, err := scanExpense(r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, n))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, store.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, store.Unavailable("get expense", err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY id`)
	if err != nil {
		return nil, store.Unavailable("list expenses", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, store.Unavailable("scan expense", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Unavailable("list expenses", err)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, id string, edit core.Expense) (core.Expense, error) {
	current, err := r.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	updated := current.ApplyEdit(edit)
	if err := updated.Validate(); err != nil {
		return core.Expense{}, err
	}
	n, _ := parseID(id)
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET category = ?, amount_cents = ?, frequency = ?, description = ?, month = ?, year = ?,
		 modified_by = ?, modified_at = ? WHERE id = ?`,
		updated.Category, updated.Amount.Cents, string(updated.Frequency), updated.Description,
		int(updated.Month), updated.Year, updated.ModifiedBy, toUnix(updated.ModifiedAt), n)
	if err != nil {
		return core.Expense{}, store.Unavailable("update expense", err)
	}
	if err := expectOneRow(res, "update expense"); err != nil {
		return core.Expense{}, err
	}
	return updated, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, n)
	if err != nil {
		return store.Unavailable("delete expense", err)
	}
	return expectOneRow(res, "delete expense")
}

const incomeColumns = `id, source, amount_cents, month, year, author, created_at, modified_by, modified_at`

func scanIncome(row rowScanner) (core.Income, error) {
	var (
		in                  core.Income
		id, created, modifd int64
	)
	if err := row.Scan(&id, &in.Source, &in.Amount.Cents, &in.Month, &in.Year,
		&in.Author, &created, &in.ModifiedBy, &modifd); err != nil {
		return core.Income{}, err
	}
	in.ID = formatID(id)
	in.CreatedAt = fromUnix(created)
	in.ModifiedAt = fromUnix(modifd)
	return in, nil
}

func (r *SQLiteRepository) CreateIncome(ctx context.Context, in core.Income) (string, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return "", err
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = r.now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO revenues (source, amount_cents, month, year, author, created_at, modified_by, modified_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Source, in.Amount.Cents, int(in.Month), in.Year, in.Author,
		toUnix(in.CreatedAt), in.ModifiedBy, toUnix(in.ModifiedAt))
	if err != nil {
		return "", store.Unavailable("create income", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", store.Unavailable("create income", err)
	}
	slog.DebugContext(ctx, "Income saved to SQLite", "id", id, "source", in.Source, "amount_cents", in.Amount.Cents)
	return formatID(id), nil
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, id string) (core.Income, error) {
	n, err := parseID(id)
	if err != nil {
		return core.Income{}, err
	}
	in, err := scanIncome(r.db.QueryRowContext(ctx, `SELECT `+incomeColumns+` FROM revenues WHERE id = ?`, n))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Income{}, store.ErrNotFound
	}
	if err != nil {
		return core.Income{}, store.Unavailable("get income", err)
	}
	return in, nil
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+incomeColumns+` FROM revenues ORDER BY id`)
	if err != nil {
		return nil, store.Unavailable("list incomes", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, store.Unavailable("scan income", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Unavailable("list incomes", err)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateIncome(ctx context.Context, id string, edit core.Income) (core.Income, error) {
	current, err := r.GetIncome(ctx, id)
	if err != nil {
		return core.Income{}, err
	}
	updated := current.ApplyEdit(edit)
	if err := updated.Validate(); err != nil {
		return core.Income{}, err
	}
	n, _ := parseID(id)
	res, err := r.db.ExecContext(ctx,
		`UPDATE revenues SET source = ?, amount_cents = ?, month = ?, year = ?, modified_by = ?, modified_at = ? WHERE id = ?`,
		updated.Source, updated.Amount.Cents, int(updated.Month), updated.Year,
		updated.ModifiedBy, toUnix(updated.ModifiedAt), n)
	if err != nil {
		return core.Income{}, store.Unavailable("update income", err)
	}
	if err := expectOneRow(res, "update income"); err != nil {
		return core.Income{}, err
	}
	return updated, nil
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM revenues WHERE id = ?`, n)
	if err != nil {
		return store.Unavailable("delete income", err)
	}
	return expectOneRow(res, "delete income")
}

// Config documents are stored as JSON values keyed by name.

func (r *SQLiteRepository) getDocument(ctx context.Context, key string, dst any) (bool, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, store.Unavailable("read config "+key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode config %s: %w", key, err)
	}
	return true, nil
}

func (r *SQLiteRepository) putDocument(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode config %s: %w", key, err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO config (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(raw), r.now().Unix())
	return store.Unavailable("write config "+key, err)
}

func (r *SQLiteRepository) GetTaxonomy(ctx context.Context, kind core.TaxonomyKind) ([]string, bool, error) {
	var list []string
	found, err := r.getDocument(ctx, string(kind), &list)
	return list, found, err
}

func (r *SQLiteRepository) SaveTaxonomy(ctx context.Context, kind core.TaxonomyKind, list []string) error {
	if list == nil {
		list = []string{}
	}
	return r.putDocument(ctx, string(kind), list)
}

func (r *SQLiteRepository) GetSettings(ctx context.Context) (core.Settings, bool, error) {
	var s core.Settings
	found, err := r.getDocument(ctx, settingsKey, &s)
	return s, found, err
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, s core.Settings) error {
	return r.putDocument(ctx, settingsKey, s)
}

func (r *SQLiteRepository) GetProfile(ctx context.Context, name string) (core.UserProfile, error) {
	var (
		p                core.UserProfile
		created, updated int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT name, image, image_type, created_at, updated_at FROM user_profiles WHERE name = ?`, name).
		Scan(&p.Name, &p.Image, &p.ImageType, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserProfile{}, store.ErrNotFound
	}
	if err != nil {
		return core.UserProfile{}, store.Unavailable("get profile", err)
	}
	p.CreatedAt = fromUnix(created)
	p.UpdatedAt = fromUnix(updated)
	return p, nil
}

func (r *SQLiteRepository) ListProfiles(ctx context.Context) ([]core.UserProfile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, image, image_type, created_at, updated_at FROM user_profiles ORDER BY name`)
	if err != nil {
		return nil, store.Unavailable("list profiles", err)
	}
	defer rows.Close()

	var out []core.UserProfile
	for rows.Next() {
		var (
			p                core.UserProfile
			created, updated int64
		)
		if err := rows.Scan(&p.Name, &p.Image, &p.ImageType, &created, &updated); err != nil {
			return nil, store.Unavailable("scan profile", err)
		}
		p.CreatedAt = fromUnix(created)
		p.UpdatedAt = fromUnix(updated)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Unavailable("list profiles", err)
	}
	return out, nil
}

func (r *SQLiteRepository) SaveProfile(ctx context.Context, p core.UserProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	now := r.now().Unix()
	created := toUnix(p.CreatedAt)
	if created == 0 {
		created = now
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_profiles (name, image, image_type, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET image = excluded.image, image_type = excluded.image_type, updated_at = excluded.updated_at`,
		p.Name, p.Image, p.ImageType, created, now)
	return store.Unavailable("save profile", err)
}

func (r *SQLiteRepository) DeleteProfile(ctx context.Context, name string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Unavailable("delete profile", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM user_profiles WHERE name = ?`, name)
	if err != nil {
		return store.Unavailable("delete profile", err)
	}
	if err := expectOneRow(res, "delete profile"); err != nil {
		return err
	}
	for _, q := range []string{
		`DELETE FROM user_theme_preferences WHERE user_name = ?`,
		`DELETE FROM user_preferences WHERE user_name = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, name); err != nil {
			return store.Unavailable("delete profile", err)
		}
	}
	return store.Unavailable("commit profile delete", tx.Commit())
}

func (r *SQLiteRepository) GetTheme(ctx context.Context, user string) (core.Theme, error) {
	var (
		t       core.Theme
		mode    string
		updated int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_name, mode, palette, updated_at FROM user_theme_preferences WHERE user_name = ?`, user).
		Scan(&t.User, &mode, &t.Palette, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Theme{}, store.ErrNotFound
	}
	if err != nil {
		return core.Theme{}, store.Unavailable("get theme", err)
	}
	t.Mode = core.ThemeMode(mode)
	t.UpdatedAt = fromUnix(updated)
	return t, nil
}

func (r *SQLiteRepository) SaveTheme(ctx context.Context, t core.Theme) error {
	if err := t.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_theme_preferences (user_name, mode, palette, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_name) DO UPDATE SET mode = excluded.mode, palette = excluded.palette, updated_at = excluded.updated_at`,
		t.User, string(t.Mode), t.Palette, r.now().Unix())
	return store.Unavailable("save theme", err)
}

func (r *SQLiteRepository) GetPreferences(ctx context.Context, user string) (core.Preferences, error) {
	var (
		p       core.Preferences
		months  int64
		updated int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_name, year, months, updated_at FROM user_preferences WHERE user_name = ?`, user).
		Scan(&p.User, &p.Year, &months, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Preferences{}, store.ErrNotFound
	}
	if err != nil {
		return core.Preferences{}, store.Unavailable("get preferences", err)
	}
	p.Months = core.MonthSet(months)
	p.UpdatedAt = fromUnix(updated)
	return p, nil
}

func (r *SQLiteRepository) SavePreferences(ctx context.Context, p core.Preferences) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_preferences (user_name, year, months, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_name) DO UPDATE SET year = excluded.year, months = excluded.months, updated_at = excluded.updated_at`,
		p.User, p.Year, int64(p.Months), r.now().Unix())
	return store.Unavailable("save preferences", err)
}

func (r *SQLiteRepository) AppendNotification(ctx context.Context, n core.Notification) (string, error) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (title, message, user_name, module, created_at, read) VALUES (?, ?, ?, ?, ?, ?)`,
		n.Title, n.Message, n.User, n.Module, n.CreatedAt.Unix(), n.Read)
	if err != nil {
		return "", store.Unavailable("append notification", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", store.Unavailable("append notification", err)
	}
	return formatID(id), nil
}

func (r *SQLiteRepository) ListNotifications(ctx context.Context, limit int) ([]core.Notification, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, message, user_name, module, created_at, read FROM notifications
		 ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, store.Unavailable("list notifications", err)
	}
	defer rows.Close()

	var out []core.Notification
	for rows.Next() {
		var (
			n           core.Notification
			id, created int64
		)
		if err := rows.Scan(&id, &n.Title, &n.Message, &n.User, &n.Module, &created, &n.Read); err != nil {
			return nil, store.Unavailable("scan notification", err)
		}
		n.ID = formatID(id)
		n.CreatedAt = fromUnix(created)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Unavailable("list notifications", err)
	}
	return out, nil
}

func (r *SQLiteRepository) MarkNotificationRead(ctx context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE id = ?`, n)
	if err != nil {
		return store.Unavailable("mark notification read", err)
	}
	return expectOneRow(res, "mark notification read")
}

func (r *SQLiteRepository) MarkAllNotificationsRead(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE read = 0`)
	return store.Unavailable("mark all notifications read", err)
}

func (r *SQLiteRepository) CountUnreadNotifications(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE read = 0`).Scan(&n); err != nil {
		return 0, store.Unavailable("count notifications", err)
	}
	return n, nil
}
