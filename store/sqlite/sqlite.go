/*
Package sqlite provides the SQLite-backed Store.

PURPOSE:
  Durable persistence for the CRM state in a single local database file.
  The store mirrors the Store contract exactly: every Save replaces the
  whole collection inside one transaction, and Load reads everything back
  in one shot at startup.

KEY TABLES:
  orders:    One row per physical ledger entry (split shares included)
  clients:   Derived registry, persisted only to survive restarts
  expenses:  Expense records
  salaries:  Payroll records, UNIQUE(month, manager) backs the engine rule
  archives:  One frozen JSON payload per closed month
  overrides: Manual channel overrides, one JSON payload per month
  settings:  Small singletons (managers, sources, cash reserve, role)

MONEY:
  Decimal values are stored as TEXT to keep exact precision. SQLite REAL
  would round-trip through floats.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so reads don't block the
  single writer and crash recovery is cheap.

USAGE:
  store, err := sqlite.New("./stickercrm.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - crm/store.go: Interface definition
  - crm/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/vozduh/sticker-crm/crm"
)

// Store implements crm.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		price TEXT NOT NULL,
		category TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		is_paid INTEGER NOT NULL,
		order_date TEXT NOT NULL,
		created_at TEXT NOT NULL,
		client_name TEXT,
		client_phone TEXT,
		manager TEXT,
		source TEXT,
		duplicate_group_id TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_orders_order_date ON orders(order_date);
	CREATE INDEX IF NOT EXISTS idx_orders_group
		ON orders(duplicate_group_id) WHERE duplicate_group_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		manager TEXT,
		source TEXT,
		order_ids_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		last_order_date TEXT NOT NULL,
		total_orders INTEGER NOT NULL,
		total_revenue TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		category TEXT NOT NULL,
		amount TEXT NOT NULL,
		payment_source TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS salaries (
		id TEXT PRIMARY KEY,
		month TEXT NOT NULL,
		manager TEXT NOT NULL,
		amount TEXT NOT NULL,
		is_paid INTEGER NOT NULL,
		paid_date TEXT,
		payment_source TEXT NOT NULL,
		UNIQUE(month, manager)
	);

	-- Archives are immutable; the whole snapshot is one JSON payload.
	CREATE TABLE IF NOT EXISTS archives (
		month TEXT PRIMARY KEY,
		closed_at TEXT NOT NULL,
		payload_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS overrides (
		month TEXT PRIMARY KEY,
		payload_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value_json TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LOAD
// =============================================================================

func (s *Store) Load(ctx context.Context) (*crm.State, error) {
	st := &crm.State{Overrides: make(map[crm.MonthKey]crm.Overrides)}

	var err error
	if st.Orders, err = s.loadOrders(ctx); err != nil {
		return nil, err
	}
	if st.Clients, err = s.loadClients(ctx); err != nil {
		return nil, err
	}
	if st.Expenses, err = s.loadExpenses(ctx); err != nil {
		return nil, err
	}
	if st.Salaries, err = s.loadSalaries(ctx); err != nil {
		return nil, err
	}
	if st.Archives, err = s.loadArchives(ctx); err != nil {
		return nil, err
	}
	if err = s.loadOverrides(ctx, st.Overrides); err != nil {
		return nil, err
	}

	if err = s.loadSetting(ctx, "managers", &st.Managers); err != nil {
		return nil, err
	}
	if err = s.loadSetting(ctx, "sources", &st.Sources); err != nil {
		return nil, err
	}
	if err = s.loadSetting(ctx, "cash_reserve", &st.CashReserve); err != nil {
		return nil, err
	}
	if err = s.loadSetting(ctx, "user_role", &st.UserRole); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Store) loadOrders(ctx context.Context) ([]crm.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, price, category, payment_method,
		       is_paid, order_date, created_at, client_name, client_phone,
		       manager, source, duplicate_group_id
		FROM orders ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []crm.Order
	for rows.Next() {
		var o crm.Order
		var price, orderDate, createdAt string
		var isPaid int
		var desc, clientName, clientPhone, manager, source, groupID sql.NullString
		if err := rows.Scan(&o.ID, &o.Title, &desc, &price, &o.Category,
			&o.PaymentMethod, &isPaid, &orderDate, &createdAt,
			&clientName, &clientPhone, &manager, &source, &groupID); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if o.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("order %s price: %w", o.ID, err)
		}
		if o.OrderDate, err = parseTime(orderDate); err != nil {
			return nil, fmt.Errorf("order %s order_date: %w", o.ID, err)
		}
		if o.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("order %s created_at: %w", o.ID, err)
		}
		o.IsPaid = isPaid != 0
		o.Description = desc.String
		o.ClientName = clientName.String
		o.ClientPhone = clientPhone.String
		o.Manager = manager.String
		o.Source = source.String
		o.DuplicateGroupID = crm.GroupID(groupID.String)
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) loadClients(ctx context.Context) ([]crm.Client, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, manager, source, order_ids_json,
		       created_at, last_order_date, total_orders, total_revenue
		FROM clients`)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	var out []crm.Client
	for rows.Next() {
		var c crm.Client
		var orderIDs, createdAt, lastOrder, revenue string
		var manager, source sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &manager, &source,
			&orderIDs, &createdAt, &lastOrder, &c.TotalOrders, &revenue); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		if err := json.Unmarshal([]byte(orderIDs), &c.OrderIDs); err != nil {
			return nil, fmt.Errorf("client %s order ids: %w", c.ID, err)
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("client %s created_at: %w", c.ID, err)
		}
		if c.LastOrderDate, err = parseTime(lastOrder); err != nil {
			return nil, fmt.Errorf("client %s last_order_date: %w", c.ID, err)
		}
		if c.TotalRevenue, err = decimal.NewFromString(revenue); err != nil {
			return nil, fmt.Errorf("client %s revenue: %w", c.ID, err)
		}
		c.Manager = manager.String
		c.Source = source.String
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) loadExpenses(ctx context.Context) ([]crm.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, category, amount, payment_source FROM expenses ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []crm.Expense
	for rows.Next() {
		var e crm.Expense
		var date, amount string
		if err := rows.Scan(&e.ID, &date, &e.Category, &amount, &e.PaymentSource); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Date, err = parseTime(date); err != nil {
			return nil, fmt.Errorf("expense %s date: %w", e.ID, err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("expense %s amount: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) loadSalaries(ctx context.Context) ([]crm.Salary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, month, manager, amount, is_paid, paid_date, payment_source
		FROM salaries ORDER BY month, manager`)
	if err != nil {
		return nil, fmt.Errorf("query salaries: %w", err)
	}
	defer rows.Close()

	var out []crm.Salary
	for rows.Next() {
		var sal crm.Salary
		var amount string
		var isPaid int
		var paidDate sql.NullString
		if err := rows.Scan(&sal.ID, &sal.Month, &sal.Manager, &amount,
			&isPaid, &paidDate, &sal.PaymentSource); err != nil {
			return nil, fmt.Errorf("scan salary: %w", err)
		}
		if sal.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("salary %s amount: %w", sal.ID, err)
		}
		sal.IsPaid = isPaid != 0
		if paidDate.Valid {
			t, err := parseTime(paidDate.String)
			if err != nil {
				return nil, fmt.Errorf("salary %s paid_date: %w", sal.ID, err)
			}
			sal.PaidDate = &t
		}
		out = append(out, sal)
	}
	return out, rows.Err()
}

func (s *Store) loadArchives(ctx context.Context) ([]crm.MonthlyArchive, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload_json FROM archives ORDER BY month DESC`)
	if err != nil {
		return nil, fmt.Errorf("query archives: %w", err)
	}
	defer rows.Close()

	var out []crm.MonthlyArchive
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan archive: %w", err)
		}
		var a crm.MonthlyArchive
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			return nil, fmt.Errorf("decode archive: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) loadOverrides(ctx context.Context, into map[crm.MonthKey]crm.Overrides) error {
	rows, err := s.db.QueryContext(ctx, `SELECT month, payload_json FROM overrides`)
	if err != nil {
		return fmt.Errorf("query overrides: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var month, payload string
		if err := rows.Scan(&month, &payload); err != nil {
			return fmt.Errorf("scan override: %w", err)
		}
		var o crm.Overrides
		if err := json.Unmarshal([]byte(payload), &o); err != nil {
			return fmt.Errorf("decode override %s: %w", month, err)
		}
		into[crm.MonthKey(month)] = o
	}
	return rows.Err()
}

// loadSetting decodes one settings row into dst. A missing key leaves dst
// at its zero value.
func (s *Store) loadSetting(ctx context.Context, key string, dst any) error {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT value_json FROM settings WHERE key = ?`, key).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("query setting %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		return fmt.Errorf("decode setting %s: %w", key, err)
	}
	return nil
}

// =============================================================================
// SAVE - Full collection replace, one transaction each
// =============================================================================

// replaceAll runs delete-then-insert inside one transaction.
func (s *Store) replaceAll(ctx context.Context, deleteStmt string, insert func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteStmt); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	if err := insert(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) SaveOrders(ctx context.Context, orders []crm.Order) error {
	return s.replaceAll(ctx, `DELETE FROM orders`, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO orders (id, title, description, price, category,
				payment_method, is_paid, order_date, created_at, client_name,
				client_phone, manager, source, duplicate_group_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, o := range orders {
			_, err := stmt.ExecContext(ctx,
				string(o.ID), o.Title, nullString(o.Description),
				o.Price.String(), o.Category, string(o.PaymentMethod),
				boolInt(o.IsPaid), formatTime(o.OrderDate), formatTime(o.CreatedAt),
				nullString(o.ClientName), nullString(o.ClientPhone),
				nullString(o.Manager), nullString(o.Source),
				nullString(string(o.DuplicateGroupID)))
			if err != nil {
				return fmt.Errorf("insert order %s: %w", o.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) SaveClients(ctx context.Context, clients []crm.Client) error {
	return s.replaceAll(ctx, `DELETE FROM clients`, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO clients (id, name, phone, manager, source,
				order_ids_json, created_at, last_order_date, total_orders, total_revenue)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range clients {
			ids, err := json.Marshal(c.OrderIDs)
			if err != nil {
				return fmt.Errorf("encode client %s order ids: %w", c.ID, err)
			}
			_, err = stmt.ExecContext(ctx,
				string(c.ID), c.Name, c.Phone,
				nullString(c.Manager), nullString(c.Source), string(ids),
				formatTime(c.CreatedAt), formatTime(c.LastOrderDate),
				c.TotalOrders, c.TotalRevenue.String())
			if err != nil {
				return fmt.Errorf("insert client %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) SaveExpenses(ctx context.Context, expenses []crm.Expense) error {
	return s.replaceAll(ctx, `DELETE FROM expenses`, func(tx *sql.Tx) error {
		for _, e := range expenses {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO expenses (id, date, category, amount, payment_source)
				VALUES (?, ?, ?, ?, ?)`,
				string(e.ID), formatTime(e.Date), e.Category,
				e.Amount.String(), string(e.PaymentSource))
			if err != nil {
				return fmt.Errorf("insert expense %s: %w", e.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) SaveSalaries(ctx context.Context, salaries []crm.Salary) error {
	return s.replaceAll(ctx, `DELETE FROM salaries`, func(tx *sql.Tx) error {
		for _, sal := range salaries {
			var paidDate any
			if sal.PaidDate != nil {
				paidDate = formatTime(*sal.PaidDate)
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO salaries (id, month, manager, amount, is_paid, paid_date, payment_source)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				string(sal.ID), string(sal.Month), sal.Manager,
				sal.Amount.String(), boolInt(sal.IsPaid), paidDate,
				string(sal.PaymentSource))
			if err != nil {
				return fmt.Errorf("insert salary %s: %w", sal.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) SaveArchives(ctx context.Context, archives []crm.MonthlyArchive) error {
	return s.replaceAll(ctx, `DELETE FROM archives`, func(tx *sql.Tx) error {
		for _, a := range archives {
			payload, err := json.Marshal(a)
			if err != nil {
				return fmt.Errorf("encode archive %s: %w", a.Month, err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO archives (month, closed_at, payload_json) VALUES (?, ?, ?)`,
				string(a.Month), formatTime(a.ClosedAt), string(payload))
			if err != nil {
				return fmt.Errorf("insert archive %s: %w", a.Month, err)
			}
		}
		return nil
	})
}

func (s *Store) SaveOverrides(ctx context.Context, month crm.MonthKey, o crm.Overrides) error {
	if o.IsEmpty() {
		_, err := s.db.ExecContext(ctx, `DELETE FROM overrides WHERE month = ?`, string(month))
		return err
	}
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode overrides %s: %w", month, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO overrides (month, payload_json) VALUES (?, ?)
		ON CONFLICT(month) DO UPDATE SET payload_json = excluded.payload_json`,
		string(month), string(payload))
	return err
}

func (s *Store) SaveManagers(ctx context.Context, managers []crm.Manager) error {
	return s.saveSetting(ctx, "managers", managers)
}

func (s *Store) SaveSources(ctx context.Context, sources []crm.OrderSource) error {
	return s.saveSetting(ctx, "sources", sources)
}

func (s *Store) SaveCashReserve(ctx context.Context, reserve crm.ChannelAmounts) error {
	return s.saveSetting(ctx, "cash_reserve", reserve)
}

func (s *Store) SaveUserRole(ctx context.Context, role crm.UserRole) error {
	return s.saveSetting(ctx, "user_role", role)
}

func (s *Store) saveSetting(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value_json) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value_json = excluded.value_json`,
		key, string(payload))
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ crm.Store = (*Store)(nil)
