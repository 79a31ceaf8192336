package taskservice

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"prodcal/internal/domain"
)

// EnsureSchema creates the local fixture tables if they don't exist.
func EnsureSchema(db *sql.DB) error {
	schema := `
PRAGMA journal_mode=WAL;
CREATE TABLE IF NOT EXISTS production_tasks (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  product_name TEXT NOT NULL DEFAULT '',
  mo_number TEXT NOT NULL DEFAULT '',
  quantity REAL NOT NULL DEFAULT 0,
  unit TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL CHECK(status IN ('Scheduled','InProgress','Completed','Cancelled','OnHold')) DEFAULT 'Scheduled',
  scheduled_date DATETIME,
  end_date DATETIME,
  estimated_duration INTEGER NOT NULL DEFAULT 0,
  workstation_id TEXT,
  order_id TEXT,
  order_number TEXT,
  customer_id TEXT,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tasks_scheduled ON production_tasks(scheduled_date);
CREATE TABLE IF NOT EXISTS production_sessions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  task_id TEXT NOT NULL,
  start_date DATETIME,
  end_date DATETIME,
  FOREIGN KEY(task_id) REFERENCES production_tasks(id)
);
CREATE TABLE IF NOT EXISTS workstations (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  color TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS customers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL
);
`
	_, err := db.Exec(schema)
	return err
}

// LocalRepo is a sqlite-backed stand-in for the remote task store, used
// in fixture mode and tests. Same contract as Client.
type LocalRepo struct{ db *sql.DB }

func NewLocalRepo(db *sql.DB) *LocalRepo { return &LocalRepo{db: db} }

func (r *LocalRepo) TasksByRange(ctx context.Context, start, end time.Time) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id,name,product_name,mo_number,quantity,unit,status,scheduled_date,end_date,estimated_duration,workstation_id,order_id,order_number,customer_id,updated_at
FROM production_tasks
WHERE scheduled_date IS NOT NULL
  AND scheduled_date <= ?
  AND COALESCE(end_date, scheduled_date) >= ?
ORDER BY scheduled_date`, end.UTC(), start.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var t domain.Task
		var scheduled, endDate sql.NullTime
		var workstation, orderID, orderNumber, customer sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &t.ProductName, &t.MONumber, &t.Quantity, &t.Unit, &t.Status,
			&scheduled, &endDate, &t.EstimatedDurationMin, &workstation, &orderID, &orderNumber, &customer, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if scheduled.Valid {
			t.ScheduledDate = scheduled.Time
		}
		if endDate.Valid {
			t.EndDate = endDate.Time
		}
		t.WorkstationID = workstation.String
		t.OrderID = orderID.String
		t.OrderNumber = orderNumber.String
		t.CustomerID = customer.String
		if err := r.loadSessions(ctx, &t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *LocalRepo) loadSessions(ctx context.Context, t *domain.Task) error {
	rows, err := r.db.QueryContext(ctx, `SELECT start_date, end_date FROM production_sessions WHERE task_id=? ORDER BY id`, t.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var start, end sql.NullTime
		if err := rows.Scan(&start, &end); err != nil {
			return err
		}
		s := domain.ProductionSession{}
		if start.Valid {
			s.Start = start.Time
		}
		if end.Valid {
			s.End = end.Time
		}
		t.ProductionSessions = append(t.ProductionSessions, s)
	}
	return rows.Err()
}

func (r *LocalRepo) Workstations(ctx context.Context) ([]domain.Workstation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, color FROM workstations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Workstation
	for rows.Next() {
		var ws domain.Workstation
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.Color); err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

func (r *LocalRepo) Customers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM customers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *LocalRepo) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch, actorID string) error {
	_ = actorID // the fixture store keeps no audit trail
	if patch.ScheduledDate != nil {
		if _, err := r.db.ExecContext(ctx, `UPDATE production_tasks SET scheduled_date=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, patch.ScheduledDate.UTC(), id); err != nil {
			return err
		}
	}
	if patch.EndDate != nil {
		if _, err := r.db.ExecContext(ctx, `UPDATE production_tasks SET end_date=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, patch.EndDate.UTC(), id); err != nil {
			return err
		}
	}
	if patch.EstimatedDurationMin != nil {
		if _, err := r.db.ExecContext(ctx, `UPDATE production_tasks SET estimated_duration=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, *patch.EstimatedDurationMin, id); err != nil {
			return err
		}
	}
	return nil
}

// InsertTask adds a fixture task, generating a prefixed id when absent.
func (r *LocalRepo) InsertTask(ctx context.Context, t domain.Task) (string, error) {
	id := t.ID
	if id == "" {
		id = "tsk_" + uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO production_tasks (id,name,product_name,mo_number,quantity,unit,status,scheduled_date,end_date,estimated_duration,workstation_id,order_id,order_number,customer_id,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)`,
		id, t.Name, t.ProductName, t.MONumber, t.Quantity, t.Unit, string(t.Status),
		nullTime(t.ScheduledDate), nullTime(t.EndDate), t.EstimatedDurationMin,
		nullString(t.WorkstationID), nullString(t.OrderID), nullString(t.OrderNumber), nullString(t.CustomerID))
	if err != nil {
		return "", err
	}
	for _, s := range t.ProductionSessions {
		if _, err := r.db.ExecContext(ctx, `INSERT INTO production_sessions (task_id, start_date, end_date) VALUES (?,?,?)`,
			id, nullTime(s.Start), nullTime(s.End)); err != nil {
			return "", err
		}
	}
	return id, nil
}

// InsertWorkstation and InsertCustomer seed the fixture catalogs.
func (r *LocalRepo) InsertWorkstation(ctx context.Context, ws domain.Workstation) error {
	id := ws.ID
	if id == "" {
		id = "ws_" + uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO workstations (id, name, color) VALUES (?,?,?)`, id, ws.Name, ws.Color)
	return err
}

func (r *LocalRepo) InsertCustomer(ctx context.Context, c domain.Customer) error {
	id := c.ID
	if id == "" {
		id = "cus_" + uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO customers (id, name) VALUES (?,?)`, id, c.Name)
	return err
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
