// Package store persists projects, schedule versions and delay reports in a
// SQLite database file.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/earnor/look-ahead-planning/core/model"
	"github.com/earnor/look-ahead-planning/core/planner"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS projects (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    name       TEXT NOT NULL UNIQUE,
    start      INTEGER NOT NULL,
    target_end INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS modules (
    project_id         INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    idx                INTEGER NOT NULL,
    module_id          TEXT NOT NULL,
    production_hours   INTEGER NOT NULL,
    transport_hours    INTEGER NOT NULL,
    installation_hours INTEGER NOT NULL,
    PRIMARY KEY (project_id, idx)
);
CREATE TABLE IF NOT EXISTS precedence (
    project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    pred       INTEGER NOT NULL,
    succ       INTEGER NOT NULL,
    PRIMARY KEY (project_id, pred, succ)
);
CREATE TABLE IF NOT EXISTS schedule_versions (
    project_id  INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    version     INTEGER NOT NULL,
    status      TEXT NOT NULL,
    objective   REAL NOT NULL,
    gap         REAL NOT NULL,
    finish_time INTEGER NOT NULL,
    horizon     INTEGER NOT NULL,
    created_at  INTEGER NOT NULL,
    order_times TEXT NOT NULL,
    PRIMARY KEY (project_id, version)
);
CREATE TABLE IF NOT EXISTS schedule_modules (
    project_id                  INTEGER NOT NULL,
    version                     INTEGER NOT NULL,
    idx                         INTEGER NOT NULL,
    module_id                   TEXT NOT NULL,
    production_start            INTEGER NOT NULL,
    production_duration         INTEGER NOT NULL,
    factory_wait_start          INTEGER NOT NULL,
    factory_wait_duration       INTEGER NOT NULL,
    transport_start             INTEGER NOT NULL,
    transport_duration          INTEGER NOT NULL,
    arrival_time                INTEGER NOT NULL,
    site_wait_start             INTEGER NOT NULL,
    site_wait_duration          INTEGER NOT NULL,
    installation_start          INTEGER NOT NULL,
    installation_duration       INTEGER NOT NULL,
    earliest_production_start   INTEGER NOT NULL DEFAULT 0,
    earliest_transport_start    INTEGER NOT NULL DEFAULT 0,
    earliest_installation_start INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (project_id, version, idx),
    FOREIGN KEY (project_id, version) REFERENCES schedule_versions(project_id, version) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS factory_inventory (
    project_id INTEGER NOT NULL,
    version    INTEGER NOT NULL,
    slot       INTEGER NOT NULL,
    level      REAL NOT NULL,
    PRIMARY KEY (project_id, version, slot),
    FOREIGN KEY (project_id, version) REFERENCES schedule_versions(project_id, version) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS site_inventory (
    project_id INTEGER NOT NULL,
    version    INTEGER NOT NULL,
    idx        INTEGER NOT NULL,
    slot       INTEGER NOT NULL,
    level      REAL NOT NULL,
    PRIMARY KEY (project_id, version, idx, slot),
    FOREIGN KEY (project_id, version) REFERENCES schedule_versions(project_id, version) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS delays (
    id              TEXT PRIMARY KEY,
    project_id      INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    module_id       TEXT NOT NULL,
    phase           TEXT NOT NULL,
    type            TEXT NOT NULL,
    hours           INTEGER NOT NULL,
    detected_at     INTEGER NOT NULL,
    detected_index  INTEGER NOT NULL DEFAULT 0,
    reason          TEXT NOT NULL DEFAULT '',
    applied_version INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS delays_pending ON delays (project_id, applied_version);
`

// SQLite implements planner.Store on a single database file.
type SQLite struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*SQLite, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA foreign_keys=ON;"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ensure schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error { return s.db.Close() }

// CreateProject stores the project definition and returns its id.
func (s *SQLite) CreateProject(ctx context.Context, name string, start, targetEnd time.Time, modules []model.Module, edges []model.Edge) (int64, error) {
	p := model.Project{Name: name, Start: start, TargetEnd: targetEnd, Modules: modules, Edges: edges}
	if err := p.Validate(); err != nil {
		return 0, fmt.Errorf("store: create project: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO projects (name, start, target_end) VALUES (?, ?, ?)`,
		name, start.Unix(), targetEnd.Unix())
	if err != nil {
		return 0, fmt.Errorf("store: create project %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, m := range modules {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO modules (project_id, idx, module_id, production_hours, transport_hours, installation_hours)
             VALUES (?, ?, ?, ?, ?, ?)`,
			id, m.Index, m.ID, m.ProductionHours, m.TransportHours, m.InstallationHours); err != nil {
			return 0, fmt.Errorf("store: insert module %q: %w", m.ID, err)
		}
	}
	for _, e := range edges {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO precedence (project_id, pred, succ) VALUES (?, ?, ?)`,
			id, e.Pred, e.Succ); err != nil {
			return 0, fmt.Errorf("store: insert precedence %d->%d: %w", e.Pred, e.Succ, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	return id, nil
}

// Project loads the project with the given id.
func (s *SQLite) Project(ctx context.Context, id int64) (model.Project, error) {
	p := model.Project{ID: id}
	var start, end int64
	err := s.db.QueryRowContext(ctx,
		`SELECT name, start, target_end FROM projects WHERE id = ?`, id).
		Scan(&p.Name, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, fmt.Errorf("%w: id %d", planner.ErrProjectNotFound, id)
	}
	if err != nil {
		return model.Project{}, fmt.Errorf("store: load project %d: %w", id, err)
	}
	p.Start, p.TargetEnd = fromUnix(start), fromUnix(end)
	if err := s.loadProjectParts(ctx, &p); err != nil {
		return model.Project{}, err
	}
	return p, nil
}

// ProjectByName loads the project with the given name.
func (s *SQLite) ProjectByName(ctx context.Context, name string) (model.Project, error) {
	p := model.Project{Name: name}
	var start, end int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, start, target_end FROM projects WHERE name = ?`, name).
		Scan(&p.ID, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, fmt.Errorf("%w: name %q", planner.ErrProjectNotFound, name)
	}
	if err != nil {
		return model.Project{}, fmt.Errorf("store: load project %q: %w", name, err)
	}
	p.Start, p.TargetEnd = fromUnix(start), fromUnix(end)
	if err := s.loadProjectParts(ctx, &p); err != nil {
		return model.Project{}, err
	}
	return p, nil
}

// Projects lists all stored projects.
func (s *SQLite) Projects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, start, target_end FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []model.Project
	for rows.Next() {
		var p model.Project
		var start, end int64
		if err := rows.Scan(&p.ID, &p.Name, &start, &end); err != nil {
			return nil, err
		}
		p.Start, p.TargetEnd = fromUnix(start), fromUnix(end)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := s.loadProjectParts(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLite) loadProjectParts(ctx context.Context, p *model.Project) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, module_id, production_hours, transport_hours, installation_hours
         FROM modules WHERE project_id = ? ORDER BY idx`, p.ID)
	if err != nil {
		return fmt.Errorf("store: load modules for project %d: %w", p.ID, err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var m model.Module
		if err := rows.Scan(&m.Index, &m.ID, &m.ProductionHours, &m.TransportHours, &m.InstallationHours); err != nil {
			return err
		}
		p.Modules = append(p.Modules, m)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	erows, err := s.db.QueryContext(ctx,
		`SELECT pred, succ FROM precedence WHERE project_id = ? ORDER BY pred, succ`, p.ID)
	if err != nil {
		return fmt.Errorf("store: load precedence for project %d: %w", p.ID, err)
	}
	defer func() { _ = erows.Close() }()
	for erows.Next() {
		var e model.Edge
		if err := erows.Scan(&e.Pred, &e.Succ); err != nil {
			return err
		}
		p.Edges = append(p.Edges, e)
	}
	return erows.Err()
}

// LatestSolution returns the newest schedule version, or nil when the project
// has never been solved.
func (s *SQLite) LatestSolution(ctx context.Context, projectID int64) (*model.Solution, error) {
	var version sql.NullInt64
	if err := s.db.QueryRowContext(ctx,
		`SELECT MAX(version) FROM schedule_versions WHERE project_id = ?`, projectID).
		Scan(&version); err != nil {
		return nil, fmt.Errorf("store: latest version for project %d: %w", projectID, err)
	}
	if !version.Valid {
		return nil, nil
	}
	return s.SolutionByVersion(ctx, projectID, int(version.Int64))
}

// SolutionByVersion loads one stored schedule version.
func (s *SQLite) SolutionByVersion(ctx context.Context, projectID int64, version int) (*model.Solution, error) {
	sol := model.Solution{Version: version}
	var created int64
	var orderTimes string
	err := s.db.QueryRowContext(ctx,
		`SELECT status, objective, gap, finish_time, horizon, created_at, order_times
         FROM schedule_versions WHERE project_id = ? AND version = ?`, projectID, version).
		Scan(&sol.Status, &sol.Objective, &sol.Gap, &sol.FinishTime, &sol.Horizon, &created, &orderTimes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: project %d version %d", planner.ErrSolutionNotFound, projectID, version)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load version %d for project %d: %w", version, projectID, err)
	}
	sol.CreatedAt = fromUnix(created)
	if err := json.Unmarshal([]byte(orderTimes), &sol.OrderTimes); err != nil {
		return nil, fmt.Errorf("store: decode order times: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, module_id,
                production_start, production_duration,
                factory_wait_start, factory_wait_duration,
                transport_start, transport_duration, arrival_time,
                site_wait_start, site_wait_duration,
                installation_start, installation_duration,
                earliest_production_start, earliest_transport_start, earliest_installation_start
         FROM schedule_modules WHERE project_id = ? AND version = ? ORDER BY idx`, projectID, version)
	if err != nil {
		return nil, fmt.Errorf("store: load schedule rows: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var m model.ModulePlan
		if err := rows.Scan(&m.Index, &m.ID,
			&m.ProductionStart, &m.ProductionDuration,
			&m.FactoryWaitStart, &m.FactoryWaitDuration,
			&m.TransportStart, &m.TransportDuration, &m.ArrivalTime,
			&m.SiteWaitStart, &m.SiteWaitDuration,
			&m.InstallationStart, &m.InstallationDuration,
			&m.EarliestProductionStart, &m.EarliestTransportStart, &m.EarliestInstallationStart); err != nil {
			return nil, err
		}
		sol.Modules = append(sol.Modules, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	frows, err := s.db.QueryContext(ctx,
		`SELECT slot, level FROM factory_inventory WHERE project_id = ? AND version = ?`, projectID, version)
	if err != nil {
		return nil, fmt.Errorf("store: load factory inventory: %w", err)
	}
	defer func() { _ = frows.Close() }()
	for frows.Next() {
		var slot int
		var level float64
		if err := frows.Scan(&slot, &level); err != nil {
			return nil, err
		}
		if sol.FactoryInventory == nil {
			sol.FactoryInventory = make(map[int]float64)
		}
		sol.FactoryInventory[slot] = level
	}
	if err := frows.Err(); err != nil {
		return nil, err
	}

	srows, err := s.db.QueryContext(ctx,
		`SELECT idx, slot, level FROM site_inventory WHERE project_id = ? AND version = ?`, projectID, version)
	if err != nil {
		return nil, fmt.Errorf("store: load site inventory: %w", err)
	}
	defer func() { _ = srows.Close() }()
	for srows.Next() {
		var idx, slot int
		var level float64
		if err := srows.Scan(&idx, &slot, &level); err != nil {
			return nil, err
		}
		if sol.SiteInventory == nil {
			sol.SiteInventory = make(map[int]map[int]float64)
		}
		if sol.SiteInventory[idx] == nil {
			sol.SiteInventory[idx] = make(map[int]float64)
		}
		sol.SiteInventory[idx][slot] = level
	}
	if err := srows.Err(); err != nil {
		return nil, err
	}
	return &sol, nil
}

// SaveSolution appends the solution as the next schedule version and returns
// the assigned version number. All rows go in one transaction.
func (s *SQLite) SaveSolution(ctx context.Context, projectID int64, sol model.Solution) (int, error) {
	orderTimes, err := json.Marshal(sol.OrderTimes)
	if err != nil {
		return 0, fmt.Errorf("store: encode order times: %w", err)
	}
	created := sol.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	var prev sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(version) FROM schedule_versions WHERE project_id = ?`, projectID).
		Scan(&prev); err != nil {
		return 0, fmt.Errorf("store: next version for project %d: %w", projectID, err)
	}
	version := int(prev.Int64) + 1
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schedule_versions (project_id, version, status, objective, gap, finish_time, horizon, created_at, order_times)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		projectID, version, sol.Status, sol.Objective, sol.Gap, sol.FinishTime, sol.Horizon,
		created.Unix(), string(orderTimes)); err != nil {
		return 0, fmt.Errorf("store: insert version %d for project %d: %w", version, projectID, err)
	}
	for _, m := range sol.Modules {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schedule_modules (project_id, version, idx, module_id,
                production_start, production_duration,
                factory_wait_start, factory_wait_duration,
                transport_start, transport_duration, arrival_time,
                site_wait_start, site_wait_duration,
                installation_start, installation_duration,
                earliest_production_start, earliest_transport_start, earliest_installation_start)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			projectID, version, m.Index, m.ID,
			m.ProductionStart, m.ProductionDuration,
			m.FactoryWaitStart, m.FactoryWaitDuration,
			m.TransportStart, m.TransportDuration, m.ArrivalTime,
			m.SiteWaitStart, m.SiteWaitDuration,
			m.InstallationStart, m.InstallationDuration,
			m.EarliestProductionStart, m.EarliestTransportStart, m.EarliestInstallationStart); err != nil {
			return 0, fmt.Errorf("store: insert schedule row for module %q: %w", m.ID, err)
		}
	}
	for slot, level := range sol.FactoryInventory {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO factory_inventory (project_id, version, slot, level) VALUES (?, ?, ?, ?)`,
			projectID, version, slot, level); err != nil {
			return 0, fmt.Errorf("store: insert factory inventory slot %d: %w", slot, err)
		}
	}
	for idx, row := range sol.SiteInventory {
		for slot, level := range row {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO site_inventory (project_id, version, idx, slot, level) VALUES (?, ?, ?, ?, ?)`,
				projectID, version, idx, slot, level); err != nil {
				return 0, fmt.Errorf("store: insert site inventory for module %d slot %d: %w", idx, slot, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	return version, nil
}

// AddDelay stores one delay report.
func (s *SQLite) AddDelay(ctx context.Context, projectID int64, rec model.DelayRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("store: delay record needs an id")
	}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO delays (id, project_id, module_id, phase, type, hours, detected_at, detected_index, reason, applied_version)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, projectID, rec.ModuleID, rec.Phase.String(), rec.Type.String(), rec.Hours,
		toUnix(rec.DetectedAt), rec.DetectedIndex, rec.Reason, rec.AppliedVersion); err != nil {
		return fmt.Errorf("store: add delay %q: %w", rec.ID, err)
	}
	return nil
}

// PendingDelays returns the project's delay reports no re-optimization has
// consumed yet, oldest first.
func (s *SQLite) PendingDelays(ctx context.Context, projectID int64) ([]model.DelayRecord, error) {
	return s.queryDelays(ctx,
		`SELECT id, module_id, phase, type, hours, detected_at, detected_index, reason, applied_version
         FROM delays WHERE project_id = ? AND applied_version = 0 ORDER BY detected_at, id`, projectID)
}

// Delays returns all delay reports for the project, oldest first.
func (s *SQLite) Delays(ctx context.Context, projectID int64) ([]model.DelayRecord, error) {
	return s.queryDelays(ctx,
		`SELECT id, module_id, phase, type, hours, detected_at, detected_index, reason, applied_version
         FROM delays WHERE project_id = ? ORDER BY detected_at, id`, projectID)
}

func (s *SQLite) queryDelays(ctx context.Context, query string, args ...any) ([]model.DelayRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: load delays: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []model.DelayRecord
	for rows.Next() {
		var rec model.DelayRecord
		var phase, typ string
		var detected int64
		if err := rows.Scan(&rec.ID, &rec.ModuleID, &phase, &typ, &rec.Hours,
			&detected, &rec.DetectedIndex, &rec.Reason, &rec.AppliedVersion); err != nil {
			return nil, err
		}
		if rec.Phase, err = model.ParsePhase(phase); err != nil {
			return nil, fmt.Errorf("store: delay %q: %w", rec.ID, err)
		}
		if rec.Type, err = model.ParseDelayType(typ); err != nil {
			return nil, fmt.Errorf("store: delay %q: %w", rec.ID, err)
		}
		rec.DetectedAt = fromUnix(detected)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkDelaysApplied stamps the given delay ids with the schedule version that
// consumed them.
func (s *SQLite) MarkDelaysApplied(ctx context.Context, ids []string, version int) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE delays SET applied_version = ? WHERE id = ?`, version, id); err != nil {
			return fmt.Errorf("store: mark delay %q applied: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
