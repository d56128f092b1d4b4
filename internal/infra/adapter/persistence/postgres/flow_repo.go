package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"flowrunner/internal/pipeline"
	"flowrunner/internal/repository"

	"github.com/google/uuid"
)

// querier is satisfied by both *sql.DB and
// *circuitbreaker.DBCircuitBreaker, so repositories can be wrapped with
// circuit breaker protection without changing their query code.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type FlowRepo struct{ db querier }

func NewFlowRepo(db querier) repository.FlowRepository {
	return &FlowRepo{db: db}
}

func scanFlow(row interface {
	Scan(dest ...any) error
}) (*repository.StoredFlow, error) {
	var f repository.StoredFlow
	var raw []byte
	if err := row.Scan(&raw, &f.Name, &f.Content); err != nil {
		return nil, err
	}
	id, err := uuid.FromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("scanFlow: malformed uuid: %w", err)
	}
	f.UUID = id
	return &f, nil
}

func (repo *FlowRepo) Get(ctx context.Context, name string) (*repository.StoredFlow, error) {
	const query = `SELECT uuid, name, content FROM flows WHERE name = $1 LIMIT 1`
	f, err := scanFlow(repo.db.QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &pipeline.PersistenceError{Op: "flow.Get", Err: err}
	}
	return f, nil
}

func (repo *FlowRepo) List(ctx context.Context) ([]*repository.StoredFlow, error) {
	const query = `SELECT uuid, name, content FROM flows ORDER BY name ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &pipeline.PersistenceError{Op: "flow.List", Err: err}
	}
	defer func() { _ = rows.Close() }()

	flows := make([]*repository.StoredFlow, 0, 16)
	for rows.Next() {
		f, err := scanFlow(rows)
		if err != nil {
			return nil, &pipeline.PersistenceError{Op: "flow.List", Err: err}
		}
		flows = append(flows, f)
	}
	if err := rows.Err(); err != nil {
		return nil, &pipeline.PersistenceError{Op: "flow.List", Err: err}
	}
	return flows, nil
}

func (repo *FlowRepo) Create(ctx context.Context, flow *repository.StoredFlow) error {
	const query = `INSERT INTO flows (uuid, name, content) VALUES ($1, $2, $3)`
	_, err := repo.db.ExecContext(ctx, query, flow.UUID[:], flow.Name, flow.Content)
	if err != nil {
		return &pipeline.PersistenceError{Op: "flow.Create", Err: err}
	}
	return nil
}

func (repo *FlowRepo) Update(ctx context.Context, flow *repository.StoredFlow) error {
	const query = `UPDATE flows SET content = $1 WHERE name = $2`
	res, err := repo.db.ExecContext(ctx, query, flow.Content, flow.Name)
	if err != nil {
		return &pipeline.PersistenceError{Op: "flow.Update", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &pipeline.PersistenceError{Op: "flow.Update", Err: fmt.Errorf("no rows affected")}
	}
	return nil
}

// Delete removes the named flow. Unlike Update, a no-op delete (name
// already absent) is not an error: DELETE /api/flow/:name is idempotent.
func (repo *FlowRepo) Delete(ctx context.Context, name string) error {
	const query = `DELETE FROM flows WHERE name = $1`
	if _, err := repo.db.ExecContext(ctx, query, name); err != nil {
		return &pipeline.PersistenceError{Op: "flow.Delete", Err: err}
	}
	return nil
}
