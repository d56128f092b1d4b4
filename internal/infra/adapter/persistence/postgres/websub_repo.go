package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"flowrunner/internal/pipeline"
	"flowrunner/internal/repository"

	"github.com/google/uuid"
)

type WebSubRepo struct{ db querier }

func NewWebSubRepo(db querier) repository.SubscriptionRepository {
	return &WebSubRepo{db: db}
}

func scanSubscription(row interface {
	Scan(dest ...any) error
}) (*repository.StoredSubscription, error) {
	var s repository.StoredSubscription
	var raw []byte
	var leaseEnd sql.NullTime
	if err := row.Scan(&raw, &s.Flow, &s.Topic, &s.Hub, &s.Secret, &s.Subscribed, &leaseEnd); err != nil {
		return nil, err
	}
	id, err := uuid.FromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("scanSubscription: malformed uuid: %w", err)
	}
	s.UUID = id
	if leaseEnd.Valid {
		s.LeaseEnd = leaseEnd.Time
	}
	return &s, nil
}

func (repo *WebSubRepo) Get(ctx context.Context, id uuid.UUID) (*repository.StoredSubscription, error) {
	const query = `
SELECT uuid, flow, topic, hub, secret, subscribed, lease_end
FROM websub WHERE uuid = $1 LIMIT 1`
	s, err := scanSubscription(repo.db.QueryRowContext(ctx, query, id[:]))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &pipeline.PersistenceError{Op: "websub.Get", Err: err}
	}
	return s, nil
}

func (repo *WebSubRepo) ListByFlow(ctx context.Context, flow string) ([]*repository.StoredSubscription, error) {
	const query = `
SELECT uuid, flow, topic, hub, secret, subscribed, lease_end
FROM websub WHERE flow = $1 ORDER BY uuid ASC`
	rows, err := repo.db.QueryContext(ctx, query, flow)
	if err != nil {
		return nil, &pipeline.PersistenceError{Op: "websub.ListByFlow", Err: err}
	}
	defer func() { _ = rows.Close() }()

	subs := make([]*repository.StoredSubscription, 0, 8)
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, &pipeline.PersistenceError{Op: "websub.ListByFlow", Err: err}
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &pipeline.PersistenceError{Op: "websub.ListByFlow", Err: err}
	}
	return subs, nil
}

func (repo *WebSubRepo) Create(ctx context.Context, sub *repository.StoredSubscription) error {
	const query = `
INSERT INTO websub (uuid, flow, topic, hub, secret, subscribed, lease_end)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, query,
		sub.UUID[:], sub.Flow, sub.Topic, sub.Hub, sub.Secret, sub.Subscribed, nullableTime(sub.LeaseEnd))
	if err != nil {
		return &pipeline.PersistenceError{Op: "websub.Create", Err: err}
	}
	return nil
}

func (repo *WebSubRepo) Update(ctx context.Context, sub *repository.StoredSubscription) error {
	const query = `
UPDATE websub SET subscribed = $1, lease_end = $2
WHERE uuid = $3`
	res, err := repo.db.ExecContext(ctx, query, sub.Subscribed, nullableTime(sub.LeaseEnd), sub.UUID[:])
	if err != nil {
		return &pipeline.PersistenceError{Op: "websub.Update", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &pipeline.PersistenceError{Op: "websub.Update", Err: fmt.Errorf("no rows affected")}
	}
	return nil
}

func (repo *WebSubRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM websub WHERE uuid = $1`
	res, err := repo.db.ExecContext(ctx, query, id[:])
	if err != nil {
		return &pipeline.PersistenceError{Op: "websub.Delete", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &pipeline.PersistenceError{Op: "websub.Delete", Err: fmt.Errorf("no rows affected")}
	}
	return nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
