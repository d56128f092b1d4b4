package postgres_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"flowrunner/internal/infra/adapter/persistence/postgres"
	"flowrunner/internal/repository"
)

func subRow(s *repository.StoredSubscription) *sqlmock.Rows {
	var leaseEnd any
	if !s.LeaseEnd.IsZero() {
		leaseEnd = s.LeaseEnd
	}
	return sqlmock.NewRows([]string{"uuid", "flow", "topic", "hub", "secret", "subscribed", "lease_end"}).
		AddRow(s.UUID[:], s.Flow, s.Topic, s.Hub, s.Secret, s.Subscribed, leaseEnd)
}

func TestWebSubRepo_Get(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	id := uuid.New()
	want := &repository.StoredSubscription{
		UUID: id, Flow: "tech-news", Topic: "https://example.com/feed",
		Hub: "https://hub.example.com", Secret: "s3cr3t", Subscribed: true,
		LeaseEnd: time.Now().Truncate(time.Second),
	}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM websub WHERE uuid = $1`)).
		WithArgs(id[:]).
		WillReturnRows(subRow(want))

	repo := postgres.NewWebSubRepo(db)
	got, err := repo.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if got.Flow != want.Flow || got.Subscribed != want.Subscribed {
		t.Fatalf("mismatch: got %+v want %+v", got, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestWebSubRepo_Get_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM websub WHERE uuid = $1`)).
		WithArgs(id[:]).
		WillReturnRows(sqlmock.NewRows([]string{"uuid", "flow", "topic", "hub", "secret", "subscribed", "lease_end"}))

	repo := postgres.NewWebSubRepo(db)
	got, err := repo.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if got != nil {
		t.Fatalf("want nil, got %+v", got)
	}
}

func TestWebSubRepo_Create(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	s := &repository.StoredSubscription{UUID: uuid.New(), Flow: "f", Topic: "t", Hub: "h", Secret: "s"}
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO websub`)).
		WithArgs(s.UUID[:], s.Flow, s.Topic, s.Hub, s.Secret, s.Subscribed, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := postgres.NewWebSubRepo(db)
	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestWebSubRepo_Update(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	lease := time.Now().Add(time.Hour)
	s := &repository.StoredSubscription{UUID: uuid.New(), Subscribed: true, LeaseEnd: lease}
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE websub`)).
		WithArgs(s.Subscribed, lease, s.UUID[:]).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := postgres.NewWebSubRepo(db)
	if err := repo.Update(context.Background(), s); err != nil {
		t.Fatalf("Update err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestWebSubRepo_Delete(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM websub WHERE uuid = $1`)).
		WithArgs(id[:]).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := postgres.NewWebSubRepo(db)
	if err := repo.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
