package agency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

const testAgencyID = "7f1c2a3e-4b5d-4e6f-8a9b-0c1d2e3f4a5b"

func TestPostgresRepositoryCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()
	repo := newPostgresRepositoryWithDB(mock)

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO agencies").
		WithArgs(testAgencyID, "Palm Estates", "Sell villas", "Aria", nil, "owner@palm.test", nil, nil, PlanTrial, StatusActive).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))

	a := &Agency{
		ID:            testAgencyID,
		Name:          "Palm Estates",
		Prompt:        "Sell villas",
		AssistantName: "Aria",
		OwnerEmail:    "owner@palm.test",
		Plan:          PlanTrial,
		Status:        StatusActive,
	}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !a.CreatedAt.Equal(created) {
		t.Fatalf("expected created_at from RETURNING, got %s", a.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepositoryCreateDuplicateEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()
	repo := newPostgresRepositoryWithDB(mock)

	mock.ExpectQuery("INSERT INTO agencies").WillReturnError(&pgconn.PgError{Code: "23505"})
	err = repo.Create(context.Background(), &Agency{ID: testAgencyID, Name: "n", Prompt: "p", OwnerEmail: "o@x.test"})
	if !errors.Is(err, ErrOwnerEmailTaken) {
		t.Fatalf("expected ErrOwnerEmailTaken, got %v", err)
	}
}

func TestPostgresRepositoryGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()
	repo := newPostgresRepositoryWithDB(mock)

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cols := []string{"id", "name", "prompt", "assistant_name", "owner_name", "owner_email", "owner_phone", "password_hash", "plan", "status", "created_at"}
	mock.ExpectQuery("FROM agencies").WithArgs(testAgencyID).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(testAgencyID, "Palm Estates", "Sell villas", "Aria", "", "", "", "", PlanTrial, StatusActive, created))

	a, err := repo.Get(context.Background(), testAgencyID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if a.Name != "Palm Estates" || a.AssistantName != "Aria" {
		t.Fatalf("unexpected agency %+v", a)
	}

	mock.ExpectQuery("FROM agencies").WithArgs(testAgencyID).WillReturnError(pgx.ErrNoRows)
	if _, err := repo.Get(context.Background(), testAgencyID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := repo.Get(context.Background(), "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepositoryDeleteRunsInTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()
	repo := newPostgresRepositoryWithDB(mock)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM leads").WithArgs(testAgencyID).WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec("DELETE FROM agencies").WithArgs(testAgencyID).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	if err := repo.Delete(context.Background(), testAgencyID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepositoryDeleteMissingRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()
	repo := newPostgresRepositoryWithDB(mock)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM leads").WithArgs(testAgencyID).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("DELETE FROM agencies").WithArgs(testAgencyID).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	if err := repo.Delete(context.Background(), testAgencyID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepositoryUpdateStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()
	repo := newPostgresRepositoryWithDB(mock)

	mock.ExpectExec("UPDATE agencies SET status").WithArgs(testAgencyID, StatusSuspended).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE agencies SET status").WithArgs(testAgencyID, StatusActive).WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.UpdateStatus(context.Background(), testAgencyID, StatusSuspended); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := repo.UpdateStatus(context.Background(), testAgencyID, StatusActive); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.UpdateStatus(context.Background(), "not-a-uuid", StatusActive); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
