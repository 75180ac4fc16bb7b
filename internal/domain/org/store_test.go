package org

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"ems/internal/domain/apperror"
	"ems/internal/platform/db"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewStore(mock), mock
}

func TestStoreAddMemberLocksTeamAndEnforcesCap(t *testing.T) {
	store, mock := newMockStore(t)
	svc := NewService(store, db.NewTransactionManager(mock), nil)
	otherTeam := int64(4)

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectQuery("FROM teams WHERE id = \\$1 FOR UPDATE").
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"project_id"}).AddRow(int64(9)))
	mock.ExpectQuery("SELECT role, team_id FROM employees").
		WithArgs(int64(11)).
		WillReturnRows(pgxmock.NewRows([]string{"role", "team_id"}).AddRow("MEMBER", &otherTeam))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(6))
	mock.ExpectRollback()

	_, err := svc.AddMember(context.Background(), admin, 3, 11)
	if !errors.Is(err, apperror.ErrInvalidState) {
		t.Fatalf("expected InvalidState, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStoreSetMembershipMissingEmployee(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("UPDATE employees SET team_id").
		WithArgs(int64(5), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.SetMembership(context.Background(), 5, nil, nil)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStoreGetProjectMissing(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("FROM projects p").WithArgs(int64(7)).WillReturnError(pgx.ErrNoRows)

	_, err := store.GetProject(context.Background(), 7)
	if !errors.Is(err, apperror.ErrNotFound) || apperror.MessageOf(err) != "Project not found" {
		t.Fatalf("expected Project not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStoreListMembers(t *testing.T) {
	store, mock := newMockStore(t)
	team, project := int64(3), int64(9)
	mock.ExpectQuery("WHERE team_id = \\$1").
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "first_name", "last_name", "email", "role", "project_id", "team_id"}).
			AddRow(int64(1), "Ada", "Lovelace", "ada@example.com", "MEMBER", &project, &team))

	members, err := store.ListMembers(context.Background(), 3)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 1 || members[0].Email != "ada@example.com" || *members[0].TeamID != 3 {
		t.Fatalf("unexpected members %+v", members)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
