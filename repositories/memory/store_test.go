package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/clay-tournament/models"
	"github.com/Dosada05/clay-tournament/repositories"
)

func TestWithinTxDiscardsFailedWork(t *testing.T) {
	ctx := context.Background()
	store := New()
	disciplines := store.Disciplines()

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context) error {
		if err := disciplines.Create(ctx, &models.Discipline{Code: "skeet", Name: "Skeet", GoverningBody: "NSSA"}); err != nil {
			return err
		}
		if _, err := disciplines.GetByCode(ctx, "skeet"); err != nil {
			t.Fatalf("write not visible inside tx: %v", err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTx err = %v, want boom", err)
	}
	if _, err := disciplines.GetByCode(ctx, "skeet"); !errors.Is(err, repositories.ErrDisciplineNotFound) {
		t.Fatalf("rolled back write still visible: %v", err)
	}

	err = store.WithinTx(ctx, func(ctx context.Context) error {
		return disciplines.Create(ctx, &models.Discipline{Code: "trap", Name: "Trap", GoverningBody: "ATA"})
	})
	if err != nil {
		t.Fatalf("WithinTx: %v", err)
	}
	if _, err := disciplines.GetByCode(ctx, "trap"); err != nil {
		t.Fatalf("committed write missing: %v", err)
	}
}

func TestNestedWithinTxJoinsOuter(t *testing.T) {
	ctx := context.Background()
	store := New()
	disciplines := store.Disciplines()

	err := store.WithinTx(ctx, func(ctx context.Context) error {
		if err := store.WithinTx(ctx, func(ctx context.Context) error {
			return disciplines.Create(ctx, &models.Discipline{Code: "sporting", Name: "Sporting", GoverningBody: "NSCA"})
		}); err != nil {
			return err
		}
		return errors.New("outer fails")
	})
	if err == nil {
		t.Fatal("expected outer error")
	}
	if list, _ := disciplines.List(ctx); len(list) != 0 {
		t.Fatalf("inner write survived outer rollback: %+v", list)
	}
}

func TestDisciplineCodeConflict(t *testing.T) {
	ctx := context.Background()
	disciplines := New().Disciplines()
	if err := disciplines.Create(ctx, &models.Discipline{Code: "skeet", Name: "Skeet", GoverningBody: "NSSA"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := disciplines.Create(ctx, &models.Discipline{Code: "skeet", Name: "Skeet again", GoverningBody: "NSSA"})
	if !errors.Is(err, repositories.ErrDisciplineCodeConflict) {
		t.Fatalf("err = %v, want ErrDisciplineCodeConflict", err)
	}
}
