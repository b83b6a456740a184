package audit

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/vireo-pm/vireo/internal/models"
	"github.com/vireo-pm/vireo/internal/repo"
)

type fakeOwnership struct {
	owned    []int
	assigned []int
	phases   []int

	ownedErr     error
	assignedErr  error
	phasesErr    error
	phasesCalled bool
}

func (f *fakeOwnership) OwnedProjectIDs(ctx context.Context, userID int) ([]int, error) {
	return f.owned, f.ownedErr
}

func (f *fakeOwnership) AssignedProjectIDs(ctx context.Context, userID int) ([]int, error) {
	return f.assigned, f.assignedErr
}

func (f *fakeOwnership) PhaseIDsForProjects(ctx context.Context, projectIDs []int) ([]int, error) {
	f.phasesCalled = true
	return f.phases, f.phasesErr
}

type fakeLogStore struct {
	recent  []models.AuditEntry
	visible []models.AuditEntry

	recentLimit  int
	lastFilter   repo.VisibilityFilter
	lastLimit    int
	recentCalled bool
	listErr      error
}

func (f *fakeLogStore) ListRecent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	f.recentCalled = true
	f.recentLimit = limit
	return f.recent, f.listErr
}

func (f *fakeLogStore) ListVisible(ctx context.Context, filter repo.VisibilityFilter, limit int) ([]models.AuditEntry, error) {
	f.lastFilter = filter
	f.lastLimit = limit
	return f.visible, f.listErr
}

func TestGetVisibleLogs_AdminUnfiltered(t *testing.T) {
	logs := &fakeLogStore{recent: []models.AuditEntry{{ID: 2}, {ID: 1}}}
	ownership := &fakeOwnership{}
	r := NewResolver(ownership, logs)

	entries, err := r.GetVisibleLogs(context.Background(),
		models.Identity{UserID: 1, Role: models.RoleAdmin}, 0)
	if err != nil {
		t.Fatalf("GetVisibleLogs: %v", err)
	}
	if !logs.recentCalled {
		t.Error("admin path should use the unfiltered listing")
	}
	if logs.recentLimit != DefaultPageSize {
		t.Errorf("default limit: got %d, want %d", logs.recentLimit, DefaultPageSize)
	}
	if len(entries) != 2 {
		t.Errorf("unexpected entries: %+v", entries)
	}
	if ownership.phasesCalled {
		t.Error("admin path must not query the ownership index")
	}
}

func TestGetVisibleLogs_LimitCapped(t *testing.T) {
	logs := &fakeLogStore{}
	r := NewResolver(&fakeOwnership{}, logs)

	_, err := r.GetVisibleLogs(context.Background(),
		models.Identity{UserID: 1, Role: models.RoleAdmin}, 9999)
	if err != nil {
		t.Fatalf("GetVisibleLogs: %v", err)
	}
	if logs.recentLimit != MaxPageSize {
		t.Errorf("capped limit: got %d, want %d", logs.recentLimit, MaxPageSize)
	}
}

func TestGetVisibleLogs_ScopeUnionDedupe(t *testing.T) {
	ownership := &fakeOwnership{
		owned:    []int{1, 2},
		assigned: []int{2, 3},
		phases:   []int{10, 11},
	}
	logs := &fakeLogStore{visible: []models.AuditEntry{{ID: 5}}}
	r := NewResolver(ownership, logs)

	ident := models.Identity{UserID: 7, Role: models.RoleMember}
	entries, err := r.GetVisibleLogs(context.Background(), ident, 0)
	if err != nil {
		t.Fatalf("GetVisibleLogs: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != 5 {
		t.Errorf("unexpected entries: %+v", entries)
	}

	want := repo.VisibilityFilter{UserID: 7, ProjectIDs: []int{1, 2, 3}, PhaseIDs: []int{10, 11}}
	if !reflect.DeepEqual(logs.lastFilter, want) {
		t.Errorf("filter: got %+v, want %+v", logs.lastFilter, want)
	}
	if logs.lastLimit != DefaultPageSize {
		t.Errorf("limit: got %d, want %d", logs.lastLimit, DefaultPageSize)
	}
}

func TestGetVisibleLogs_EmptyScopeSkipsPhaseQuery(t *testing.T) {
	ownership := &fakeOwnership{}
	logs := &fakeLogStore{}
	r := NewResolver(ownership, logs)

	ident := models.Identity{UserID: 9, Role: models.RoleMember}
	if _, err := r.GetVisibleLogs(context.Background(), ident, 0); err != nil {
		t.Fatalf("GetVisibleLogs: %v", err)
	}
	if ownership.phasesCalled {
		t.Error("no phase query should be issued for an empty project scope")
	}
	want := repo.VisibilityFilter{UserID: 9}
	if !reflect.DeepEqual(logs.lastFilter, want) {
		t.Errorf("filter: got %+v, want %+v", logs.lastFilter, want)
	}
}

func TestGetVisibleLogs_OwnershipErrorFailsWhole(t *testing.T) {
	ownership := &fakeOwnership{ownedErr: errors.New("db down")}
	logs := &fakeLogStore{}
	r := NewResolver(ownership, logs)

	ident := models.Identity{UserID: 1, Role: models.RoleManager}
	if _, err := r.GetVisibleLogs(context.Background(), ident, 0); err == nil {
		t.Fatal("expected error, no partial results")
	}
}

func TestGetVisibleLogs_StoreErrorFailsWhole(t *testing.T) {
	logs := &fakeLogStore{listErr: errors.New("db down")}
	r := NewResolver(&fakeOwnership{owned: []int{1}}, logs)

	ident := models.Identity{UserID: 1, Role: models.RoleMember}
	if _, err := r.GetVisibleLogs(context.Background(), ident, 0); err == nil {
		t.Fatal("expected error, no partial results")
	}
}
