package admin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cricket-rank-lab/internal/domain"
)

type rebuildCall struct {
	team domain.TeamID
	role domain.Role
}

// fakeService records rebuild calls and fails the cells listed in failures.
type fakeService struct {
	failures map[rebuildCall]error

	mu    sync.Mutex
	calls []rebuildCall
}

func (f *fakeService) RefreshHistoricalRankings(_ context.Context, role domain.Role, teamID domain.TeamID) (*domain.RebuildResult, error) {
	call := rebuildCall{team: teamID, role: role}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if err, ok := f.failures[call]; ok {
		return nil, err
	}
	return &domain.RebuildResult{Success: true, TotalSnapshots: 12, Message: "rebuilt"}, nil
}

func TestRebuildAllWalksMatrixInOrder(t *testing.T) {
	service := &fakeService{}
	rebuilder := New(Options{
		Service: service,
		Delay:   time.Millisecond,
	})

	statuses, err := rebuilder.RebuildAll(context.Background())
	if err != nil {
		t.Fatalf("RebuildAll failed: %v", err)
	}

	matrix := domain.DefaultMatrix()
	if len(statuses) != len(matrix) {
		t.Fatalf("expected %d statuses, got %d", len(matrix), len(statuses))
	}
	for i, st := range statuses {
		if st.Cell != matrix[i] {
			t.Errorf("status %d: cell %v, want %v", i, st.Cell, matrix[i])
		}
		if !st.Success || st.TotalSnapshots != 12 {
			t.Errorf("status %d: %+v", i, st)
		}
	}
	if len(service.calls) != len(matrix) {
		t.Errorf("expected %d calls, got %d", len(matrix), len(service.calls))
	}
}

func TestRebuildAllRecordsFailuresWithoutAborting(t *testing.T) {
	service := &fakeService{
		failures: map[rebuildCall]error{
			{team: domain.TeamCityKnights, role: domain.RoleBowler}: errors.New("index rebuild timed out"),
		},
	}
	rebuilder := New(Options{
		Service: service,
		Delay:   time.Millisecond,
	})

	statuses, err := rebuilder.RebuildAll(context.Background())
	if err != nil {
		t.Fatalf("RebuildAll failed: %v", err)
	}

	var failed int
	for _, st := range statuses {
		if !st.Success {
			failed++
			if st.Cell.Team != domain.TeamCityKnights || st.Cell.Role != domain.RoleBowler {
				t.Errorf("unexpected failed cell: %+v", st.Cell)
			}
			if st.Message != "index rebuild timed out" {
				t.Errorf("failure message must carry the cause: %q", st.Message)
			}
		}
	}
	if failed != 1 {
		t.Errorf("expected exactly 1 failed cell, got %d", failed)
	}
	if len(statuses) != len(domain.DefaultMatrix()) {
		t.Errorf("failure must not abort the walk: %d statuses", len(statuses))
	}
}

func TestRebuildAllStopsOnContextCancel(t *testing.T) {
	service := &fakeService{}
	rebuilder := New(Options{
		Service: service,
		Delay:   50 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	statuses, err := rebuilder.RebuildAll(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	// The first cell runs before the first delay; the walk stops there.
	if len(statuses) != 1 {
		t.Errorf("expected 1 status before cancellation, got %d", len(statuses))
	}
}

func TestRebuildSingleCell(t *testing.T) {
	service := &fakeService{}
	rebuilder := New(Options{Service: service})

	cell := domain.Cell{Team: domain.TeamGladiators, Role: domain.RoleAllrounder}
	status := rebuilder.Rebuild(context.Background(), cell)

	if !status.Success || status.Cell != cell {
		t.Errorf("unexpected status: %+v", status)
	}
	if len(service.calls) != 1 || service.calls[0].role != domain.RoleAllrounder {
		t.Errorf("unexpected calls: %+v", service.calls)
	}
}

func TestRebuildAllCustomMatrix(t *testing.T) {
	service := &fakeService{}
	matrix := []domain.Cell{
		{Team: domain.TeamKnightRiders, Role: domain.RoleBatsman},
		{Team: domain.TeamKnightRiders, Role: domain.RoleBowler},
	}
	rebuilder := New(Options{
		Service: service,
		Matrix:  matrix,
		Delay:   time.Millisecond,
	})

	statuses, err := rebuilder.RebuildAll(context.Background())
	if err != nil {
		t.Fatalf("RebuildAll failed: %v", err)
	}
	if len(statuses) != 2 {
		t.Errorf("expected 2 statuses, got %d", len(statuses))
	}
}
