package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"cricket-rank-lab/internal/domain"
	"cricket-rank-lab/internal/storage/memory"
)

// fakeRankings serves canned responses for every profile dependency.
type fakeRankings struct {
	current     []domain.RankingEntry
	currentErr  error
	previous    []domain.RankingEntry
	previousErr error
	summary     *domain.PlayerHistoricalSummary
	summaryErr  error
	index       *domain.HistoricalRankings
	indexErr    error
	details     map[string]*domain.SnapshotDetails
	detailsErr  map[string]error

	mu          sync.Mutex
	detailCalls []string
}

func (f *fakeRankings) RefreshRankings(context.Context, domain.Role, domain.TeamID, int) ([]domain.RankingEntry, error) {
	return f.current, f.currentErr
}

func (f *fakeRankings) GetPreviousRanking(context.Context, domain.Role, domain.TeamID, int) ([]domain.RankingEntry, error) {
	return f.previous, f.previousErr
}

func (f *fakeRankings) GetHistoricalRankings(context.Context, domain.Role, domain.TeamID) (*domain.HistoricalRankings, error) {
	return f.index, f.indexErr
}

func (f *fakeRankings) GetPlayerHistoricalSummary(context.Context, domain.Role, domain.TeamID, int) (*domain.PlayerHistoricalSummary, error) {
	return f.summary, f.summaryErr
}

func (f *fakeRankings) GetSnapshotDetails(_ context.Context, snapshotID string) (*domain.SnapshotDetails, error) {
	f.mu.Lock()
	f.detailCalls = append(f.detailCalls, snapshotID)
	f.mu.Unlock()

	if err, ok := f.detailsErr[snapshotID]; ok {
		return nil, err
	}
	d, ok := f.details[snapshotID]
	if !ok {
		return nil, fmt.Errorf("unknown snapshot %s", snapshotID)
	}
	return d, nil
}

type fakeFinder struct {
	profiles []domain.SearchResult
}

func (f *fakeFinder) FindProfiles(context.Context, int) []domain.SearchResult {
	return f.profiles
}

func entry(id int, name string, points float64) domain.RankingEntry {
	return domain.RankingEntry{
		PlayerID:   id,
		PlayerName: name,
		Role:       domain.RoleBatsman,
		Points:     points,
		Innings:    10,
		Confidence: 0.9,
		Batting:    &domain.BattingStats{Average: 40, StrikeRate: 130},
	}
}

// fiveSnapshotFixture builds an index of 5 snapshots whose details all rank
// player 7 second behind a leader.
func fiveSnapshotFixture() *fakeRankings {
	index := &domain.HistoricalRankings{
		Role:           domain.RoleBatsman,
		TeamID:         domain.TeamKnightRiders,
		TotalSnapshots: 5,
		Snapshots:      make([]domain.HistoricalSnapshot, 5),
	}
	details := make(map[string]*domain.SnapshotDetails, 5)
	for i := range index.Snapshots {
		id := fmt.Sprintf("s%d", i+1)
		index.Snapshots[i] = domain.HistoricalSnapshot{
			SnapshotID:     id,
			FirstMatchID:   fmt.Sprintf("m%d", i+1),
			FirstMatchDate: fmt.Sprintf("2024-0%d-01T00:00:00Z", i+1),
		}
		details[id] = &domain.SnapshotDetails{
			SnapshotID: id,
			Role:       domain.RoleBatsman,
			TeamID:     domain.TeamKnightRiders,
			Rankings: []domain.RankingEntry{
				entry(1, "Leader", 900),
				entry(7, "Rohan Sharma", float64(500+i*50)),
			},
		}
	}

	return &fakeRankings{
		current: []domain.RankingEntry{
			entry(1, "Leader", 900),
			entry(7, "Rohan Sharma", 812.4),
		},
		previous: []domain.RankingEntry{
			entry(7, "Rohan Sharma", 790.0),
			entry(1, "Leader", 700),
		},
		summary: &domain.PlayerHistoricalSummary{
			PlayerID:         7,
			PlayerName:       "Rohan Sharma",
			Role:             domain.RoleBatsman,
			TeamID:           domain.TeamKnightRiders,
			TotalAppearances: 5,
		},
		index:   index,
		details: details,
	}
}

func fixedNow() time.Time {
	return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
}

func newTestService(rankings RankingService, finder ProfileFinder) *Service {
	return NewService(Options{
		Rankings: rankings,
		Finder:   finder,
		Now:      fixedNow,
	})
}

func TestLoadComposesFullProfile(t *testing.T) {
	rankings := fiveSnapshotFixture()
	finder := &fakeFinder{profiles: []domain.SearchResult{
		{PlayerID: 7, TeamID: domain.TeamKnightRiders, Role: domain.RoleBatsman},
		{PlayerID: 7, TeamID: domain.TeamGladiators, Role: domain.RoleAllrounder},
	}}
	svc := newTestService(rankings, finder)

	player, err := svc.Load(context.Background(), domain.TeamKnightRiders, domain.RoleBatsman, 7)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if player.Team.ID != domain.TeamKnightRiders {
		t.Errorf("unexpected team: %+v", player.Team)
	}
	if player.Current.Points != 812.4 || player.CurrentRank != 2 {
		t.Errorf("current standing: points=%v rank=%d", player.Current.Points, player.CurrentRank)
	}
	if player.Previous == nil || player.PreviousRank != 1 {
		t.Errorf("previous standing: %+v rank=%d", player.Previous, player.PreviousRank)
	}
	if player.Summary == nil || player.Summary.TotalAppearances != 5 {
		t.Errorf("unexpected summary: %+v", player.Summary)
	}

	// Full snapshot index with display dates for playback.
	if len(player.Snapshots) != 5 {
		t.Fatalf("expected 5 snapshot handles, got %d", len(player.Snapshots))
	}
	if player.Snapshots[0].Date != "2024-01-01" {
		t.Errorf("snapshot date must be trimmed to the date part: %s", player.Snapshots[0].Date)
	}

	// The last index entry is replaced by the live standing, so the chart is
	// the 4 historical samples plus the current point.
	if len(player.Chart) != 5 {
		t.Fatalf("expected 5 chart points, got %d", len(player.Chart))
	}
	last := player.Chart[len(player.Chart)-1]
	if last.Date != "2024-06-15" || last.Rating != 812.4 || last.Rank != 2 {
		t.Errorf("chart must end at the current standing: %+v", last)
	}
	if player.Chart[0].Rating != 500 {
		t.Errorf("unexpected first chart point: %+v", player.Chart[0])
	}

	// The viewed cell is excluded from other profiles.
	if len(player.OtherProfiles) != 1 || player.OtherProfiles[0].TeamID != domain.TeamGladiators {
		t.Errorf("unexpected other profiles: %+v", player.OtherProfiles)
	}
}

func TestLoadUnknownTeamOrRole(t *testing.T) {
	svc := newTestService(fiveSnapshotFixture(), nil)

	if _, err := svc.Load(context.Background(), "nope", domain.RoleBatsman, 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown team: got %v, want ErrNotFound", err)
	}
	if _, err := svc.Load(context.Background(), domain.TeamKnightRiders, "keeper", 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown role: got %v, want ErrNotFound", err)
	}
}

func TestLoadPlayerAbsentFromCurrentRanking(t *testing.T) {
	svc := newTestService(fiveSnapshotFixture(), nil)

	if _, err := svc.Load(context.Background(), domain.TeamKnightRiders, domain.RoleBatsman, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestLoadCurrentRankingFailureIsFatal(t *testing.T) {
	rankings := fiveSnapshotFixture()
	rankings.current = nil
	rankings.currentErr = errors.New("upstream down")
	svc := newTestService(rankings, nil)

	if _, err := svc.Load(context.Background(), domain.TeamKnightRiders, domain.RoleBatsman, 7); err == nil {
		t.Fatal("expected error when the current ranking is unavailable")
	}
}

func TestLoadToleratesMissingPreviousPeriod(t *testing.T) {
	rankings := fiveSnapshotFixture()
	rankings.previous = nil
	rankings.previousErr = errors.New("no previous period")
	svc := newTestService(rankings, nil)

	player, err := svc.Load(context.Background(), domain.TeamKnightRiders, domain.RoleBatsman, 7)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if player.Previous != nil || player.PreviousRank != 0 {
		t.Errorf("expected no previous standing, got %+v rank=%d", player.Previous, player.PreviousRank)
	}
}

func TestLoadToleratesMissingSummary(t *testing.T) {
	rankings := fiveSnapshotFixture()
	rankings.summary = nil
	rankings.summaryErr = errors.New("no history")
	svc := newTestService(rankings, nil)

	player, err := svc.Load(context.Background(), domain.TeamKnightRiders, domain.RoleBatsman, 7)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if player.Summary != nil {
		t.Errorf("expected nil summary, got %+v", player.Summary)
	}
	// Without history there is nothing to chart or play back.
	if player.Chart != nil || player.Snapshots != nil {
		t.Errorf("expected no chart or snapshots, got %d/%d", len(player.Chart), len(player.Snapshots))
	}
}

func TestLoadDropsFailedChartPoints(t *testing.T) {
	rankings := fiveSnapshotFixture()
	rankings.detailsErr = map[string]error{"s2": errors.New("snapshot gone")}
	svc := newTestService(rankings, nil)

	player, err := svc.Load(context.Background(), domain.TeamKnightRiders, domain.RoleBatsman, 7)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	// 4 samples minus the failed one, plus the current point.
	if len(player.Chart) != 4 {
		t.Errorf("expected 4 chart points, got %d", len(player.Chart))
	}
}

func TestLoadArchivesChartPoints(t *testing.T) {
	rankings := fiveSnapshotFixture()
	timeline := memory.NewTimelineStore()
	svc := NewService(Options{
		Rankings: rankings,
		Timeline: timeline,
		Now:      fixedNow,
	})

	if _, err := svc.Load(context.Background(), domain.TeamKnightRiders, domain.RoleBatsman, 7); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	points, err := timeline.GetByPlayer(context.Background(), domain.TeamKnightRiders, domain.RoleBatsman, 7)
	if err != nil {
		t.Fatalf("GetByPlayer failed: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("expected 4 archived points, got %d", len(points))
	}
	if points[0].SnapshotID != "s1" || points[0].Rating != 500 {
		t.Errorf("unexpected first archived point: %+v", points[0])
	}

	// Re-loading must not fail the profile.
	if _, err := svc.Load(context.Background(), domain.TeamKnightRiders, domain.RoleBatsman, 7); err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
}

func TestLoadServesChartFromArchive(t *testing.T) {
	rankings := fiveSnapshotFixture()
	timeline := memory.NewTimelineStore()
	svc := NewService(Options{
		Rankings: rankings,
		Timeline: timeline,
		Now:      fixedNow,
	})

	// First load populates the archive from remote snapshot details.
	first, err := svc.Load(context.Background(), domain.TeamKnightRiders, domain.RoleBatsman, 7)
	if err != nil {
		t.Fatalf("first Load failed: %v", err)
	}
	if got := len(rankings.detailCalls); got != 4 {
		t.Fatalf("expected 4 detail fetches on the first load, got %d", got)
	}

	// Second load finds every sampled point archived and fetches nothing.
	rankings.detailCalls = nil
	second, err := svc.Load(context.Background(), domain.TeamKnightRiders, domain.RoleBatsman, 7)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if got := len(rankings.detailCalls); got != 0 {
		t.Errorf("archived points must not be re-fetched, got %d detail calls", got)
	}

	if len(second.Chart) != len(first.Chart) {
		t.Fatalf("chart length changed: %d vs %d", len(second.Chart), len(first.Chart))
	}
	for i := range first.Chart {
		if second.Chart[i] != first.Chart[i] {
			t.Errorf("chart point %d differs: %+v vs %+v", i, second.Chart[i], first.Chart[i])
		}
	}
}

func TestLoadFetchesOnlyUnarchivedChartPoints(t *testing.T) {
	rankings := fiveSnapshotFixture()
	timeline := memory.NewTimelineStore()
	svc := NewService(Options{
		Rankings: rankings,
		Timeline: timeline,
		Now:      fixedNow,
	})

	// s2 is unavailable on the first load, so only s1, s3 and s4 get archived.
	rankings.detailsErr = map[string]error{"s2": errors.New("snapshot gone")}
	if _, err := svc.Load(context.Background(), domain.TeamKnightRiders, domain.RoleBatsman, 7); err != nil {
		t.Fatalf("first Load failed: %v", err)
	}

	// Once s2 recovers, the second load fetches just the missing snapshot and
	// fills it into the archive.
	rankings.detailsErr = nil
	rankings.detailCalls = nil
	player, err := svc.Load(context.Background(), domain.TeamKnightRiders, domain.RoleBatsman, 7)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if len(rankings.detailCalls) != 1 || rankings.detailCalls[0] != "s2" {
		t.Fatalf("expected exactly one fetch for s2, got %v", rankings.detailCalls)
	}
	if len(player.Chart) != 5 {
		t.Errorf("expected the full 5-point chart, got %d", len(player.Chart))
	}

	points, err := timeline.GetByPlayer(context.Background(), domain.TeamKnightRiders, domain.RoleBatsman, 7)
	if err != nil {
		t.Fatalf("GetByPlayer failed: %v", err)
	}
	if len(points) != 4 {
		t.Errorf("expected 4 archived points after backfill, got %d", len(points))
	}
}

func TestSnapshotIndex(t *testing.T) {
	svc := newTestService(fiveSnapshotFixture(), nil)

	index, err := svc.SnapshotIndex(context.Background(), domain.TeamKnightRiders, domain.RoleBatsman)
	if err != nil {
		t.Fatalf("SnapshotIndex failed: %v", err)
	}
	if len(index) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(index))
	}
	if index[4].SnapshotID != "s5" || index[4].Date != "2024-05-01" {
		t.Errorf("unexpected last entry: %+v", index[4])
	}

	if _, err := svc.SnapshotIndex(context.Background(), "nope", domain.RoleBatsman); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown team: got %v, want ErrNotFound", err)
	}
}
