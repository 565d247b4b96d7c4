// Package profile composes a player's full profile view: current and
// previous standing, historical summary, a sampled static chart and the
// player's other (team, role) appearances.
package profile

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"cricket-rank-lab/internal/domain"
	"cricket-rank-lab/internal/lookup"
	"cricket-rank-lab/internal/storage"
)

// ErrNotFound is returned when the requested team, role or player does not
// exist. It maps to a "not found" view state, never an error banner.
var ErrNotFound = errors.New("profile: not found")

// maxChartPoints is the target size of the sampled static chart.
const maxChartPoints = 20

// RankingService is the subset of the remote ranking client the profile
// service depends on.
type RankingService interface {
	RefreshRankings(ctx context.Context, role domain.Role, teamID domain.TeamID, matches int) ([]domain.RankingEntry, error)
	GetPreviousRanking(ctx context.Context, role domain.Role, teamID domain.TeamID, matches int) ([]domain.RankingEntry, error)
	GetHistoricalRankings(ctx context.Context, role domain.Role, teamID domain.TeamID) (*domain.HistoricalRankings, error)
	GetPlayerHistoricalSummary(ctx context.Context, role domain.Role, teamID domain.TeamID, playerID int) (*domain.PlayerHistoricalSummary, error)
	GetSnapshotDetails(ctx context.Context, snapshotID string) (*domain.SnapshotDetails, error)
}

// ProfileFinder locates a player's appearances across the matrix.
type ProfileFinder interface {
	FindProfiles(ctx context.Context, playerID int) []domain.SearchResult
}

// Player is the composed profile view model.
type Player struct {
	Team        domain.TeamInfo
	Role        domain.Role
	Current     domain.RankingEntry
	CurrentRank int

	// Previous standing, zero-valued when no prior period exists.
	Previous     *domain.RankingEntry
	PreviousRank int

	// Summary is nil when the remote service has no history for the player.
	Summary *domain.PlayerHistoricalSummary

	// Chart is a sampled static series ending at the current standing.
	Chart []domain.TimelineDataPoint

	// Snapshots is the full index handed to playback for lazy loading.
	Snapshots []domain.SnapshotMetadata

	// OtherProfiles lists the player's appearances in other matrix cells.
	OtherProfiles []domain.SearchResult
}

// Service loads composed player profiles.
type Service struct {
	rankings RankingService
	finder   ProfileFinder
	timeline storage.TimelineStore // optional read-through chart archive
	window   int
	logger   *log.Logger
	now      func() time.Time
}

// Options contains configuration for creating a Service.
type Options struct {
	Rankings RankingService
	Finder   ProfileFinder
	Timeline storage.TimelineStore // nil disables the chart archive
	Window   int                   // defaults to 10
	Logger   *log.Logger
	Now      func() time.Time // defaults to time.Now
}

// NewService creates a new profile service.
func NewService(opts Options) *Service {
	window := opts.Window
	if window == 0 {
		window = 10
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		rankings: opts.Rankings,
		finder:   opts.Finder,
		timeline: opts.Timeline,
		window:   window,
		logger:   logger,
		now:      now,
	}
}

// Load composes the full profile for one (team, role, player).
// Returns ErrNotFound for unknown teams/roles and for players absent from the
// current ranking set. Failures of the previous-period, summary, chart and
// other-profile lookups degrade the result instead of failing it.
func (s *Service) Load(ctx context.Context, teamID domain.TeamID, role domain.Role, playerID int) (*Player, error) {
	team, ok := domain.Teams[teamID]
	if !ok || !role.IsValid() {
		return nil, ErrNotFound
	}

	// Current and previous rankings in parallel; a missing previous period
	// is "no data", not fatal.
	var (
		wg           sync.WaitGroup
		current      []domain.RankingEntry
		currentErr   error
		previous     []domain.RankingEntry
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		current, currentErr = s.rankings.RefreshRankings(ctx, role, teamID, s.window)
	}()
	go func() {
		defer wg.Done()
		prev, err := s.rankings.GetPreviousRanking(ctx, role, teamID, s.window)
		if err != nil {
			s.logger.Printf("profile: previous ranking %s/%s unavailable: %v", teamID, role, err)
			return
		}
		previous = prev
	}()
	wg.Wait()

	if currentErr != nil {
		return nil, currentErr
	}

	entry, rank, err := lookup.PlayerRank(current, playerID)
	if err != nil {
		return nil, ErrNotFound
	}

	player := &Player{
		Team:        team,
		Role:        role,
		Current:     *entry,
		CurrentRank: rank,
	}

	if prevEntry, prevRank, err := lookup.PlayerRank(previous, playerID); err == nil {
		player.Previous = prevEntry
		player.PreviousRank = prevRank
	}

	summary, err := s.rankings.GetPlayerHistoricalSummary(ctx, role, teamID, playerID)
	if err != nil {
		s.logger.Printf("profile: historical summary %s/%s/%d unavailable: %v", teamID, role, playerID, err)
	} else {
		player.Summary = summary
		player.Snapshots, player.Chart = s.loadChart(ctx, teamID, role, playerID, *entry, rank)
	}

	if s.finder != nil {
		for _, p := range s.finder.FindProfiles(ctx, playerID) {
			if p.TeamID == teamID && p.Role == role {
				continue // skip the profile being viewed
			}
			player.OtherProfiles = append(player.OtherProfiles, p)
		}
	}

	return player, nil
}

// SnapshotIndex returns the ordered snapshot metadata for one (team, role),
// the index a playback session walks. Returns ErrNotFound for unknown cells.
func (s *Service) SnapshotIndex(ctx context.Context, teamID domain.TeamID, role domain.Role) ([]domain.SnapshotMetadata, error) {
	if !teamID.IsValid() || !role.IsValid() {
		return nil, ErrNotFound
	}

	index, err := s.rankings.GetHistoricalRankings(ctx, role, teamID)
	if err != nil {
		return nil, err
	}

	metadata := make([]domain.SnapshotMetadata, len(index.Snapshots))
	for i, snap := range index.Snapshots {
		metadata[i] = domain.SnapshotMetadata{
			SnapshotID: snap.SnapshotID,
			Date:       displayDate(snap.FirstMatchDate),
		}
	}
	return metadata, nil
}

// loadChart fetches the snapshot index and builds the sampled static chart:
// every step-th snapshot excluding the last, with the live standing appended
// as the final point so the chart always ends at the current rating. Sampled
// points already present in the timeline archive are served from it; only the
// rest go to the remote service (and are archived on the way through).
func (s *Service) loadChart(ctx context.Context, teamID domain.TeamID, role domain.Role, playerID int, current domain.RankingEntry, currentRank int) ([]domain.SnapshotMetadata, []domain.TimelineDataPoint) {
	index, err := s.rankings.GetHistoricalRankings(ctx, role, teamID)
	if err != nil {
		s.logger.Printf("profile: snapshot index %s/%s unavailable: %v", teamID, role, err)
		return nil, nil
	}

	metadata := make([]domain.SnapshotMetadata, len(index.Snapshots))
	for i, snap := range index.Snapshots {
		metadata[i] = domain.SnapshotMetadata{
			SnapshotID: snap.SnapshotID,
			Date:       displayDate(snap.FirstMatchDate),
		}
	}

	sampled := sampleSnapshots(index.Snapshots)
	points := make([]*domain.TimelineDataPoint, len(sampled))
	archived := make([]*domain.TimelinePoint, len(sampled))
	stored := s.archivedBySnapshot(ctx, teamID, role, playerID)

	var wg sync.WaitGroup
	for i, snap := range sampled {
		if p, ok := stored[snap.SnapshotID]; ok {
			points[i] = &domain.TimelineDataPoint{
				Date:   displayDate(p.Date),
				Rating: p.Rating,
				Rank:   p.Rank,
			}
			continue
		}
		wg.Add(1)
		go func(i int, snap domain.HistoricalSnapshot) {
			defer wg.Done()
			details, err := s.rankings.GetSnapshotDetails(ctx, snap.SnapshotID)
			if err != nil {
				s.logger.Printf("profile: snapshot %s unavailable: %v", snap.SnapshotID, err)
				return
			}
			entry, rank, err := lookup.PlayerRank(details.Rankings, playerID)
			if err != nil {
				return // player absent from this period
			}
			points[i] = &domain.TimelineDataPoint{
				Date:   displayDate(snap.FirstMatchDate),
				Rating: entry.Points,
				Rank:   rank,
			}
			archived[i] = &domain.TimelinePoint{
				TeamID:     teamID,
				Role:       role,
				PlayerID:   playerID,
				SnapshotID: snap.SnapshotID,
				Date:       snap.FirstMatchDate,
				Rating:     entry.Points,
				Rank:       rank,
			}
		}(i, snap)
	}
	wg.Wait()

	chart := make([]domain.TimelineDataPoint, 0, len(sampled)+1)
	for _, p := range points {
		if p != nil {
			chart = append(chart, *p)
		}
	}
	chart = append(chart, domain.TimelineDataPoint{
		Date:   displayDate(s.now().Format("2006-01-02")),
		Rating: current.Points,
		Rank:   currentRank,
	})

	s.archive(ctx, archived)

	return metadata, chart
}

// archivedBySnapshot reads the player's archived timeline points keyed by
// snapshot id. Best-effort: with no store or a failing read the chart falls
// back to remote fetches for every sampled snapshot.
func (s *Service) archivedBySnapshot(ctx context.Context, teamID domain.TeamID, role domain.Role, playerID int) map[string]*domain.TimelinePoint {
	if s.timeline == nil {
		return nil
	}

	stored, err := s.timeline.GetByPlayer(ctx, teamID, role, playerID)
	if err != nil {
		s.logger.Printf("profile: read archived timeline %s/%s/%d: %v", teamID, role, playerID, err)
		return nil
	}

	byID := make(map[string]*domain.TimelinePoint, len(stored))
	for _, p := range stored {
		byID[p.SnapshotID] = p
	}
	return byID
}

// archive writes fetched chart points through to the timeline store.
// Best-effort: duplicates mean the range is already archived.
func (s *Service) archive(ctx context.Context, points []*domain.TimelinePoint) {
	if s.timeline == nil {
		return
	}

	batch := make([]*domain.TimelinePoint, 0, len(points))
	for _, p := range points {
		if p != nil {
			batch = append(batch, p)
		}
	}
	if len(batch) == 0 {
		return
	}

	if err := s.timeline.InsertBulk(ctx, batch); err != nil {
		if !errors.Is(err, storage.ErrDuplicateKey) {
			s.logger.Printf("profile: archive timeline points: %v", err)
		}
	}
}

// sampleSnapshots picks every step-th snapshot, excluding the last one
// (the live standing replaces it), targeting maxChartPoints points.
func sampleSnapshots(snapshots []domain.HistoricalSnapshot) []domain.HistoricalSnapshot {
	if len(snapshots) <= 1 {
		return nil
	}

	history := snapshots[:len(snapshots)-1]
	step := len(history) / maxChartPoints
	if step < 1 {
		step = 1
	}

	var sampled []domain.HistoricalSnapshot
	for i := 0; i < len(history); i += step {
		sampled = append(sampled, history[i])
	}
	return sampled
}

// displayDate trims an ISO timestamp down to its date part.
func displayDate(s string) string {
	if len(s) > 10 && (s[10] == 'T' || s[10] == ' ') {
		return s[:10]
	}
	return s
}
