package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"cricket-rank-lab/internal/domain"
	"cricket-rank-lab/internal/observability"
	"cricket-rank-lab/internal/profile"
	"cricket-rank-lab/internal/storage"
)

// handleTeams returns static team metadata in stable display order.
func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	teams := make([]teamDTO, 0, len(domain.Teams))
	for _, id := range domain.TeamIDs() {
		teams = append(teams, toTeamDTO(domain.Teams[id]))
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"teams": teams})
}

// handleSearch runs the matrix-wide player search. Queries shorter than the
// minimum length return an empty result set without touching the upstream.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	start := time.Now()
	results := s.engine.Search(r.Context(), query)
	observability.RecordAggregationQuery("search", time.Since(start).Seconds())

	if results == nil {
		results = []domain.SearchResult{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": results,
	})
}

// handlePlayerProfiles returns every matrix cell a player appears in.
func (s *Server) handlePlayerProfiles(w http.ResponseWriter, r *http.Request) {
	playerID, err := strconv.Atoi(chi.URLParam(r, "playerId"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}

	start := time.Now()
	profiles := s.engine.FindProfiles(r.Context(), playerID)
	observability.RecordAggregationQuery("find_profiles", time.Since(start).Seconds())

	if profiles == nil {
		profiles = []domain.SearchResult{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"playerId": playerID,
		"profiles": profiles,
	})
}

// handleTopPerformers returns the per-role top three digest for one team.
func (s *Server) handleTopPerformers(w http.ResponseWriter, r *http.Request) {
	teamID := domain.TeamID(chi.URLParam(r, "teamId"))
	if !teamID.IsValid() {
		s.writeError(w, http.StatusNotFound, "unknown team")
		return
	}

	matches := s.intQueryParam(r, "matches", s.window)

	start := time.Now()
	top, err := s.engine.TopPerformers(r.Context(), teamID, matches)
	observability.RecordAggregationQuery("top_performers", time.Since(start).Seconds())
	if err != nil {
		s.logger.Printf("top performers %s: %v", teamID, err)
		s.writeError(w, http.StatusBadGateway, "ranking service unavailable")
		return
	}

	s.writeJSON(w, http.StatusOK, toTopPerformersResponse(teamID, matches, top))
}

// handleRankings serves one cell's ranking set, cache-aside. A fresh cached
// copy is returned as-is; refresh=true always goes to the ranking service and
// rewrites the cache.
func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	teamID := domain.TeamID(chi.URLParam(r, "teamId"))
	if !teamID.IsValid() {
		s.writeError(w, http.StatusNotFound, "unknown team")
		return
	}

	role := domain.Role(r.URL.Query().Get("role"))
	if !role.IsValid() {
		s.writeError(w, http.StatusBadRequest, "role must be batsman, bowler or allrounder")
		return
	}

	matches := s.intQueryParam(r, "matches", s.window)
	refresh := r.URL.Query().Get("refresh") == "true"
	cell := domain.Cell{Team: teamID, Role: role}

	if !refresh {
		cached, err := s.cache.Get(r.Context(), cell, matches)
		if err == nil && s.now().Sub(cached.FetchedAt) <= s.cacheTTL {
			observability.RecordCacheLookup(true)
			s.writeJSON(w, http.StatusOK, rankingsResponse{
				TeamID:    teamID.String(),
				Role:      role.String(),
				Matches:   matches,
				Cached:    true,
				FetchedAt: cached.FetchedAt,
				Rankings:  toRankingEntryDTOs(cached.Entries),
			})
			return
		}
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Printf("ranking cache get %s/%s: %v", teamID, role, err)
		}
		observability.RecordCacheLookup(false)
	}

	var entries []domain.RankingEntry
	var err error
	if refresh {
		entries, err = s.rankings.RefreshRankings(r.Context(), role, teamID, matches)
	} else {
		entries, err = s.rankings.GetRankings(r.Context(), role, teamID, matches)
	}
	if err != nil {
		s.logger.Printf("fetch rankings %s/%s: %v", teamID, role, err)
		s.writeError(w, http.StatusBadGateway, "ranking service unavailable")
		return
	}

	fetchedAt := s.now()
	if putErr := s.cache.Put(r.Context(), cell, matches, entries, fetchedAt); putErr != nil {
		s.logger.Printf("ranking cache put %s/%s: %v", teamID, role, putErr)
	}

	s.writeJSON(w, http.StatusOK, rankingsResponse{
		TeamID:    teamID.String(),
		Role:      role.String(),
		Matches:   matches,
		Cached:    false,
		FetchedAt: fetchedAt,
		Rankings:  toRankingEntryDTOs(entries),
	})
}

// handlePlayerProfile returns the composed profile for one (team, role, player).
func (s *Server) handlePlayerProfile(w http.ResponseWriter, r *http.Request) {
	teamID := domain.TeamID(chi.URLParam(r, "teamId"))
	playerID, err := strconv.Atoi(chi.URLParam(r, "playerId"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}

	role := domain.Role(r.URL.Query().Get("role"))
	if !role.IsValid() {
		s.writeError(w, http.StatusBadRequest, "role must be batsman, bowler or allrounder")
		return
	}

	start := time.Now()
	player, err := s.profiles.Load(r.Context(), teamID, role, playerID)
	observability.RecordAggregationQuery("profile", time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "player not found")
			return
		}
		s.logger.Printf("load profile %s/%s/%d: %v", teamID, role, playerID, err)
		s.writeError(w, http.StatusBadGateway, "ranking service unavailable")
		return
	}

	s.writeJSON(w, http.StatusOK, toProfileResponse(player))
}

// handleRebuild walks the full matrix and triggers per-cell snapshot rebuilds.
func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.rebuilder.RebuildAll(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "rebuild interrupted")
		return
	}

	cells := make([]cellStatusDTO, len(statuses))
	for i, st := range statuses {
		observability.RecordRebuildRun(st.Success)
		cells[i] = cellStatusDTO{
			TeamID:         st.Cell.Team.String(),
			Role:           st.Cell.Role.String(),
			Success:        st.Success,
			TotalSnapshots: st.TotalSnapshots,
			Message:        st.Message,
		}
	}

	s.writeJSON(w, http.StatusOK, rebuildResponse{Cells: cells})
}

// intQueryParam parses an integer query parameter, falling back to def when
// absent or malformed.
func (s *Server) intQueryParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
