package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"cricket-rank-lab/internal/domain"
	"cricket-rank-lab/internal/lookup"
	"cricket-rank-lab/internal/observability"
	"cricket-rank-lab/internal/playback"
	"cricket-rank-lab/internal/profile"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The dashboard frontend is served from a separate origin in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// playbackCommand is a client control message for a playback session.
type playbackCommand struct {
	Action string `json:"action"` // play, pause, restart, speed
	Speed  int    `json:"speed,omitempty"`
}

// playbackFrame is a state push sent to the client on every mutation and
// every tick. Points is always the full gap-free prefix loaded so far.
type playbackFrame struct {
	SessionID     string                     `json:"sessionId"`
	Playing       bool                       `json:"playing"`
	Loading       bool                       `json:"loading"`
	Complete      bool                       `json:"complete"`
	Speed         int                        `json:"speed"`
	Cursor        int                        `json:"cursor"`
	SnapshotCount int                        `json:"snapshotCount"`
	Progress      float64                    `json:"progress"`
	Points        []domain.TimelineDataPoint `json:"points"`
	Error         string                     `json:"error,omitempty"`
}

// playbackSession ties one WebSocket connection to one playback engine.
type playbackSession struct {
	id     string
	conn   *websocket.Conn
	engine *playback.Engine

	// writeMu serializes frame pushes from the read loop and tick callbacks.
	writeMu       sync.Mutex
	pushed        int // points already counted toward the loaded metric
	pushedDropped int // drops already counted toward the dropped metric
}

// handlePlayback upgrades the connection and runs one playback session over
// the player's snapshot index. The engine is exclusively owned by this
// connection and is closed on disconnect.
func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	teamID := domain.TeamID(r.URL.Query().Get("teamId"))
	role := domain.Role(r.URL.Query().Get("role"))
	playerID, err := strconv.Atoi(r.URL.Query().Get("playerId"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	if !teamID.IsValid() || !role.IsValid() {
		s.writeError(w, http.StatusNotFound, "unknown team or role")
		return
	}

	snapshots, err := s.profiles.SnapshotIndex(r.Context(), teamID, role)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "unknown team or role")
			return
		}
		s.logger.Printf("playback: snapshot index %s/%s: %v", teamID, role, err)
		s.writeError(w, http.StatusBadGateway, "ranking service unavailable")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("playback: upgrade: %v", err)
		return
	}
	defer conn.Close()

	// Fetches outlive individual commands but not the connection.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	session := &playbackSession{
		id:   uuid.NewString(),
		conn: conn,
	}
	session.engine = playback.New(playback.Options{
		Snapshots: snapshots,
		Source:    s.playbackSource(teamID, role, playerID),
		Logger:    s.logger,
		OnProgress: func(float64) {
			session.push("")
		},
	})
	defer session.engine.Close()

	observability.RecordSessionOpened()
	defer observability.RecordSessionClosed()

	s.logger.Printf("playback: session %s opened for %s/%s/%d (%d snapshots)",
		session.id, teamID, role, playerID, len(snapshots))

	// Initial frame so the client learns its session id and snapshot count.
	session.push("")

	for {
		var cmd playbackCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("playback: session %s read: %v", session.id, err)
			}
			return
		}

		var cmdErr error
		switch cmd.Action {
		case "play":
			cmdErr = session.engine.Play(ctx)
		case "pause":
			session.engine.Pause()
		case "restart":
			cmdErr = session.engine.Restart()
		case "speed":
			cmdErr = session.engine.SetSpeed(cmd.Speed)
		default:
			cmdErr = errors.New("unknown action")
		}

		message := ""
		if cmdErr != nil {
			message = cmdErr.Error()
		}
		session.push(message)
	}
}

// playbackSource builds the lazy per-snapshot point fetcher for one player.
// A snapshot the player is absent from yields (nil, nil): dropped, not retried.
func (s *Server) playbackSource(teamID domain.TeamID, role domain.Role, playerID int) playback.PointSource {
	return playback.PointSourceFunc(func(ctx context.Context, snapshotID string) (*playback.Point, error) {
		details, err := s.rankings.GetSnapshotDetails(ctx, snapshotID)
		if err != nil {
			return nil, err
		}
		entry, rank, err := lookup.PlayerRank(details.Rankings, playerID)
		if err != nil {
			return nil, nil
		}
		return &playback.Point{Rating: entry.Points, Rank: rank}, nil
	})
}

// push sends the current engine state to the client as one frame.
func (ps *playbackSession) push(errMessage string) {
	st := ps.engine.State()

	ps.writeMu.Lock()
	defer ps.writeMu.Unlock()

	loaded := len(st.LoadedPoints)
	if loaded < ps.pushed || st.Dropped < ps.pushedDropped {
		// Session was restarted; counters start over.
		ps.pushed = loaded
		ps.pushedDropped = st.Dropped
	} else if loaded > ps.pushed || st.Dropped > ps.pushedDropped {
		observability.RecordPointsLoaded(loaded-ps.pushed, st.Dropped-ps.pushedDropped)
		ps.pushed = loaded
		ps.pushedDropped = st.Dropped
	}

	frame := playbackFrame{
		SessionID:     ps.id,
		Playing:       st.Playing,
		Loading:       st.Loading,
		Complete:      st.Complete,
		Speed:         st.Speed,
		Cursor:        st.Cursor,
		SnapshotCount: st.SnapshotCount,
		Progress:      ps.engine.Progress(),
		Points:        st.LoadedPoints,
		Error:         errMessage,
	}
	if frame.Points == nil {
		frame.Points = []domain.TimelineDataPoint{}
	}

	// A failed write means the client is gone; the read loop will notice.
	_ = ps.conn.WriteJSON(frame)
}
