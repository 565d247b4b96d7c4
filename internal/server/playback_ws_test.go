package server

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialPlayback(t *testing.T, apiURL, query string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(apiURL, "http") + "/ws/playback?" + query
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readFrameUntil reads frames until cond matches one, failing the test if the
// deadline passes first.
func readFrameUntil(t *testing.T, conn *websocket.Conn, what string, cond func(playbackFrame) bool) playbackFrame {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	conn.SetReadDeadline(deadline)
	for {
		var frame playbackFrame
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("waiting for %s: %v", what, err)
		}
		if cond(frame) {
			return frame
		}
		if time.Now().After(deadline) {
			t.Fatalf("deadline passed waiting for %s", what)
		}
	}
}

func sendCommand(t *testing.T, conn *websocket.Conn, cmd playbackCommand) {
	t.Helper()
	if err := conn.WriteJSON(cmd); err != nil {
		t.Fatalf("send %s: %v", cmd.Action, err)
	}
}

func TestPlaybackSessionLifecycle(t *testing.T) {
	upstream := newFakeUpstream()
	defer upstream.server.Close()
	_, api := newTestServer(t, upstream)

	conn := dialPlayback(t, api.URL, "teamId=kr&role=batsman&playerId=7")

	// Initial frame: idle session with the full snapshot index counted.
	initial := readFrameUntil(t, conn, "initial frame", func(playbackFrame) bool { return true })
	if initial.SessionID == "" {
		t.Error("initial frame must carry a session id")
	}
	if initial.SnapshotCount != 2 || initial.Cursor != -1 || initial.Playing || initial.Speed != 1 {
		t.Errorf("unexpected initial frame: %+v", initial)
	}
	if len(initial.Points) != 0 {
		t.Errorf("initial frame must have no points, got %d", len(initial.Points))
	}

	// Play runs the replay to completion: every snapshot consumed in order.
	sendCommand(t, conn, playbackCommand{Action: "play"})
	done := readFrameUntil(t, conn, "completion", func(f playbackFrame) bool { return f.Complete })
	if done.Playing {
		t.Error("completed session must not report playing")
	}
	if len(done.Points) != 2 {
		t.Errorf("expected 2 replayed points, got %d", len(done.Points))
	}
	if done.Points[0].Rating != 512.0 || done.Points[0].Rank != 1 {
		t.Errorf("unexpected first point: %+v", done.Points[0])
	}
	if done.Progress != 1.0 {
		t.Errorf("expected progress 1.0, got %v", done.Progress)
	}

	// Restart rewinds to idle and discards the loaded points.
	sendCommand(t, conn, playbackCommand{Action: "restart"})
	rewound := readFrameUntil(t, conn, "restart frame", func(f playbackFrame) bool { return f.Cursor == -1 })
	if rewound.Complete || rewound.Playing || len(rewound.Points) != 0 {
		t.Errorf("unexpected frame after restart: %+v", rewound)
	}

	// Speed changes are acknowledged with the new multiplier.
	sendCommand(t, conn, playbackCommand{Action: "speed", Speed: 4})
	sped := readFrameUntil(t, conn, "speed frame", func(f playbackFrame) bool { return f.Speed == 4 })
	if sped.Error != "" {
		t.Errorf("valid speed must not error: %q", sped.Error)
	}

	// Unsupported speed and unknown actions surface as frame errors.
	sendCommand(t, conn, playbackCommand{Action: "speed", Speed: 3})
	readFrameUntil(t, conn, "speed error", func(f playbackFrame) bool { return f.Error != "" })

	sendCommand(t, conn, playbackCommand{Action: "rewind"})
	bad := readFrameUntil(t, conn, "unknown action error", func(f playbackFrame) bool { return f.Error != "" })
	if bad.Error != "unknown action" {
		t.Errorf("unexpected error message: %q", bad.Error)
	}
}

func TestPlaybackPauseHoldsCursor(t *testing.T) {
	upstream := newFakeUpstream()
	defer upstream.server.Close()
	_, api := newTestServer(t, upstream)

	conn := dialPlayback(t, api.URL, "teamId=kr&role=batsman&playerId=7")
	readFrameUntil(t, conn, "initial frame", func(playbackFrame) bool { return true })

	// Play loads the first point synchronously; pause right after must leave
	// the replay resumable at that position.
	sendCommand(t, conn, playbackCommand{Action: "play"})
	readFrameUntil(t, conn, "first point", func(f playbackFrame) bool { return len(f.Points) >= 1 })

	sendCommand(t, conn, playbackCommand{Action: "pause"})
	paused := readFrameUntil(t, conn, "paused frame", func(f playbackFrame) bool { return !f.Playing })
	if paused.Complete && paused.Cursor < paused.SnapshotCount-1 {
		t.Errorf("pause must not complete an unfinished replay: %+v", paused)
	}
	if len(paused.Points) == 0 {
		t.Error("pause must keep the loaded points")
	}
}

func TestPlaybackRejectsBadRequests(t *testing.T) {
	upstream := newFakeUpstream()
	defer upstream.server.Close()
	_, api := newTestServer(t, upstream)

	cases := []struct {
		name  string
		query string
		want  int
	}{
		{"non-numeric player id", "teamId=kr&role=batsman&playerId=x", http.StatusBadRequest},
		{"unknown team", "teamId=zz&role=batsman&playerId=7", http.StatusNotFound},
		{"unknown role", "teamId=kr&role=keeper&playerId=7", http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(api.URL + "/ws/playback?" + tc.query)
			if err != nil {
				t.Fatalf("GET failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Errorf("got %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}
