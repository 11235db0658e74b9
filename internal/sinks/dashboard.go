package sinks

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/lkcod/svis/internal/svis"
)

// dashboardUpgrader mirrors the teacher's internal/app/calibration_handler.go
// upgrader: permissive origin check, since this is a LAN diagnostics tool.
var dashboardUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// dashboardState is the live-diagnostics snapshot pushed to every
// connected browser: association-engine state, buffer occupancy, and
// the latest per-stage timing, per SPEC_FULL.md §4.9's description of
// the dashboard sink.
type dashboardState struct {
	CountOffset  uint32  `json:"count_offset"`
	NeedResync   bool    `json:"need_resync"`
	IMUBufLen    int     `json:"imu_buf_len"`
	StrobeBufLen int     `json:"strobe_buf_len"`
	ImageBufLen  int     `json:"image_buf_len"`
	LastFrame    uint32  `json:"last_frame_counter"`
	LastTHost    float64 `json:"last_t_host"`
	Timing       svis.Timing `json:"timing"`
}

// Dashboard is a small HTTP+WebSocket server that pushes association
// state to connected browsers, the SVIS-domain analogue of the
// teacher's internal/app/web.go (which pairs an http.Handler with an
// MQTT subscription) — here the push path is a WebSocket instead of a
// poll, per SPEC_FULL.md's §4.9 domain-stack note.
type Dashboard struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	state dashboardState
}

// NewDashboard builds an empty Dashboard ready to Serve and to receive
// engine callbacks.
func NewDashboard() *Dashboard {
	return &Dashboard{clients: make(map[*websocket.Conn]struct{})}
}

// Serve registers the dashboard's routes on a private mux and starts
// listening on addr in its own goroutine. It never blocks the run loop,
// matching spec.md §5's single-threaded-core assumption: the dashboard
// is a passive server, not a run-loop participant.
func (d *Dashboard) Serve(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", d.handleWS)
	mux.HandleFunc("/api/state", d.handleState)

	go func() {
		log.Printf("(svis) dashboard listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("(svis) dashboard server stopped: %v", err)
		}
	}()
}

func (d *Dashboard) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := dashboardUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("(svis) dashboard: websocket upgrade error: %v", err)
		return
	}

	d.mu.Lock()
	d.clients[conn] = struct{}{}
	d.mu.Unlock()

	// Drain and discard inbound frames; this connection is push-only.
	// Exiting the loop on any read error removes the client.
	go func() {
		defer func() {
			d.mu.Lock()
			delete(d.clients, conn)
			d.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (d *Dashboard) handleState(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	state := d.state
	d.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		log.Printf("(svis) dashboard: json encode error: %v", err)
	}
}

// broadcast best-effort pushes the current state to every connected
// client. Each write is synchronous and has no deadline, so a slow
// client delays the caller; a client whose write fails is dropped.
func (d *Dashboard) broadcast() {
	d.mu.Lock()
	state := d.state
	dead := make([]*websocket.Conn, 0)
	for conn := range d.clients {
		if err := conn.WriteJSON(state); err != nil {
			dead = append(dead, conn)
		}
	}
	for _, conn := range dead {
		delete(d.clients, conn)
		conn.Close()
	}
	d.mu.Unlock()
}

// MatchedImage implements a svis.Sinks.MatchedImage endpoint tracking
// the last matched frame.
func (d *Dashboard) MatchedImage(match svis.Match) {
	d.mu.Lock()
	d.state.LastFrame = match.Image.FrameCounter
	d.state.LastTHost = match.THost
	d.mu.Unlock()
	d.broadcast()
}

// Timing implements a svis.Sinks.Timing endpoint, also the natural
// per-iteration tick to refresh and broadcast buffer/association state.
func (d *Dashboard) Timing(t svis.Timing) {
	d.mu.Lock()
	d.state.Timing = t
	d.mu.Unlock()
	d.broadcast()
}

// UpdateAssoc lets the engine wiring push count_offset/need_resync and
// buffer occupancy into the dashboard state ahead of the next Timing
// broadcast.
func (d *Dashboard) UpdateAssoc(countOffset uint32, needResync bool, imuLen, strobeLen, imageLen int) {
	d.mu.Lock()
	d.state.CountOffset = countOffset
	d.state.NeedResync = needResync
	d.state.IMUBufLen = imuLen
	d.state.StrobeBufLen = strobeLen
	d.state.ImageBufLen = imageLen
	d.mu.Unlock()
}
