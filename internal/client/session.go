// Package client implements the game event synchronization layer: a
// Session owns one WebSocket connection to the arena server, reduces the
// inbound event stream into a GameState, dispatches outbound commands,
// and falls back to a scripted offline round when no server is reachable.
package client

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cyberarena/internal/protocol"
)

// hitPulseDuration is how long IsHit stays raised after nonzero damage.
const hitPulseDuration = 500 * time.Millisecond

const dialTimeout = 10 * time.Second

// Session owns the connection, the state, and every timer derived from
// them. Create with NewSession, dispose with Close; Close is idempotent
// and cancels all pending timers so nothing writes into a dead session.
type Session struct {
	mu         sync.Mutex
	state      GameState
	conn       *websocket.Conn
	connecting bool
	connected  bool
	connErr    string
	closed     bool
	hitTimer   *time.Timer
	sim        *simulation

	// simTick overrides the offline script cadence; tests shrink it.
	simTick time.Duration

	writeMu sync.Mutex

	onUpdate func(GameState)
	onStatus func(connected bool, connErr string)
}

func NewSession() *Session {
	return &Session{
		state:   newGameState(),
		simTick: defaultSimTick,
	}
}

// OnUpdate registers a callback invoked with a state snapshot after every
// applied event. Must be set before Connect or Start.
func (s *Session) OnUpdate(fn func(GameState)) {
	s.mu.Lock()
	s.onUpdate = fn
	s.mu.Unlock()
}

// OnStatus registers a callback for connection status transitions.
func (s *Session) OnStatus(fn func(connected bool, connErr string)) {
	s.mu.Lock()
	s.onStatus = fn
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// ConnectionError returns the last transport failure description, empty
// while the connection is healthy.
func (s *Session) ConnectionError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connErr
}

// Connect dials the arena server. Failures never propagate to the caller;
// they land in ConnectionError and leave the session usable offline. The
// session does not retry on its own; falling back to the offline round
// is the caller's call, via Start.
func (s *Session) Connect(url string) {
	s.mu.Lock()
	if s.closed || s.conn != nil || s.connecting {
		s.mu.Unlock()
		return
	}
	// The connecting flag is held across the dial; concurrent Connect
	// calls dial at most once.
	s.connecting = true
	s.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		s.mu.Lock()
		s.connecting = false
		s.mu.Unlock()
		log.Printf("[session] dial %s: %v", url, err)
		s.setStatus(false, "unable to reach arena server")
		return
	}

	s.mu.Lock()
	s.connecting = false
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conn = conn
	s.mu.Unlock()

	s.setStatus(true, "")
	go s.readLoop(conn)
}

// Close tears the session down: transport closed exactly once, timers and
// any running simulation cancelled. Safe to call repeatedly.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conn := s.conn
	s.conn = nil
	s.connected = false
	if s.hitTimer != nil {
		s.hitTimer.Stop()
		s.hitTimer = nil
	}
	sim := s.sim
	s.sim = nil
	s.mu.Unlock()

	if sim != nil {
		sim.stop()
	}
	if conn != nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}
}

// Start begins a mission. Connected sessions send START; disconnected
// ones substitute the offline scripted round instead of failing.
func (s *Session) Start(mission string) {
	if s.IsConnected() {
		if err := s.send(protocol.NewStartCommand(mission)); err != nil {
			log.Printf("[session] start: %v", err)
		}
		return
	}
	s.startSimulation(mission)
}

// SubmitDecision clears the pending proposal immediately, before any send
// attempt, so the user never sees a proposal they already acted on. The
// decision then goes to the simulation or the live server, whichever is
// driving the round.
func (s *Session) SubmitDecision(approved bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.state.Proposal = nil
	sim := s.sim
	connected := s.connected
	cb := s.onUpdate
	snap := s.state.clone()
	s.mu.Unlock()

	if cb != nil {
		cb(snap)
	}

	if sim != nil && sim.active() {
		sim.decide(approved)
		return
	}
	if !connected {
		log.Printf("[session] decision dropped: not connected")
		return
	}
	if err := s.send(protocol.NewDecisionCommand(approved)); err != nil {
		log.Printf("[session] decision: %v", err)
	}
}

// RequestSummary asks the server for a team summary. Unlike Start there
// is no offline substitute; disconnected calls fail.
func (s *Session) RequestSummary(team string) error {
	return s.request(protocol.NewSummarizeCommand(team))
}

func (s *Session) RequestCode(team string) error {
	return s.request(protocol.NewGetCodeCommand(team))
}

func (s *Session) RequestExplanation() error {
	return s.request(protocol.NewExplainCommand())
}

// Reset restores the default state. Local-only: it always succeeds, and
// it cancels a running offline round along with the hit pulse. The script
// is stopped before the state clears so no scripted event survives the
// reset.
func (s *Session) Reset() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	sim := s.sim
	s.sim = nil
	s.mu.Unlock()

	if sim != nil {
		sim.stop()
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.hitTimer != nil {
		s.hitTimer.Stop()
		s.hitTimer = nil
	}
	s.state = newGameState()
	cb := s.onUpdate
	snap := s.state.clone()
	s.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
}

func (s *Session) request(cmd protocol.Command) error {
	if !s.IsConnected() {
		log.Printf("[session] %s dropped: not connected", cmd.CommandType())
		return fmt.Errorf("%s: not connected", cmd.CommandType())
	}
	return s.send(cmd)
}

func (s *Session) send(cmd protocol.Command) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("send %s: not connected", cmd.CommandType())
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := conn.WriteJSON(cmd); err != nil {
		return fmt.Errorf("send %s: %w", cmd.CommandType(), err)
	}
	return nil
}

func (s *Session) startSimulation(mission string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.sim != nil && s.sim.active() {
		s.mu.Unlock()
		return
	}
	sim := newSimulation(mission, s.simTick, s.apply)
	s.sim = sim
	s.mu.Unlock()

	log.Printf("[session] no connection, running offline round for %s", mission)
	go sim.run()
}

func (s *Session) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.handleDisconnect(err)
			return
		}

		ev, err := protocol.DecodeEvent(data)
		if err != nil {
			// Malformed frame: log, drop, leave state untouched.
			log.Printf("[session] dropping frame: %v", err)
			continue
		}
		s.apply(ev)
	}
}

// apply runs the reducer for one event atomically and arms the hit pulse
// when the event carried damage. A pulse landing during an active pulse
// restarts the 500ms window.
func (s *Session) apply(ev protocol.Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	hit := reduce(&s.state, ev)
	if hit {
		if s.hitTimer != nil {
			s.hitTimer.Stop()
		}
		s.hitTimer = time.AfterFunc(hitPulseDuration, s.clearHit)
	}
	cb := s.onUpdate
	snap := s.state.clone()
	s.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
}

func (s *Session) clearHit() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.state.IsHit = false
	s.hitTimer = nil
	cb := s.onUpdate
	snap := s.state.clone()
	s.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
}

func (s *Session) handleDisconnect(err error) {
	s.mu.Lock()
	closed := s.closed
	s.conn = nil
	s.mu.Unlock()
	if closed {
		return
	}

	msg := ""
	if ce, ok := err.(*websocket.CloseError); ok {
		if ce.Code != websocket.CloseNormalClosure {
			msg = fmt.Sprintf("connection closed abnormally (code %d)", ce.Code)
		}
	} else {
		log.Printf("[session] read: %v", err)
		msg = "connection lost"
	}
	s.setStatus(false, msg)
}

func (s *Session) setStatus(connected bool, connErr string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.connected = connected
	s.connErr = connErr
	cb := s.onStatus
	s.mu.Unlock()

	if cb != nil {
		cb(connected, connErr)
	}
}
