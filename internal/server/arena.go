// Package server hosts the arena over WebSocket: it fans the engine's
// event stream out to every connected client, routes inbound commands to
// the engine, and journals rounds into the report store.
package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"cyberarena/internal/game"
	"cyberarena/internal/protocol"
	"cyberarena/internal/report"
)

const (
	// missionRetention bounds how long finished rounds stay in the log.
	missionRetention = 24 * time.Hour
	janitorInterval  = 5 * time.Minute
)

// Arena is the hub. All clients see the same round; commands from any of
// them drive the shared engine.
type Arena struct {
	mu        sync.Mutex
	startMu   sync.Mutex
	conns     map[*Connection]struct{}
	engine    *game.Engine
	store     *report.Store
	missionID string
	seq       int
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewArena wires the hub to an engine and an optional mission log. A nil
// store disables journaling.
func NewArena(engine *game.Engine, store *report.Store) *Arena {
	a := &Arena{
		conns:  make(map[*Connection]struct{}),
		engine: engine,
		store:  store,
		stop:   make(chan struct{}),
	}
	if store != nil {
		go a.janitor()
	}
	return a
}

// Shutdown stops the janitor and aborts any round in flight.
func (a *Arena) Shutdown() {
	a.stopOnce.Do(func() {
		close(a.stop)
	})
	a.engine.Shutdown()
}

func (a *Arena) register(c *Connection) {
	a.mu.Lock()
	a.conns[c] = struct{}{}
	n := len(a.conns)
	a.mu.Unlock()
	log.Printf("[arena] client connected (%d active)", n)
}

func (a *Arena) unregister(c *Connection) {
	a.mu.Lock()
	delete(a.conns, c)
	n := len(a.conns)
	a.mu.Unlock()
	log.Printf("[arena] client disconnected (%d active)", n)
}

// Emit broadcasts one event to every client and journals it. It is the
// engine's output sink.
func (a *Arena) Emit(ev protocol.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[arena] encode %s: %v", ev.EventType(), err)
		return
	}

	a.mu.Lock()
	conns := make([]*Connection, 0, len(a.conns))
	for c := range a.conns {
		conns = append(conns, c)
	}
	missionID := a.missionID
	seq := a.seq
	a.seq++
	a.mu.Unlock()

	for _, c := range conns {
		c.enqueue(data)
	}

	if a.store != nil && missionID != "" {
		if err := a.store.RecordEvent(missionID, seq, ev.EventType(), ev); err != nil {
			log.Printf("[arena] journal %s: %v", ev.EventType(), err)
		}
		// A mitigated impact closes the round.
		if imp, ok := ev.(protocol.Impact); ok && imp.MitigationScore != nil {
			if err := a.store.FinishMission(missionID, imp.DamageTaken); err != nil {
				log.Printf("[arena] finish mission: %v", err)
			}
		}
	}
}

// handleCommand dispatches one decoded client command.
func (a *Arena) handleCommand(cmd protocol.Command) {
	switch cmd := cmd.(type) {
	case protocol.StartCommand:
		a.startRound(cmd.Mission)

	case protocol.DecisionCommand:
		a.engine.Decide(cmd.Approved)

	case protocol.SummarizeCommand:
		commander := "RED_COMMANDER"
		if cmd.Team == "BLUE" {
			commander = "BLUE_COMMANDER"
		}
		a.Emit(protocol.NewAgentMessage(commander, a.engine.Summary(cmd.Team)))

	case protocol.GetCodeCommand:
		a.Emit(a.engine.Code(cmd.Team))

	case protocol.ExplainCommand:
		a.Emit(protocol.NewEducationalResponse(a.engine.Explain()))

	default:
		log.Printf("[arena] unhandled command %s", cmd.CommandType())
	}
}

// startRound is serialized under startMu, and the engine claims the round
// before TryRun returns, so two concurrent STARTs can neither both claim
// the engine nor journal duplicate missions.
func (a *Arena) startRound(mission string) {
	a.startMu.Lock()
	defer a.startMu.Unlock()

	if a.engine.Running() {
		log.Printf("[arena] round already running, START ignored")
		return
	}

	a.mu.Lock()
	a.missionID = ""
	a.seq = 0
	if a.store != nil {
		id, err := a.store.BeginMission(mission)
		if err != nil {
			log.Printf("[arena] begin mission: %v", err)
		} else {
			a.missionID = id
		}
	}
	a.mu.Unlock()

	if !a.engine.TryRun(mission, a) {
		log.Printf("[arena] round already running, START ignored")
	}
}

// janitor prunes finished rounds past the retention window.
func (a *Arena) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			n, err := a.store.DeleteFinishedBefore(time.Now().Add(-missionRetention))
			if err != nil {
				log.Printf("[arena] prune mission log: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("[arena] pruned %d finished missions", n)
			}
		}
	}
}
