package server

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"cyberarena/internal/game"
	"cyberarena/internal/protocol"
	"cyberarena/internal/report"
)

type arenaFixture struct {
	arena *Arena
	store *report.Store
	srv   *httptest.Server
}

func newArenaFixture(t *testing.T) *arenaFixture {
	t.Helper()
	store, err := report.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	engine := game.NewEngine(
		game.WithThinkDelay(time.Millisecond),
		game.WithLuck(func() float64 { return 1.0 }),
	)
	arena := NewArena(engine, store)
	srv := httptest.NewServer(HandleWebSocket(arena))
	t.Cleanup(func() {
		srv.Close()
		arena.Shutdown()
		store.Close()
	})
	return &arenaFixture{arena: arena, store: store, srv: srv}
}

// arenaClient drains one client connection into an event list.
type arenaClient struct {
	t      *testing.T
	conn   *websocket.Conn
	mu     sync.Mutex
	events []protocol.Event
}

func (f *arenaFixture) dial(t *testing.T) *arenaClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial arena: %v", err)
	}
	c := &arenaClient{t: t, conn: conn}
	t.Cleanup(func() { conn.Close() })
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			ev, err := protocol.DecodeEvent(data)
			if err != nil {
				t.Errorf("arena sent undecodable frame: %v", err)
				continue
			}
			c.mu.Lock()
			c.events = append(c.events, ev)
			c.mu.Unlock()
		}
	}()
	return c
}

func (c *arenaClient) sendCommand(cmd protocol.Command) {
	c.t.Helper()
	if err := c.conn.WriteJSON(cmd); err != nil {
		c.t.Fatalf("send %s: %v", cmd.CommandType(), err)
	}
}

func (c *arenaClient) snapshot() []protocol.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]protocol.Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *arenaClient) waitFor(match func(protocol.Event) bool, what string) protocol.Event {
	c.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		for _, ev := range c.snapshot() {
			if match(ev) {
				return ev
			}
		}
		time.Sleep(2 * time.Millisecond)
	}
	c.t.Fatalf("timed out waiting for %s", what)
	return nil
}

func isProposal(team string) func(protocol.Event) bool {
	return func(ev protocol.Event) bool {
		p, ok := ev.(protocol.Proposal)
		return ok && p.Team == team
	}
}

func isFinalImpact(ev protocol.Event) bool {
	imp, ok := ev.(protocol.Impact)
	return ok && imp.MitigationScore != nil
}

func TestArena_FullRoundOverWebSocket(t *testing.T) {
	f := newArenaFixture(t)
	client := f.dial(t)

	client.sendCommand(protocol.NewStartCommand(game.MissionSQLInjection))

	client.waitFor(func(ev protocol.Event) bool {
		su, ok := ev.(protocol.StateUpdate)
		return ok && su.Agent == "RED_SCANNER" && su.Status == protocol.StatusThinking
	}, "red scanner thinking")

	client.waitFor(isProposal("RED"), "red proposal")
	client.sendCommand(protocol.NewDecisionCommand(true))

	client.waitFor(isProposal("BLUE"), "blue proposal")
	client.sendCommand(protocol.NewDecisionCommand(true))

	final := client.waitFor(isFinalImpact, "mitigated resolution").(protocol.Impact)
	if final.DamageTaken < 0 {
		t.Fatalf("negative final damage %d", final.DamageTaken)
	}

	// The round must be journaled and closed out.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		recent, err := f.store.RecentMissions(1)
		if err != nil {
			t.Fatalf("list missions: %v", err)
		}
		if len(recent) == 1 && recent[0].FinishedAt != nil {
			if recent[0].MissionType != game.MissionSQLInjection {
				t.Fatalf("wrong mission type journaled: %s", recent[0].MissionType)
			}
			events, err := f.store.Events(recent[0].ID)
			if err != nil {
				t.Fatalf("list events: %v", err)
			}
			if len(events) == 0 {
				t.Fatalf("no events journaled")
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("mission never finished in the journal")
}

func TestArena_BroadcastReachesAllClients(t *testing.T) {
	f := newArenaFixture(t)
	first := f.dial(t)
	second := f.dial(t)

	first.sendCommand(protocol.NewStartCommand(game.MissionNetworkFlood))

	for _, c := range []*arenaClient{first, second} {
		c.waitFor(func(ev protocol.Event) bool {
			_, ok := ev.(protocol.StateUpdate)
			return ok
		}, "broadcast event")
	}
}

func TestArena_SummaryCodeAndExplainCommands(t *testing.T) {
	f := newArenaFixture(t)
	client := f.dial(t)

	client.sendCommand(protocol.NewStartCommand(game.MissionMITM))
	client.waitFor(isProposal("RED"), "red proposal")
	client.sendCommand(protocol.NewDecisionCommand(true))
	client.waitFor(isProposal("BLUE"), "blue proposal")
	client.sendCommand(protocol.NewDecisionCommand(true))
	client.waitFor(isFinalImpact, "round end")

	client.sendCommand(protocol.NewSummarizeCommand("RED"))
	client.waitFor(func(ev protocol.Event) bool {
		msg, ok := ev.(protocol.NewMessage)
		return ok && msg.Agent == "RED_COMMANDER" && strings.Contains(msg.Text, "RED team")
	}, "red summary")

	client.sendCommand(protocol.NewGetCodeCommand("BLUE"))
	client.waitFor(func(ev protocol.Event) bool {
		code, ok := ev.(protocol.CodeResponse)
		return ok && code.Team == "BLUE" && code.Code != ""
	}, "blue code sample")

	client.sendCommand(protocol.NewExplainCommand())
	client.waitFor(func(ev protocol.Event) bool {
		edu, ok := ev.(protocol.EducationalResponse)
		return ok && strings.Contains(edu.EduText, "MITM_ATTACK")
	}, "educational brief")
}

func TestArena_ConcurrentStartsJournalOneMission(t *testing.T) {
	f := newArenaFixture(t)
	first := f.dial(t)
	second := f.dial(t)

	// Near-simultaneous STARTs from two connections race into the hub.
	first.sendCommand(protocol.NewStartCommand(game.MissionNetworkFlood))
	second.sendCommand(protocol.NewStartCommand(game.MissionMITM))

	first.waitFor(isProposal("RED"), "red proposal")

	// Give the losing START time to be processed, then confirm only one
	// mission row exists.
	time.Sleep(20 * time.Millisecond)
	recent, err := f.store.RecentMissions(10)
	if err != nil {
		t.Fatalf("list missions: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected a single journaled mission, got %d", len(recent))
	}
}

func TestArena_MalformedCommandFramesAreDropped(t *testing.T) {
	f := newArenaFixture(t)
	client := f.dial(t)

	if err := client.conn.WriteMessage(websocket.TextMessage, []byte(`not json`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := client.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"START"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	// The connection must survive and still serve valid commands.
	client.sendCommand(protocol.NewExplainCommand())
	client.waitFor(func(ev protocol.Event) bool {
		_, ok := ev.(protocol.EducationalResponse)
		return ok
	}, "explanation after bad frames")
}

func TestArena_SecondStartWhileRunningIsIgnored(t *testing.T) {
	f := newArenaFixture(t)
	client := f.dial(t)

	client.sendCommand(protocol.NewStartCommand(game.MissionNetworkFlood))
	client.waitFor(isProposal("RED"), "red proposal")

	client.sendCommand(protocol.NewStartCommand(game.MissionMITM))

	// Allow the second START to be processed, then confirm the original
	// round is still the one in flight.
	time.Sleep(20 * time.Millisecond)
	client.sendCommand(protocol.NewDecisionCommand(true))
	ev := client.waitFor(func(ev protocol.Event) bool {
		imp, ok := ev.(protocol.Impact)
		return ok && imp.MitigationScore == nil
	}, "strike from the first mission")
	if imp := ev.(protocol.Impact); imp.DamageTaken != 36 {
		t.Fatalf("expected the flood strike (36), got %d", imp.DamageTaken)
	}
}
