package client

import (
	"fmt"
	"sync"
	"time"

	"cyberarena/internal/protocol"
)

// defaultSimTick is the cadence of the offline script, matching the pacing
// of a live round.
const defaultSimTick = 1500 * time.Millisecond

// simStep is one tick's worth of synthetic events. A pausing step stops the
// counter until a decision arrives; rethink is emitted when that decision
// is a rejection.
type simStep struct {
	events  []protocol.Event
	pause   bool
	rethink *protocol.NewMessage
}

// simulation replays a scripted red-vs-blue round through the same reducer
// the live connection feeds, so the UI contract is identical with no server.
type simulation struct {
	mu       sync.Mutex
	script   []simStep
	step     int
	awaiting bool
	rethink  *protocol.NewMessage
	finished bool

	stopped bool

	emit     func(protocol.Event)
	tick     time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

func newSimulation(mission string, tick time.Duration, emit func(protocol.Event)) *simulation {
	if tick <= 0 {
		tick = defaultSimTick
	}
	return &simulation{
		script: buildScript(mission),
		emit:   emit,
		tick:   tick,
		done:   make(chan struct{}),
	}
}

func (sim *simulation) run() {
	ticker := time.NewTicker(sim.tick)
	defer ticker.Stop()

	for {
		select {
		case <-sim.done:
			return
		case <-ticker.C:
			if sim.advance() {
				return
			}
		}
	}
}

// advance fires the next scripted step unless a proposal is pending.
// It reports true once the script is exhausted. Events are emitted under
// the lock so stop can guarantee no emission lands after it returns; the
// session never calls back into the simulation while holding its own lock,
// so the ordering is safe.
func (sim *simulation) advance() bool {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	if sim.stopped || sim.awaiting || sim.finished {
		return sim.finished
	}
	if sim.step >= len(sim.script) {
		sim.finished = true
		return true
	}

	st := sim.script[sim.step]
	sim.step++
	if st.pause {
		sim.awaiting = true
		sim.rethink = st.rethink
	}
	if sim.step >= len(sim.script) && !sim.awaiting {
		sim.finished = true
	}

	for _, ev := range st.events {
		sim.emit(ev)
	}
	return sim.finished
}

// decide resumes a paused script. Approval advances silently; rejection
// emits the commander's rethinking message first, then advances anyway
// since the script has no alternate branch.
func (sim *simulation) decide(approved bool) {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	if sim.stopped || !sim.awaiting {
		return
	}
	sim.awaiting = false
	rethink := sim.rethink
	sim.rethink = nil

	if !approved && rethink != nil {
		sim.emit(*rethink)
	}
}

func (sim *simulation) active() bool {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	return !sim.stopped && !sim.finished
}

// stop halts the script. Once it returns no further events will be
// emitted.
func (sim *simulation) stop() {
	sim.stopOnce.Do(func() {
		close(sim.done)
	})
	sim.mu.Lock()
	sim.stopped = true
	sim.mu.Unlock()
}

// scriptText holds the per-mission flavor for the offline round.
type scriptText struct {
	scanText    string
	weaponText  string
	attackName  string
	attackDesc  string
	damage      int
	analysis    string
	counterText string
	defenseName string
	defenseDesc string
	mitigation  int
}

var missionTexts = map[string]scriptText{
	"NETWORK_FLOOD": {
		scanText:    "Target 192.168.1.40 exposes HTTP on :80 with no rate limiting. Flood-susceptible.",
		weaponText:  "UDP flood with 65507-byte payloads across 50 threads will saturate the link.",
		attackName:  "UDP Flood",
		attackDesc:  "Saturate the target link with maximum-size UDP datagrams",
		damage:      22,
		analysis:    "Inbound packet rate spiking 400x baseline. Signature matches volumetric DDoS.",
		counterText: "Deploy per-IP rate limiting and SYN cookies at the edge.",
		defenseName: "Rate Limiter",
		defenseDesc: "Per-IP rate limiting with automated blacklisting",
		mitigation:  65,
	},
	"SQL_INJECTION": {
		scanText:    "Login form at /login passes unvalidated input to MySQL 5.7.31 on :3306.",
		weaponText:  "Classic tautology payload ' OR '1'='1' -- bypasses the credential check.",
		attackName:  "SQL Injection",
		attackDesc:  "Tautology injection against the login endpoint",
		damage:      28,
		analysis:    "Query log shows quote-breaking input on the users table. Injection in progress.",
		counterText: "Switch the login path to parameterized queries and strip SQL metacharacters.",
		defenseName: "Parameterized Queries",
		defenseDesc: "Prepared statements with input sanitization",
		mitigation:  80,
	},
	"MITM_ATTACK": {
		scanText:    "TLS endpoint negotiates OpenSSL/1.0.1e. Heartbleed-era build, downgrade possible.",
		weaponText:  "ARP spoof the gateway, then strip TLS on the redirected session.",
		attackName:  "ARP Spoof MITM",
		attackDesc:  "Poison the ARP cache and intercept the TLS session",
		damage:      17,
		analysis:    "Duplicate ARP replies for the gateway MAC. Interception likely.",
		counterText: "Pin certificates and enforce static ARP entries on critical hosts.",
		defenseName: "Certificate Pinning",
		defenseDesc: "Pinned certs with static ARP table",
		mitigation:  70,
	},
	"BUFFER_OVERFLOW": {
		scanText:    "HTTP header parser on :8080 copies User-Agent into a fixed 1024-byte buffer.",
		weaponText:  "Oversized header with NOP sled and shellcode overwrites the return address.",
		attackName:  "Header Overflow",
		attackDesc:  "Smash the header buffer and pivot to shellcode",
		damage:      31,
		analysis:    "Crash dumps show controlled EIP from oversized User-Agent strings.",
		counterText: "Enable stack canaries and bounds-check the header copy.",
		defenseName: "Stack Protection",
		defenseDesc: "Canaries plus bounds-checked parsing",
		mitigation:  75,
	},
}

// buildScript lays out the offline round: red scan, weaponize, proposal
// (pause), execute, then the blue mirror ending in a mitigated impact.
func buildScript(mission string) []simStep {
	txt, ok := missionTexts[mission]
	if !ok {
		txt = missionTexts["NETWORK_FLOOD"]
	}

	redRethink := protocol.NewAgentMessage("RED_COMMANDER", "Directive rejected. Re-evaluating attack vector...")
	blueRethink := protocol.NewAgentMessage("BLUE_COMMANDER", "Directive rejected. Reworking countermeasure...")

	return []simStep{
		{events: []protocol.Event{
			protocol.NewStateUpdate("RED_SCANNER", protocol.StatusThinking),
		}},
		{events: []protocol.Event{
			protocol.NewAgentMessage("RED_SCANNER", txt.scanText),
			protocol.NewStateUpdate("RED_SCANNER", protocol.StatusIdle),
			protocol.NewStateUpdate("RED_WEAPONIZER", protocol.StatusThinking),
		}},
		{events: []protocol.Event{
			protocol.NewAgentMessage("RED_WEAPONIZER", txt.weaponText),
			protocol.NewStateUpdate("RED_WEAPONIZER", protocol.StatusIdle),
			protocol.NewStateUpdate("RED_COMMANDER", protocol.StatusThinking),
		}},
		{
			events: []protocol.Event{
				protocol.NewProposal("RED", txt.attackName, txt.attackDesc),
			},
			pause:   true,
			rethink: &redRethink,
		},
		{events: []protocol.Event{
			protocol.NewAgentMessage("RED_COMMANDER", fmt.Sprintf("Authorized: %s", txt.attackName)),
			protocol.NewStateUpdate("RED_COMMANDER", protocol.StatusActing),
			protocol.NewImpact(txt.damage),
			protocol.NewStateUpdate("RED_COMMANDER", protocol.StatusIdle),
		}},
		{events: []protocol.Event{
			protocol.NewStateUpdate("BLUE_SCANNER", protocol.StatusThinking),
		}},
		{events: []protocol.Event{
			protocol.NewAgentMessage("BLUE_SCANNER", txt.analysis),
			protocol.NewStateUpdate("BLUE_SCANNER", protocol.StatusIdle),
			protocol.NewStateUpdate("BLUE_WEAPONIZER", protocol.StatusThinking),
		}},
		{events: []protocol.Event{
			protocol.NewAgentMessage("BLUE_WEAPONIZER", txt.counterText),
			protocol.NewStateUpdate("BLUE_WEAPONIZER", protocol.StatusIdle),
			protocol.NewStateUpdate("BLUE_COMMANDER", protocol.StatusThinking),
		}},
		{
			events: []protocol.Event{
				protocol.NewProposal("BLUE", txt.defenseName, txt.defenseDesc),
			},
			pause:   true,
			rethink: &blueRethink,
		},
		{events: []protocol.Event{
			protocol.NewAgentMessage("BLUE_COMMANDER", fmt.Sprintf("Deploying: %s", txt.defenseName)),
			protocol.NewDefendedImpact(0, txt.mitigation, txt.defenseDesc),
			protocol.NewStateUpdate("BLUE_COMMANDER", protocol.StatusIdle),
		}},
	}
}
