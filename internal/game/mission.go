package game

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"cyberarena/internal/intel"
	"cyberarena/internal/protocol"
)

// Mission type identifiers on the wire.
const (
	MissionNetworkFlood   = "NETWORK_FLOOD"
	MissionBufferOverflow = "BUFFER_OVERFLOW"
	MissionSQLInjection   = "SQL_INJECTION"
	MissionMITM           = "MITM_ATTACK"
)

// MissionInfo describes one scenario: its target, the MITRE techniques it
// exercises and the CVE the briefing references.
type MissionInfo struct {
	Type        string
	Target      string
	ScanText    string
	WeaponText  string
	Attack      AgentProposal
	AltAttack   AgentProposal
	Analysis    string
	CounterText string
	Defense     AgentProposal
	AltDefense  AgentProposal
	Techniques  []string
	CVE         string
}

// Missions is the scenario catalog, keyed by wire type.
var Missions = map[string]MissionInfo{
	MissionNetworkFlood: {
		Type:       MissionNetworkFlood,
		Target:     "Legacy web frontend at 192.168.1.40",
		ScanText:   "Target 192.168.1.40 exposes HTTP on :80 with no rate limiting. Flood-susceptible.",
		WeaponText: "UDP flood with 65507-byte payloads across 50 threads will saturate the link.",
		Attack: AgentProposal{
			AgentID: "RED_WEAPONIZER", AgentName: "Weaponizer",
			Action: "UDP Flood", Description: "Saturate the target link with maximum-size UDP datagrams",
			Confidence: 0.8, EstimatedImpact: 70, Personality: Aggressive,
		},
		AltAttack: AgentProposal{
			AgentID: "RED_SCANNER", AgentName: "Scanner",
			Action: "SYN Flood", Description: "Exhaust the connection table with half-open handshakes",
			Confidence: 0.6, EstimatedImpact: 55, Personality: Analytical,
		},
		Analysis:    "Inbound packet rate spiking 400x baseline. Signature matches volumetric DDoS.",
		CounterText: "Deploy per-IP rate limiting and SYN cookies at the edge.",
		Defense: AgentProposal{
			AgentID: "BLUE_WEAPONIZER", AgentName: "Weaponizer",
			Action: "Rate Limiter", Description: "Per-IP rate limiting with automated blacklisting",
			Confidence: 0.75, EstimatedImpact: 60, Personality: Analytical,
		},
		AltDefense: AgentProposal{
			AgentID: "BLUE_SCANNER", AgentName: "Scanner",
			Action: "Upstream Scrubbing", Description: "Divert traffic through a scrubbing center",
			Confidence: 0.55, EstimatedImpact: 50, Personality: Cautious,
		},
		Techniques: []string{"T1190"},
		CVE:        "CVE-2024-3400",
	},
	MissionBufferOverflow: {
		Type:       MissionBufferOverflow,
		Target:     "In-house HTTP parser on :8080",
		ScanText:   "HTTP header parser on :8080 copies User-Agent into a fixed 1024-byte buffer.",
		WeaponText: "Oversized header with NOP sled and shellcode overwrites the return address.",
		Attack: AgentProposal{
			AgentID: "RED_WEAPONIZER", AgentName: "Weaponizer",
			Action: "Header Overflow", Description: "Smash the header buffer and pivot to shellcode",
			Confidence: 0.7, EstimatedImpact: 80, Personality: Aggressive,
		},
		AltAttack: AgentProposal{
			AgentID: "RED_SCANNER", AgentName: "Scanner",
			Action: "Format String Probe", Description: "Leak stack contents through logging format strings",
			Confidence: 0.5, EstimatedImpact: 45, Personality: Analytical,
		},
		Analysis:    "Crash dumps show controlled EIP from oversized User-Agent strings.",
		CounterText: "Enable stack canaries and bounds-check the header copy.",
		Defense: AgentProposal{
			AgentID: "BLUE_WEAPONIZER", AgentName: "Weaponizer",
			Action: "Stack Protection", Description: "Canaries plus bounds-checked parsing",
			Confidence: 0.8, EstimatedImpact: 70, Personality: Analytical,
		},
		AltDefense: AgentProposal{
			AgentID: "BLUE_SCANNER", AgentName: "Scanner",
			Action: "Parser Sandbox", Description: "Run the parser in a seccomp sandbox",
			Confidence: 0.6, EstimatedImpact: 55, Personality: Cautious,
		},
		Techniques: []string{"T1190", "T1059"},
		CVE:        "CVE-2023-36884",
	},
	MissionSQLInjection: {
		Type:       MissionSQLInjection,
		Target:     "Customer portal login backed by MySQL 5.7",
		ScanText:   "Login form at /login passes unvalidated input to MySQL 5.7.31 on :3306.",
		WeaponText: "Classic tautology payload ' OR '1'='1' -- bypasses the credential check.",
		Attack: AgentProposal{
			AgentID: "RED_WEAPONIZER", AgentName: "Weaponizer",
			Action: "SQL Injection", Description: "Tautology injection against the login endpoint",
			Confidence: 0.85, EstimatedImpact: 75, Personality: Aggressive,
		},
		AltAttack: AgentProposal{
			AgentID: "RED_SCANNER", AgentName: "Scanner",
			Action: "Blind Boolean Probe", Description: "Extract rows through boolean response timing",
			Confidence: 0.6, EstimatedImpact: 50, Personality: Analytical,
		},
		Analysis:    "Query log shows quote-breaking input on the users table. Injection in progress.",
		CounterText: "Switch the login path to parameterized queries and strip SQL metacharacters.",
		Defense: AgentProposal{
			AgentID: "BLUE_WEAPONIZER", AgentName: "Weaponizer",
			Action: "Parameterized Queries", Description: "Prepared statements with input sanitization",
			Confidence: 0.9, EstimatedImpact: 80, Personality: Analytical,
		},
		AltDefense: AgentProposal{
			AgentID: "BLUE_SCANNER", AgentName: "Scanner",
			Action: "WAF Rules", Description: "Block known injection signatures at the gateway",
			Confidence: 0.65, EstimatedImpact: 60, Personality: Cautious,
		},
		Techniques: []string{"T1190"},
		CVE:        "CVE-2021-44228",
	},
	MissionMITM: {
		Type:       MissionMITM,
		Target:     "Branch office gateway with legacy TLS",
		ScanText:   "TLS endpoint negotiates OpenSSL/1.0.1e. Heartbleed-era build, downgrade possible.",
		WeaponText: "ARP spoof the gateway, then strip TLS on the redirected session.",
		Attack: AgentProposal{
			AgentID: "RED_WEAPONIZER", AgentName: "Weaponizer",
			Action: "ARP Spoof MITM", Description: "Poison the ARP cache and intercept the TLS session",
			Confidence: 0.65, EstimatedImpact: 55, Personality: Aggressive,
		},
		AltAttack: AgentProposal{
			AgentID: "RED_SCANNER", AgentName: "Scanner",
			Action: "DNS Cache Poisoning", Description: "Redirect the session at the resolver",
			Confidence: 0.5, EstimatedImpact: 45, Personality: Analytical,
		},
		Analysis:    "Duplicate ARP replies for the gateway MAC. Interception likely.",
		CounterText: "Pin certificates and enforce static ARP entries on critical hosts.",
		Defense: AgentProposal{
			AgentID: "BLUE_WEAPONIZER", AgentName: "Weaponizer",
			Action: "Certificate Pinning", Description: "Pinned certs with static ARP table",
			Confidence: 0.8, EstimatedImpact: 65, Personality: Analytical,
		},
		AltDefense: AgentProposal{
			AgentID: "BLUE_SCANNER", AgentName: "Scanner",
			Action: "Mutual TLS", Description: "Require client certificates on the gateway",
			Confidence: 0.6, EstimatedImpact: 55, Personality: Cautious,
		},
		Techniques: []string{"T1557", "T1552"},
		CVE:        "CVE-2023-4966",
	},
}

// MissionOrDefault resolves a wire mission type, falling back to the
// network flood scenario for unknown values.
func MissionOrDefault(mission string) MissionInfo {
	if m, ok := Missions[mission]; ok {
		return m
	}
	return Missions[MissionNetworkFlood]
}

// Emitter receives the events a running round produces, in order.
type Emitter interface {
	Emit(ev protocol.Event)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ev protocol.Event)

func (f EmitterFunc) Emit(ev protocol.Event) { f(ev) }

const defaultThinkDelay = 1200 * time.Millisecond

// Engine drives rounds and answers the summary, code and explanation
// commands from the state of the last round it ran.
type Engine struct {
	mu      sync.Mutex
	roster  *Roster
	record  *TrackRecord
	luck    Luck
	think   time.Duration
	cves    *intel.CVEDatabase
	mitre   *intel.MITREDatabase

	running   bool
	mission   MissionInfo
	gateOpen  bool
	decisions chan bool
	stop      chan struct{}

	lastAttack  AgentProposal
	lastDefense AgentProposal
	lastDamage  int
	lastVotes   map[string]VoteResult // by team
}

// EngineOption tweaks an Engine at construction.
type EngineOption func(*Engine)

// WithThinkDelay overrides the pause between agent turns.
func WithThinkDelay(d time.Duration) EngineOption {
	return func(e *Engine) { e.think = d }
}

// WithLuck injects the randomness source used for impact resolution.
func WithLuck(l Luck) EngineOption {
	return func(e *Engine) { e.luck = l }
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		roster:    NewRoster(DefaultRoster),
		record:    NewTrackRecord(),
		luck:      DefaultLuck,
		think:     defaultThinkDelay,
		cves:      intel.NewCVEDatabase(),
		mitre:     intel.NewMITREDatabase(),
		decisions: make(chan bool, 1),
		stop:      make(chan struct{}),
		lastVotes: make(map[string]VoteResult),
		mission:   Missions[MissionNetworkFlood],
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Shutdown aborts any round in flight. The engine cannot be reused after.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	select {
	case <-e.stop:
	default:
		close(e.stop)
	}
}

// Running reports whether a round is in flight.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Decide resolves the pending proposal gate. Decisions with no gate open
// are dropped, so a stale double-click cannot pre-approve the next
// proposal.
func (e *Engine) Decide(approved bool) {
	e.mu.Lock()
	open := e.gateOpen
	e.gateOpen = false
	e.mu.Unlock()
	if !open {
		log.Printf("[engine] decision with no proposal pending, dropped")
		return
	}
	// The gate flag admits at most one decision per gate, so the
	// buffered send cannot block.
	e.decisions <- approved
}

// claim reserves the engine for one round and pins the mission.
func (e *Engine) claim(mission string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return false
	}
	e.running = true
	e.mission = MissionOrDefault(mission)
	return true
}

// Run plays one full round for the mission, emitting events in order.
// It blocks until the round completes or the engine shuts down; callers
// run it on its own goroutine. A round already in flight makes Run a no-op.
func (e *Engine) Run(mission string, out Emitter) {
	if !e.claim(mission) {
		log.Printf("[engine] round already in flight, ignoring start")
		return
	}
	e.play(out)
}

// TryRun claims the engine before returning, then plays the round on its
// own goroutine. The synchronous claim lets callers set up journaling
// without racing a second start.
func (e *Engine) TryRun(mission string, out Emitter) bool {
	if !e.claim(mission) {
		return false
	}
	go e.play(out)
	return true
}

func (e *Engine) play(out Emitter) {
	e.mu.Lock()
	m := e.mission
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	log.Printf("[engine] round start: %s against %s", m.Type, m.Target)

	// Red turn: scan, weaponize, then the commander's proposal gate.
	if !e.agentTurn(out, "RED_SCANNER", m.ScanText) {
		return
	}
	if !e.agentTurn(out, "RED_WEAPONIZER", m.WeaponText) {
		return
	}

	attack, approved, ok := e.proposalGate(out, "RED", "RED_COMMANDER", m.Attack, m.AltAttack)
	if !ok {
		return
	}
	e.record.Record(attack.AgentID, attack.Confidence, approved)

	damage := e.scaledDamage(attack)
	out.Emit(protocol.NewAgentMessage("RED_COMMANDER", fmt.Sprintf("Authorized: %s", attack.Action)))
	out.Emit(protocol.NewStateUpdate("RED_COMMANDER", protocol.StatusActing))
	out.Emit(protocol.NewImpact(damage))
	out.Emit(protocol.NewStateUpdate("RED_COMMANDER", protocol.StatusIdle))

	// Blue turn mirrors red, ending in the mitigated resolution.
	if !e.agentTurn(out, "BLUE_SCANNER", m.Analysis) {
		return
	}
	if !e.agentTurn(out, "BLUE_WEAPONIZER", m.CounterText) {
		return
	}

	defense, approved, ok := e.proposalGate(out, "BLUE", "BLUE_COMMANDER", m.Defense, m.AltDefense)
	if !ok {
		return
	}
	e.record.Record(defense.AgentID, defense.Confidence, approved)

	mitigation := e.scaledMitigation(defense)
	final := ResolveImpact(damage, mitigation, e.luck)

	out.Emit(protocol.NewAgentMessage("BLUE_COMMANDER", fmt.Sprintf("Deploying: %s", defense.Action)))
	out.Emit(protocol.NewDefendedImpact(final, mitigation, defense.Description))
	out.Emit(protocol.NewStateUpdate("BLUE_COMMANDER", protocol.StatusIdle))

	e.mu.Lock()
	e.lastAttack = attack
	e.lastDefense = defense
	e.lastDamage = final
	e.mu.Unlock()

	log.Printf("[engine] round complete: %s vs %s, %d damage landed", attack.Action, defense.Action, final)
}

// agentTurn emits the THINKING, message, IDLE triple for one agent. It
// reports false when the engine shut down mid-turn.
func (e *Engine) agentTurn(out Emitter, agentID, text string) bool {
	out.Emit(protocol.NewStateUpdate(agentID, protocol.StatusThinking))
	if !e.pause() {
		return false
	}
	out.Emit(protocol.NewAgentMessage(agentID, text))
	out.Emit(protocol.NewStateUpdate(agentID, protocol.StatusIdle))
	return true
}

// proposalGate runs the weighted vote, surfaces the winner as a PROPOSAL
// and blocks until the human decides. A rejection switches to the
// runner-up, announced through the commander's rethink message.
func (e *Engine) proposalGate(out Emitter, team, commander string, primary, alternate AgentProposal) (AgentProposal, bool, bool) {
	out.Emit(protocol.NewStateUpdate(commander, protocol.StatusThinking))

	vote, _ := Vote([]AgentProposal{primary, alternate}, e.record)
	e.mu.Lock()
	e.lastVotes[team] = vote
	e.mu.Unlock()

	chosen := vote.Winner
	e.openGate()
	out.Emit(protocol.NewProposal(team, chosen.Action, chosen.Description))

	approved, ok := e.awaitDecision()
	if !ok {
		return AgentProposal{}, false, false
	}
	if !approved {
		out.Emit(protocol.NewAgentMessage(commander, "Directive rejected. Re-evaluating options..."))
		if chosen.AgentID == primary.AgentID {
			chosen = alternate
		} else {
			chosen = primary
		}
		e.openGate()
		out.Emit(protocol.NewProposal(team, chosen.Action, chosen.Description))
		approved, ok = e.awaitDecision()
		if !ok {
			return AgentProposal{}, false, false
		}
		// Second rejection proceeds anyway; the bench is empty.
	}
	return chosen, approved, true
}

// openGate arms the decision gate before the proposal goes out, so a
// decision sent the moment the client sees the proposal is never dropped.
func (e *Engine) openGate() {
	e.mu.Lock()
	e.gateOpen = true
	e.mu.Unlock()
}

func (e *Engine) awaitDecision() (bool, bool) {
	select {
	case approved := <-e.decisions:
		return approved, true
	case <-e.stop:
		e.mu.Lock()
		e.gateOpen = false
		e.mu.Unlock()
		return false, false
	}
}

func (e *Engine) pause() bool {
	select {
	case <-time.After(e.think):
		return true
	case <-e.stop:
		return false
	}
}

func (e *Engine) scaledDamage(p AgentProposal) int {
	return int(p.EstimatedImpact * Profile(p.Personality).DamageModifier * 0.4)
}

func (e *Engine) scaledMitigation(p AgentProposal) int {
	return int(p.EstimatedImpact * Profile(p.Personality).DefenseModifier * 0.4)
}

// Summary builds the team debrief for a SUMMARIZE command.
func (e *Engine) Summary(team string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	vote, ok := e.lastVotes[team]
	if !ok {
		var names []string
		for _, a := range e.roster.Team(team) {
			names = append(names, a.Name)
		}
		return fmt.Sprintf("%s team (%s) has not completed a round yet.",
			team, strings.Join(names, ", "))
	}
	if team == "BLUE" {
		return fmt.Sprintf(
			"BLUE team deployed %s (%s) with %.0f%% consensus. Final damage absorbed down to %d.",
			e.lastDefense.Action, e.lastDefense.Description, vote.Consensus*100, e.lastDamage)
	}
	return fmt.Sprintf(
		"RED team executed %s (%s) with %.0f%% consensus. %d damage landed on the target.",
		e.lastAttack.Action, e.lastAttack.Description, vote.Consensus*100, e.lastDamage)
}

// Explain builds the educational brief for the current mission, drawing
// on the MITRE technique set and the referenced CVE.
func (e *Engine) Explain() string {
	e.mu.Lock()
	m := e.mission
	e.mu.Unlock()

	text := fmt.Sprintf("Mission %s targets %s.\n", m.Type, m.Target)
	for _, id := range m.Techniques {
		if tech, ok := e.mitre.Technique(id); ok {
			text += fmt.Sprintf("%s %s (%s): %s Mitigation: %s\n",
				tech.ID, tech.Name, tech.Tactic, tech.Description, tech.Mitigation)
		}
	}
	if cve, ok := e.cves.Get(m.CVE); ok {
		text += fmt.Sprintf("Related advisory %s (CVSS %.1f): %s",
			cve.ID, cve.CVSSScore, cve.Description)
	}
	return text
}

// Code returns the sample script for the current mission and team.
func (e *Engine) Code(team string) protocol.CodeResponse {
	e.mu.Lock()
	mission := e.mission.Type
	e.mu.Unlock()
	return CodeResponse(team, mission)
}
