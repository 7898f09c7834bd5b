// Package game runs the red-versus-blue arena round: the agent roster,
// proposal voting, impact resolution and the mission engine that emits
// the event stream clients consume.
package game

// Personality shapes how an agent scores proposals and how hard its
// attacks and defenses land.
type Personality string

const (
	Aggressive Personality = "aggressive"
	Cautious   Personality = "cautious"
	Innovative Personality = "innovative"
	Analytical Personality = "analytical"
	Strategic  Personality = "strategic"
)

// PersonalityProfile carries the numeric modifiers a personality applies.
type PersonalityProfile struct {
	RiskTolerance   float64
	ConfidenceBias  float64
	DamageModifier  float64
	DefenseModifier float64
	Description     string
}

var personalityProfiles = map[Personality]PersonalityProfile{
	Aggressive: {
		RiskTolerance:   0.9,
		ConfidenceBias:  0.15,
		DamageModifier:  1.3,
		DefenseModifier: 0.8,
		Description:     "Favors high-impact, high-risk strategies",
	},
	Cautious: {
		RiskTolerance:   0.3,
		ConfidenceBias:  -0.1,
		DamageModifier:  0.85,
		DefenseModifier: 1.25,
		Description:     "Prefers proven, low-risk methods",
	},
	Innovative: {
		RiskTolerance:   0.7,
		ConfidenceBias:  0.05,
		DamageModifier:  1.1,
		DefenseModifier: 1.0,
		Description:     "Explores novel zero-day approaches",
	},
	Analytical: {
		RiskTolerance:   0.5,
		ConfidenceBias:  0.0,
		DamageModifier:  1.0,
		DefenseModifier: 1.1,
		Description:     "Data-driven, evidence-based decisions",
	},
	Strategic: {
		RiskTolerance:   0.6,
		ConfidenceBias:  0.05,
		DamageModifier:  1.05,
		DefenseModifier: 1.15,
		Description:     "Long-term planning with chained attacks",
	},
}

// Profile returns the modifiers for a personality, defaulting to the
// analytical profile for unknown values.
func Profile(p Personality) PersonalityProfile {
	if prof, ok := personalityProfiles[p]; ok {
		return prof
	}
	return personalityProfiles[Analytical]
}

// Agent is one roster entry. The ID doubles as the agent key on the wire.
type Agent struct {
	ID          string
	Name        string
	Team        string
	Personality Personality
}

// DefaultRoster is the standing arena lineup.
var DefaultRoster = []Agent{
	{ID: "RED_SCANNER", Name: "Scanner", Team: "RED", Personality: Analytical},
	{ID: "RED_WEAPONIZER", Name: "Weaponizer", Team: "RED", Personality: Aggressive},
	{ID: "RED_COMMANDER", Name: "Commander", Team: "RED", Personality: Strategic},
	{ID: "BLUE_SCANNER", Name: "Scanner", Team: "BLUE", Personality: Cautious},
	{ID: "BLUE_WEAPONIZER", Name: "Weaponizer", Team: "BLUE", Personality: Analytical},
	{ID: "BLUE_COMMANDER", Name: "Commander", Team: "BLUE", Personality: Strategic},
}

// Roster wraps the agent list with team and ID lookups.
type Roster struct {
	agents []Agent
	byID   map[string]Agent
}

func NewRoster(agents []Agent) *Roster {
	r := &Roster{agents: agents, byID: make(map[string]Agent, len(agents))}
	for _, a := range agents {
		r.byID[a.ID] = a
	}
	return r
}

func (r *Roster) Get(id string) (Agent, bool) {
	a, ok := r.byID[id]
	return a, ok
}

func (r *Roster) Team(team string) []Agent {
	var out []Agent
	for _, a := range r.agents {
		if a.Team == team {
			out = append(out, a)
		}
	}
	return out
}
