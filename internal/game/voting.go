package game

import "sort"

// AgentProposal is one agent's candidate move put up for the weighted vote.
type AgentProposal struct {
	AgentID         string
	AgentName       string
	Action          string
	Description     string
	Confidence      float64 // [0, 1]
	EstimatedImpact float64 // expected damage or mitigation, [0, 100]
	Personality     Personality
}

// VoteResult ranks the proposals and reports how decisively the winner won.
type VoteResult struct {
	Winner       AgentProposal
	Scores       map[string]float64 // by agent ID
	Consensus    float64            // winner's share of the total score, [0, 1]
	Distribution map[string]float64 // percentage share by agent name
}

// weight split between the scoring inputs
const (
	performanceWeight = 0.25
	confidenceWeight  = 0.35
	calibrationWeight = 0.20
	specializeWeight  = 0.20
)

// Vote scores each proposal by its confidence (personality-biased), the
// proposing agent's track record, and the estimated impact, then picks
// the highest. Agents without history score from the 0.5 neutral baseline.
func Vote(proposals []AgentProposal, history *TrackRecord) (VoteResult, bool) {
	if len(proposals) == 0 {
		return VoteResult{}, false
	}

	type scored struct {
		p     AgentProposal
		score float64
	}
	ranked := make([]scored, 0, len(proposals))
	total := 0.0

	for _, p := range proposals {
		prof := Profile(p.Personality)

		performance := 0.5
		calibration := 0.5
		specialization := 0.0
		if history != nil {
			performance = history.SuccessRate(p.AgentID)
			calibration = history.Calibration(p.AgentID)
			specialization = history.Specialization(p.AgentID)
		}

		confidence := p.Confidence + prof.ConfidenceBias
		if confidence > 1.0 {
			confidence = 1.0
		}
		if confidence < 0.1 {
			confidence = 0.1
		}

		score := (performance*performanceWeight +
			confidence*confidenceWeight +
			calibration*calibrationWeight +
			specialization*specializeWeight) * p.EstimatedImpact

		ranked = append(ranked, scored{p: p, score: score})
		total += score
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	result := VoteResult{
		Winner:       ranked[0].p,
		Scores:       make(map[string]float64, len(ranked)),
		Distribution: make(map[string]float64, len(ranked)),
	}
	for _, s := range ranked {
		result.Scores[s.p.AgentID] = s.score
		if total > 0 {
			result.Distribution[s.p.AgentName] = s.score / total * 100
		}
	}
	if total > 0 {
		result.Consensus = ranked[0].score / total
	}
	return result, true
}

// TrackRecord accumulates per-agent outcomes across rounds and feeds the
// weighted vote. Not safe for concurrent use; the engine owns it.
type TrackRecord struct {
	stats map[string]*agentStats
}

type agentStats struct {
	missions       int
	successes      int
	calibrationSum float64
	calibrationN   int
	specWins       int
}

func NewTrackRecord() *TrackRecord {
	return &TrackRecord{stats: make(map[string]*agentStats)}
}

func (tr *TrackRecord) stat(agentID string) *agentStats {
	s, ok := tr.stats[agentID]
	if !ok {
		s = &agentStats{}
		tr.stats[agentID] = s
	}
	return s
}

// Record notes a mission outcome for an agent. Calibration rewards
// confidence that matched the result: confident successes and humble
// failures score high, overconfident failures score low.
func (tr *TrackRecord) Record(agentID string, confidence float64, success bool) {
	s := tr.stat(agentID)
	s.missions++
	if success {
		s.successes++
		s.specWins++
		s.calibrationSum += confidence
	} else {
		s.calibrationSum += 1 - confidence
	}
	s.calibrationN++
}

func (tr *TrackRecord) SuccessRate(agentID string) float64 {
	s, ok := tr.stats[agentID]
	if !ok || s.missions == 0 {
		return 0.5
	}
	return float64(s.successes) / float64(s.missions)
}

func (tr *TrackRecord) Calibration(agentID string) float64 {
	s, ok := tr.stats[agentID]
	if !ok || s.calibrationN == 0 {
		return 0.5
	}
	return s.calibrationSum / float64(s.calibrationN)
}

// Specialization grows with wins, capped at 1.
func (tr *TrackRecord) Specialization(agentID string) float64 {
	s, ok := tr.stats[agentID]
	if !ok {
		return 0
	}
	bonus := float64(s.specWins) * 0.1
	if bonus > 1 {
		bonus = 1
	}
	return bonus
}
