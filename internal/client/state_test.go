package client

import (
	"testing"

	"cyberarena/internal/protocol"
)

func TestReduce_LatestStatusPerAgentWins(t *testing.T) {
	st := newGameState()

	reduce(&st, protocol.NewStateUpdate("RED_SCANNER", protocol.StatusThinking))
	reduce(&st, protocol.NewStateUpdate("BLUE_SCANNER", protocol.StatusIdle))
	reduce(&st, protocol.NewStateUpdate("RED_SCANNER", protocol.StatusActing))

	if got := st.Statuses["RED_SCANNER"]; got != protocol.StatusActing {
		t.Fatalf("expected RED_SCANNER status ACTING, got %s", got)
	}
	if got := st.Statuses["BLUE_SCANNER"]; got != protocol.StatusIdle {
		t.Fatalf("expected BLUE_SCANNER status IDLE, got %s", got)
	}
}

func TestReduce_MessageOverwritesPerAgent(t *testing.T) {
	st := newGameState()

	reduce(&st, protocol.NewAgentMessage("RED_SCANNER", "first finding"))
	reduce(&st, protocol.NewAgentMessage("RED_SCANNER", "second finding"))
	reduce(&st, protocol.NewAgentMessage("BLUE_SCANNER", "analysis"))

	if len(st.Messages) != 2 {
		t.Fatalf("expected 2 message slots, got %d", len(st.Messages))
	}
	if got := st.Messages["RED_SCANNER"]; got != "second finding" {
		t.Fatalf("expected latest message to win, got %q", got)
	}
}

func TestReduce_HealthDecreasesAndClampsAtZero(t *testing.T) {
	st := newGameState()

	if st.Health != 100 {
		t.Fatalf("expected initial health 100, got %d", st.Health)
	}

	hit := reduce(&st, protocol.NewImpact(30))
	if !hit {
		t.Fatalf("expected damage to report a hit")
	}
	if st.Health != 70 {
		t.Fatalf("expected health 70 after 30 damage, got %d", st.Health)
	}

	reduce(&st, protocol.NewImpact(200))
	if st.Health != 0 {
		t.Fatalf("expected health clamped at 0, got %d", st.Health)
	}

	reduce(&st, protocol.NewImpact(10))
	if st.Health != 0 {
		t.Fatalf("expected health to stay at 0, got %d", st.Health)
	}
}

func TestReduce_ZeroDamageIsNotAHit(t *testing.T) {
	st := newGameState()

	hit := reduce(&st, protocol.NewDefendedImpact(0, 80, "prepared statements"))
	if hit {
		t.Fatalf("zero damage must not trigger the hit pulse")
	}
	if st.Health != 100 {
		t.Fatalf("expected health untouched, got %d", st.Health)
	}
	if st.MitigationScore != 80 {
		t.Fatalf("expected mitigation score 80, got %d", st.MitigationScore)
	}
	if st.DefenseDesc != "prepared statements" {
		t.Fatalf("expected defense description recorded, got %q", st.DefenseDesc)
	}
}

func TestReduce_ImpactWithoutMitigationKeepsPrior(t *testing.T) {
	st := newGameState()

	reduce(&st, protocol.NewDefendedImpact(5, 70, "rate limiter"))
	reduce(&st, protocol.NewImpact(10))

	if st.MitigationScore != 70 {
		t.Fatalf("plain impact must not reset mitigation, got %d", st.MitigationScore)
	}
	if st.DefenseDesc != "rate limiter" {
		t.Fatalf("plain impact must not reset defense description, got %q", st.DefenseDesc)
	}
}

func TestReduce_ProposalIsSingleSlot(t *testing.T) {
	st := newGameState()

	reduce(&st, protocol.NewProposal("RED", "UDP Flood", "saturate the link"))
	reduce(&st, protocol.NewProposal("BLUE", "Rate Limiter", "per-IP limits"))

	if st.Proposal == nil {
		t.Fatalf("expected a pending proposal")
	}
	if st.Proposal.Team != "BLUE" || st.Proposal.Action != "Rate Limiter" {
		t.Fatalf("expected the newer proposal to replace the older, got %+v", st.Proposal)
	}
}

func TestReduce_CodeAndEducationalContent(t *testing.T) {
	st := newGameState()

	reduce(&st, protocol.NewCodeResponse("RED", "print('x')", "Exploit", "poc"))
	reduce(&st, protocol.NewEducationalResponse("UDP floods overwhelm link capacity."))

	if st.CodeData == nil || st.CodeData.Title != "Exploit" {
		t.Fatalf("expected code payload stored, got %+v", st.CodeData)
	}
	if st.EducationalContent == "" {
		t.Fatalf("expected educational content stored")
	}
}

func TestClone_IsolatedFromOriginal(t *testing.T) {
	st := newGameState()
	reduce(&st, protocol.NewAgentMessage("RED_SCANNER", "finding"))
	reduce(&st, protocol.NewProposal("RED", "UDP Flood", "desc"))

	cp := st.clone()
	cp.Messages["RED_SCANNER"] = "mutated"
	cp.Proposal.Action = "mutated"

	if st.Messages["RED_SCANNER"] != "finding" {
		t.Fatalf("clone mutation leaked into original messages")
	}
	if st.Proposal.Action != "UDP Flood" {
		t.Fatalf("clone mutation leaked into original proposal")
	}
}
