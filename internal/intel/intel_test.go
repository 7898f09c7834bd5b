package intel

import "testing"

func TestCVESearch_MatchesIDDescriptionAndProduct(t *testing.T) {
	db := NewCVEDatabase()

	byID := db.Search("2021-44228")
	if len(byID) != 1 || byID[0].ID != "CVE-2021-44228" {
		t.Fatalf("expected Log4Shell by ID, got %+v", byID)
	}

	byDesc := db.Search("log4j")
	if len(byDesc) != 1 {
		t.Fatalf("expected 1 result for log4j, got %d", len(byDesc))
	}

	byProduct := db.Search("confluence")
	if len(byProduct) != 1 || byProduct[0].ID != "CVE-2023-22515" {
		t.Fatalf("expected Confluence CVE by product, got %+v", byProduct)
	}

	if got := db.Search("no-such-thing"); len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

func TestCVEBySeverity(t *testing.T) {
	db := NewCVEDatabase()

	crit := db.BySeverity("critical")
	if len(crit) != 3 {
		t.Fatalf("expected 3 critical CVEs, got %d", len(crit))
	}
	for _, cve := range crit {
		if cve.Severity != "CRITICAL" {
			t.Fatalf("severity filter leaked %s", cve.ID)
		}
	}
}

func TestCVEByTechnique(t *testing.T) {
	db := NewCVEDatabase()

	linked := db.ByTechnique("T1190")
	if len(linked) != 2 {
		t.Fatalf("expected 2 CVEs under T1190, got %d", len(linked))
	}
}

func TestMITRETechniqueLookup(t *testing.T) {
	db := NewMITREDatabase()

	tech, ok := db.Technique("T1190")
	if !ok {
		t.Fatalf("T1190 missing")
	}
	if tech.Tactic != "Initial Access" {
		t.Fatalf("expected Initial Access, got %s", tech.Tactic)
	}

	if _, ok := db.Technique("T9999"); ok {
		t.Fatalf("unknown technique must not resolve")
	}
}

func TestMITREByTacticIsCaseInsensitive(t *testing.T) {
	db := NewMITREDatabase()

	got := db.ByTactic("initial access")
	if len(got) != 2 {
		t.Fatalf("expected 2 Initial Access techniques, got %d", len(got))
	}
}

func TestMITREAttackPathDropsUnknownIDs(t *testing.T) {
	db := NewMITREDatabase()

	path := db.AttackPath([]string{"T1190", "T1059", "T9999"})
	if len(path["Initial Access"]) != 1 || len(path["Execution"]) != 1 {
		t.Fatalf("unexpected grouping: %+v", path)
	}
	if len(path) != 2 {
		t.Fatalf("unknown ID leaked into path: %+v", path)
	}
}
