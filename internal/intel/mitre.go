package intel

import "strings"

// Technique is one MITRE ATT&CK technique.
type Technique struct {
	ID            string
	Name          string
	Tactic        string
	Description   string
	Platforms     []string
	Detection     string
	Mitigation    string
	DataSources   []string
	SubTechniques []string
	URL           string
}

// Tactics lists the ATT&CK tactics in kill-chain order.
var Tactics = []string{
	"Reconnaissance", "Resource Development", "Initial Access",
	"Execution", "Persistence", "Privilege Escalation",
	"Defense Evasion", "Credential Access", "Discovery",
	"Lateral Movement", "Collection", "Command and Control",
	"Exfiltration", "Impact",
}

// MITREDatabase indexes the sample technique set by ID.
type MITREDatabase struct {
	techniques map[string]Technique
}

func NewMITREDatabase() *MITREDatabase {
	db := &MITREDatabase{techniques: make(map[string]Technique)}
	for _, t := range sampleTechniques {
		db.techniques[t.ID] = t
	}
	return db
}

func (db *MITREDatabase) Technique(id string) (Technique, bool) {
	t, ok := db.techniques[id]
	return t, ok
}

func (db *MITREDatabase) ByTactic(tactic string) []Technique {
	var out []Technique
	for _, t := range db.techniques {
		if strings.EqualFold(t.Tactic, tactic) {
			out = append(out, t)
		}
	}
	return out
}

// AttackPath groups the given technique IDs by tactic, in kill-chain
// order, dropping tactics with no matching technique.
func (db *MITREDatabase) AttackPath(ids []string) map[string][]Technique {
	out := make(map[string][]Technique)
	for _, id := range ids {
		if t, ok := db.techniques[id]; ok {
			out[t.Tactic] = append(out[t.Tactic], t)
		}
	}
	return out
}

var sampleTechniques = []Technique{
	{
		ID:            "T1190",
		Name:          "Exploit Public-Facing Application",
		Tactic:        "Initial Access",
		Description:   "Adversaries may attempt to exploit a weakness in an Internet-facing host or system to initially access a network.",
		Platforms:     []string{"Windows", "Linux", "macOS", "Containers"},
		Detection:     "Monitor application logs for abnormal behavior",
		Mitigation:    "Application isolation, network segmentation, vulnerability scanning",
		DataSources:   []string{"Application Log", "Network Traffic"},
		URL:           "https://attack.mitre.org/techniques/T1190/",
	},
	{
		ID:            "T1566",
		Name:          "Phishing",
		Tactic:        "Initial Access",
		Description:   "Adversaries may send phishing messages to gain access to victim systems.",
		Platforms:     []string{"Windows", "Linux", "macOS"},
		Detection:     "Monitor email gateways and user behavior",
		Mitigation:    "User training, email filtering, sandboxing",
		DataSources:   []string{"Email Gateway", "File Creation"},
		SubTechniques: []string{"T1566.001", "T1566.002", "T1566.003"},
		URL:           "https://attack.mitre.org/techniques/T1566/",
	},
	{
		ID:            "T1059",
		Name:          "Command and Scripting Interpreter",
		Tactic:        "Execution",
		Description:   "Adversaries may abuse command and script interpreters to execute commands.",
		Platforms:     []string{"Windows", "Linux", "macOS"},
		Detection:     "Monitor process execution and command-line arguments",
		Mitigation:    "Disable unnecessary scripting, application whitelisting",
		DataSources:   []string{"Process", "Command"},
		SubTechniques: []string{"T1059.001", "T1059.003", "T1059.007"},
		URL:           "https://attack.mitre.org/techniques/T1059/",
	},
	{
		ID:            "T1078",
		Name:          "Valid Accounts",
		Tactic:        "Defense Evasion",
		Description:   "Adversaries may obtain and abuse credentials of existing accounts.",
		Platforms:     []string{"Windows", "Linux", "macOS", "Cloud"},
		Detection:     "Monitor authentication logs for anomalies",
		Mitigation:    "MFA, privileged account management",
		DataSources:   []string{"Authentication Log", "User Account"},
		SubTechniques: []string{"T1078.001", "T1078.002", "T1078.003", "T1078.004"},
		URL:           "https://attack.mitre.org/techniques/T1078/",
	},
	{
		ID:            "T1552",
		Name:          "Unsecured Credentials",
		Tactic:        "Credential Access",
		Description:   "Adversaries may search compromised systems to find and obtain insecurely stored credentials.",
		Platforms:     []string{"Windows", "Linux", "macOS", "Containers"},
		Detection:     "Monitor file access to credential stores",
		Mitigation:    "Encrypt sensitive information, use credential managers",
		DataSources:   []string{"File Access", "Process"},
		SubTechniques: []string{"T1552.001", "T1552.004", "T1552.006"},
		URL:           "https://attack.mitre.org/techniques/T1552/",
	},
	{
		ID:            "T1021",
		Name:          "Remote Services",
		Tactic:        "Lateral Movement",
		Description:   "Adversaries may use valid accounts to log into remote services.",
		Platforms:     []string{"Windows", "Linux", "macOS"},
		Detection:     "Monitor remote login events",
		Mitigation:    "MFA, network segmentation, limit remote access",
		DataSources:   []string{"Authentication Log", "Network Connection"},
		SubTechniques: []string{"T1021.001", "T1021.002", "T1021.004"},
		URL:           "https://attack.mitre.org/techniques/T1021/",
	},
}
