// Package intel holds the curated threat intelligence the arena draws on:
// a CVE sample set and the MITRE ATT&CK techniques they map to. The data
// is static; lookups never touch the network.
package intel

import "strings"

// CVE is one Common Vulnerabilities and Exposures entry.
type CVE struct {
	ID               string
	Description      string
	Severity         string // CRITICAL, HIGH, MEDIUM, LOW
	CVSSScore        float64
	CVSSVector       string
	AffectedProducts []string
	Published        string
	Modified         string
	Exploitability   string // unproven, poc, active
	PatchAvailable   bool
	Techniques       []string
}

// CVEDatabase indexes the sample CVE set by ID.
type CVEDatabase struct {
	entries map[string]CVE
}

func NewCVEDatabase() *CVEDatabase {
	db := &CVEDatabase{entries: make(map[string]CVE)}
	for _, cve := range sampleCVEs {
		db.entries[cve.ID] = cve
	}
	return db
}

// Search matches the query against IDs, descriptions and affected
// products, case-insensitively.
func (db *CVEDatabase) Search(query string) []CVE {
	query = strings.ToLower(query)
	var out []CVE
	for _, cve := range db.entries {
		if strings.Contains(strings.ToLower(cve.ID), query) ||
			strings.Contains(strings.ToLower(cve.Description), query) {
			out = append(out, cve)
			continue
		}
		for _, p := range cve.AffectedProducts {
			if strings.Contains(strings.ToLower(p), query) {
				out = append(out, cve)
				break
			}
		}
	}
	return out
}

func (db *CVEDatabase) Get(id string) (CVE, bool) {
	cve, ok := db.entries[id]
	return cve, ok
}

func (db *CVEDatabase) BySeverity(severity string) []CVE {
	severity = strings.ToUpper(severity)
	var out []CVE
	for _, cve := range db.entries {
		if cve.Severity == severity {
			out = append(out, cve)
		}
	}
	return out
}

// ByTechnique returns the CVEs associated with a MITRE technique ID.
func (db *CVEDatabase) ByTechnique(techniqueID string) []CVE {
	var out []CVE
	for _, cve := range db.entries {
		for _, t := range cve.Techniques {
			if t == techniqueID {
				out = append(out, cve)
				break
			}
		}
	}
	return out
}

var sampleCVEs = []CVE{
	{
		ID:               "CVE-2021-44228",
		Description:      "Apache Log4j2 Remote Code Execution (Log4Shell)",
		Severity:         "CRITICAL",
		CVSSScore:        10.0,
		CVSSVector:       "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:C/C:H/I:H/A:H",
		AffectedProducts: []string{"Apache Log4j 2.x < 2.15.0"},
		Published:        "2021-12-10",
		Modified:         "2023-04-03",
		Exploitability:   "active",
		PatchAvailable:   true,
		Techniques:       []string{"T1190", "T1059"},
	},
	{
		ID:               "CVE-2023-22515",
		Description:      "Atlassian Confluence Broken Access Control",
		Severity:         "CRITICAL",
		CVSSScore:        10.0,
		CVSSVector:       "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:C/C:H/I:H/A:H",
		AffectedProducts: []string{"Atlassian Confluence < 8.3.3"},
		Published:        "2023-10-04",
		Modified:         "2023-10-16",
		Exploitability:   "active",
		PatchAvailable:   true,
		Techniques:       []string{"T1078"},
	},
	{
		ID:               "CVE-2024-3400",
		Description:      "Palo Alto Networks PAN-OS Command Injection",
		Severity:         "CRITICAL",
		CVSSScore:        10.0,
		CVSSVector:       "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:C/C:H/I:H/A:H",
		AffectedProducts: []string{"PAN-OS 10.2, 11.0, 11.1"},
		Published:        "2024-04-12",
		Modified:         "2024-04-15",
		Exploitability:   "active",
		PatchAvailable:   true,
		Techniques:       []string{"T1059", "T1190"},
	},
	{
		ID:               "CVE-2023-4966",
		Description:      "Citrix NetScaler Information Disclosure (Citrix Bleed)",
		Severity:         "HIGH",
		CVSSScore:        9.4,
		CVSSVector:       "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:L",
		AffectedProducts: []string{"Citrix NetScaler ADC, Gateway"},
		Published:        "2023-10-10",
		Modified:         "2023-11-21",
		Exploitability:   "active",
		PatchAvailable:   true,
		Techniques:       []string{"T1552"},
	},
	{
		ID:               "CVE-2023-36884",
		Description:      "Microsoft Office Remote Code Execution",
		Severity:         "HIGH",
		CVSSScore:        8.8,
		CVSSVector:       "CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:U/C:H/I:H/A:H",
		AffectedProducts: []string{"Microsoft Office 2019, 2021"},
		Published:        "2023-07-11",
		Modified:         "2023-08-08",
		Exploitability:   "active",
		PatchAvailable:   true,
		Techniques:       []string{"T1203", "T1566.001"},
	},
}
