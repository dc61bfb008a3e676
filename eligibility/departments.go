// Package eligibility implements the team composition rules for the event:
// rosters of exactly five members, pairwise distinct departments, and fixed
// quotas per department group. It is pure: no I/O, no side effects.
package eligibility

import "strings"

type Group int

const (
	GroupUnknown Group = iota
	// GroupInnovation covers the computer-science adjacent departments.
	GroupInnovation
	// GroupStructural covers the core engineering departments.
	GroupStructural
	// GroupFoundation covers basic sciences and management.
	GroupFoundation
)

func (g Group) String() string {
	switch g {
	case GroupInnovation:
		return "innovation"
	case GroupStructural:
		return "structural"
	case GroupFoundation:
		return "foundation"
	default:
		return "unknown"
	}
}

// Quota returns the maximum number of roster members allowed from the group.
// Unknown departments carry no quota.
func (g Group) Quota() int {
	switch g {
	case GroupInnovation, GroupStructural:
		return 2
	case GroupFoundation:
		return 1
	default:
		return TeamSize
	}
}

// canonicalDepartments maps normalized canonical department names to their
// group. This table is the single authority for classification; the
// abbreviation and substring tiers below only exist for messy legacy input.
var canonicalDepartments = []struct {
	name  string
	group Group
}{
	{"computer science and engineering", GroupInnovation},
	{"information science and engineering", GroupInnovation},
	{"artificial intelligence and machine learning", GroupInnovation},
	{"computer applications", GroupInnovation},
	{"data science", GroupInnovation},

	{"electronics and communication engineering", GroupStructural},
	{"electrical and electronics engineering", GroupStructural},
	{"mechanical engineering", GroupStructural},
	{"civil engineering", GroupStructural},
	{"chemical engineering", GroupStructural},
	{"industrial engineering and management", GroupStructural},
	{"aerospace engineering", GroupStructural},
	{"biotechnology", GroupStructural},

	{"physics", GroupFoundation},
	{"chemistry", GroupFoundation},
	{"mathematics", GroupFoundation},
	{"humanities", GroupFoundation},
	{"management studies", GroupFoundation},
}

// abbreviations handles the short forms faculty actually type into the
// registration form. Checked after the canonical table, before substrings.
var abbreviations = map[string]Group{
	"CSE":  GroupInnovation,
	"CS":   GroupInnovation,
	"ISE":  GroupInnovation,
	"IS":   GroupInnovation,
	"AIML": GroupInnovation,
	"AI":   GroupInnovation,
	"MCA":  GroupInnovation,
	"DS":   GroupInnovation,

	"ECE":  GroupStructural,
	"EC":   GroupStructural,
	"EEE":  GroupStructural,
	"EE":   GroupStructural,
	"ME":   GroupStructural,
	"MECH": GroupStructural,
	"CV":   GroupStructural,
	"IEM":  GroupStructural,
	"AERO": GroupStructural,
	"BT":   GroupStructural,

	"PHY":  GroupFoundation,
	"CHEM": GroupFoundation,
	"MATH": GroupFoundation,
	"MBA":  GroupFoundation,
}

// Normalize lowercases, trims, and collapses internal whitespace so that
// "Computer  Science and Engineering " and "computer science and engineering"
// compare equal. Ampersands are expanded to "and".
func Normalize(department string) string {
	d := strings.ToLower(strings.TrimSpace(department))
	d = strings.ReplaceAll(d, "&", " and ")
	return strings.Join(strings.Fields(d), " ")
}

// Classify resolves a department string to its group in three tiers:
// exact canonical match, abbreviation match, then substring containment.
// The substring tier can misclassify a department whose name contains
// another group's canonical name (e.g. "chemistry" inside "applied
// chemistry department"); it is kept as the lowest tier on purpose, matching
// how the registration data has historically been entered.
func Classify(department string) Group {
	d := Normalize(department)
	if d == "" {
		return GroupUnknown
	}

	for _, c := range canonicalDepartments {
		if c.name == d {
			return c.group
		}
	}

	abbr := strings.ToUpper(strings.Join(strings.Fields(stripPunct(department)), ""))
	if g, ok := abbreviations[abbr]; ok {
		return g
	}

	// Substring fallback, ordered by table position so results are stable.
	for _, c := range canonicalDepartments {
		if strings.Contains(d, c.name) || strings.Contains(c.name, d) {
			return c.group
		}
	}

	return GroupUnknown
}

func stripPunct(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return b.String()
}
