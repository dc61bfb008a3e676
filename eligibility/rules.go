package eligibility

import "fmt"

// TeamSize is the exact roster size a team must reach before submitting.
const TeamSize = 5

// Member is the minimal view of a faculty member the rules need.
type Member struct {
	ID         int
	Name       string
	Department string
}

// Decision is the result of a per-candidate selection check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

var allowed = Decision{Allowed: true}

func denied(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// CanSelect decides whether candidate may be added to the current roster.
// Checks short-circuit in a fixed order: already selected, roster full,
// duplicate department, group quota.
func CanSelect(candidate Member, roster []Member) Decision {
	for _, m := range roster {
		if m.ID == candidate.ID {
			return denied("Already selected")
		}
	}

	if len(roster)+1 > TeamSize {
		return denied("Team is full")
	}

	candDept := Normalize(candidate.Department)
	for _, m := range roster {
		if Normalize(m.Department) == candDept {
			return denied("Department already represented")
		}
	}

	group := Classify(candidate.Department)
	if group != GroupUnknown {
		count := 0
		for _, m := range roster {
			if Classify(m.Department) == group {
				count++
			}
		}
		if count >= group.Quota() {
			return denied(fmt.Sprintf("Maximum %d members allowed from the %s group", group.Quota(), group))
		}
	}

	return allowed
}

// ValidateComposition evaluates every rule against the full roster and
// accumulates one message per violation. It never short-circuits; an empty
// result means the roster is eligible to submit.
func ValidateComposition(roster []Member) []string {
	var violations []string

	if len(roster) != TeamSize {
		violations = append(violations,
			fmt.Sprintf("team must have exactly %d members, has %d", TeamSize, len(roster)))
	}

	seen := make(map[string][]string, len(roster))
	for _, m := range roster {
		d := Normalize(m.Department)
		seen[d] = append(seen[d], m.Department)
	}
	// Report each duplicated department once, in roster order.
	reported := make(map[string]bool)
	for _, m := range roster {
		d := Normalize(m.Department)
		if len(seen[d]) > 1 && !reported[d] {
			reported[d] = true
			violations = append(violations,
				fmt.Sprintf("department %q is represented %d times, departments must be unique", m.Department, len(seen[d])))
		}
	}

	counts := make(map[Group]int)
	for _, m := range roster {
		counts[Classify(m.Department)]++
	}
	for _, g := range []Group{GroupInnovation, GroupStructural, GroupFoundation} {
		if counts[g] > g.Quota() {
			violations = append(violations,
				fmt.Sprintf("%s group has %d members, maximum is %d", g, counts[g], g.Quota()))
		}
	}

	return violations
}
