package agent

import (
	"fmt"
	"regexp"

	"github.com/jeanpaul/dontforget/internal/tools"
)

// Policy selects how deletes requested by the model are checked.
type Policy string

const (
	// PolicyStrict enforces the confirmation rule in code.
	PolicyStrict Policy = "strict"
	// PolicyAdvisory leaves the confirmation rule to the model's instructions.
	PolicyAdvisory Policy = "advisory"
)

func (p Policy) Valid() bool {
	return p == PolicyStrict || p == PolicyAdvisory
}

var allQualifier = regexp.MustCompile(`(?i)\b(all|every|everything|both)\b`)

// deleteGate tracks what searches surfaced during one exchange and decides
// whether a delete may go ahead.
type deleteGate struct {
	policy      Policy
	allowAll    bool
	seen        map[int64]struct{}
	lastMatches int
}

func newDeleteGate(policy Policy, question string) *deleteGate {
	return &deleteGate{
		policy:   policy,
		allowAll: allQualifier.MatchString(question),
		seen:     make(map[int64]struct{}),
	}
}

// observe records the outcome of a search. Failed or refused searches
// change nothing.
func (g *deleteGate) observe(res tools.Result) {
	if res.Error != "" {
		return
	}
	matched := make(map[int64]struct{}, len(res.NoteIDs))
	for _, id := range res.NoteIDs {
		g.seen[id] = struct{}{}
		matched[id] = struct{}{}
	}
	g.lastMatches = len(matched)
}

// check returns the in-band refusal for a delete of ids, or "" to allow it.
func (g *deleteGate) check(ids []int64) string {
	if g.policy == PolicyAdvisory || len(ids) == 0 {
		return ""
	}
	unique := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := g.seen[id]; !ok {
			return fmt.Sprintf("Deletion blocked: rowid %d was not returned by any search in this conversation. "+
				"Use %s to find the note first.", id, tools.SearchToolName)
		}
		unique[id] = struct{}{}
	}
	if g.allowAll {
		return ""
	}
	n := len(unique)
	if g.lastMatches > n {
		n = g.lastMatches
	}
	if n > 1 {
		return fmt.Sprintf("Deletion blocked: %d notes match. Ask the user which one to delete, "+
			"or to say explicitly that all of them should go.", n)
	}
	return ""
}
