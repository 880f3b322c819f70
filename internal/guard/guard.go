// Package guard classifies query statements by intent so the read path can
// refuse anything that looks like a mutation.
//
// Classification is a keyword heuristic over the statement's surface form,
// not a SQL parser. A keyword inside a string literal (for example
// MATCH 'update') classifies the statement as a write.
package guard

import (
	"fmt"
	"regexp"
	"strings"
)

type Intent int

const (
	Read Intent = iota
	Write
)

func (i Intent) String() string {
	if i == Write {
		return "write"
	}
	return "read"
}

// Verdict is the outcome of Classify. Keyword is the first mutation keyword
// found, upper-cased, and empty for reads.
type Verdict struct {
	Intent  Intent
	Keyword string
}

// MutationKeywords are the statement keywords treated as write intent.
var MutationKeywords = []string{
	"insert", "update", "delete", "drop",
	"alter", "create", "replace", "truncate",
	"attach", "detach", "pragma", "vacuum", "reindex",
}

var mutationRe = regexp.MustCompile(`(?i)\b(` + strings.Join(MutationKeywords, "|") + `)\b`)

// Classify inspects a statement case-insensitively for mutation keywords.
func Classify(statement string) Verdict {
	m := mutationRe.FindString(statement)
	if m == "" {
		return Verdict{Intent: Read}
	}
	return Verdict{Intent: Write, Keyword: strings.ToUpper(m)}
}

// Refusal is the message returned to the caller in place of executing a
// write statement.
func Refusal(v Verdict, deleteTool string) string {
	return fmt.Sprintf("Error: %s statements are not allowed here. Use the %s tool for deletion.", v.Keyword, deleteTool)
}
