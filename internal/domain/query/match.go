package query

import (
	"strings"

	"golang.org/x/text/cases"
)

// matcher performs case-insensitive substring matching against one query.
type matcher struct {
	needle string
	caser  cases.Caser
}

func newMatcher(q string) *matcher {
	m := &matcher{caser: cases.Fold()}
	if q = strings.TrimSpace(q); q != "" {
		m.needle = m.caser.String(q)
	}
	return m
}

// match reports whether the joined fields contain the query. An empty query matches everything.
func (m *matcher) match(fields ...string) bool {
	if m.needle == "" {
		return true
	}
	return strings.Contains(m.caser.String(strings.Join(fields, " ")), m.needle)
}
