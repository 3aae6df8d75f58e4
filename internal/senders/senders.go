// Package senders ranks the senders found in a mailbox export file.
package senders

import (
	"regexp"
	"sort"
	"strings"

	"github.com/meherc99/Gmail-Analyzer/internal/fetch"
)

var (
	bracketRe = regexp.MustCompile(`<([^>]+)>`)
	addressRe = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	nameRe    = regexp.MustCompile(`^([^<]+)<`)
)

// ExtractAddress pulls the email address out of a From header value.
// Handles "Name <email@example.com>" and bare "email@example.com" forms;
// anything else is returned trimmed and lowercased as-is.
func ExtractAddress(from string) string {
	if m := bracketRe.FindStringSubmatch(from); m != nil {
		return strings.ToLower(strings.TrimSpace(m[1]))
	}
	if m := addressRe.FindString(from); m != "" {
		return strings.ToLower(strings.TrimSpace(m))
	}
	return strings.ToLower(strings.TrimSpace(from))
}

// ExtractName pulls the display name out of a From header value, falling
// back to the address when no name is present.
func ExtractName(from string) string {
	if m := nameRe.FindStringSubmatch(from); m != nil {
		name := strings.Trim(strings.TrimSpace(m[1]), `"'`)
		if name != "" {
			return name
		}
	}
	return ExtractAddress(from)
}

// SenderCount is one row of the ranking report.
type SenderCount struct {
	Rank  int    `json:"rank"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Top counts messages per sender address and returns the topN senders in
// descending order. The first display name seen for an address wins; ties
// keep first-seen order. topN <= 0 returns all senders.
func Top(records []fetch.Record, topN int) []SenderCount {
	counts := make(map[string]*SenderCount)
	var order []string

	for _, rec := range records {
		if rec.From == "" {
			continue
		}

		addr := ExtractAddress(rec.From)
		if c, ok := counts[addr]; ok {
			c.Count++
			continue
		}
		counts[addr] = &SenderCount{Email: addr, Name: ExtractName(rec.From), Count: 1}
		order = append(order, addr)
	}

	ranked := make([]SenderCount, 0, len(order))
	for _, addr := range order {
		ranked = append(ranked, *counts[addr])
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })

	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return ranked
}
