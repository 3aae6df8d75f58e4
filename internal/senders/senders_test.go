package senders_test

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meherc99/Gmail-Analyzer/internal/fetch"
	"github.com/meherc99/Gmail-Analyzer/internal/senders"
)

func TestExtractAddress(t *testing.T) {
	cases := []struct {
		from     string
		expected string
	}{
		{"Test User <Test@Example.com>", "test@example.com"},
		{"  <noreply@service.io> ", "noreply@service.io"},
		{"plain@example.com", "plain@example.com"},
		{"Some Name plain@example.com extra", "plain@example.com"},
		{"Just A Name", "just a name"},
		{"", ""},
	}

	for _, tc := range cases {
		t.Run(tc.from, func(t *testing.T) {
			assert.Equal(t, tc.expected, senders.ExtractAddress(tc.from))
		})
	}
}

func TestExtractName(t *testing.T) {
	cases := []struct {
		from     string
		expected string
	}{
		{"Test User <test@example.com>", "Test User"},
		{`"Quoted Name" <q@example.com>`, "Quoted Name"},
		{"plain@example.com", "plain@example.com"},
		{"<only@example.com>", "only@example.com"},
	}

	for _, tc := range cases {
		t.Run(tc.from, func(t *testing.T) {
			assert.Equal(t, tc.expected, senders.ExtractName(tc.from))
		})
	}
}

func recordsFrom(froms ...string) []fetch.Record {
	records := make([]fetch.Record, 0, len(froms))
	for i, from := range froms {
		records = append(records, fetch.Record{ID: string(rune('a' + i)), From: from})
	}
	return records
}

func TestTop(t *testing.T) {
	records := recordsFrom(
		"Alice <alice@example.com>",
		"bob@example.com",
		"Alice Again <ALICE@example.com>",
		"carol@example.com",
		"Bob <bob@example.com>",
		"alice@example.com",
		"", // skipped
	)

	ranked := senders.Top(records, 2)
	require.Len(t, ranked, 2)

	assert.Equal(t, senders.SenderCount{Rank: 1, Email: "alice@example.com", Name: "Alice", Count: 3}, ranked[0])
	assert.Equal(t, senders.SenderCount{Rank: 2, Email: "bob@example.com", Name: "bob@example.com", Count: 2}, ranked[1])
}

func TestTopTieKeepsFirstSeenOrder(t *testing.T) {
	ranked := senders.Top(recordsFrom("x@a.com", "y@b.com"), 0)
	require.Len(t, ranked, 2)
	assert.Equal(t, "x@a.com", ranked[0].Email)
	assert.Equal(t, "y@b.com", ranked[1].Email)
}

func TestWriteTable(t *testing.T) {
	var sb strings.Builder
	senders.WriteTable(&sb, []senders.SenderCount{
		{Rank: 1, Email: "a@b.com", Name: "Alice", Count: 3},
		{Rank: 2, Email: "c@d.com", Name: "Carol", Count: 1},
	}, 8)

	out := sb.String()
	assert.Contains(t, out, "TOP 2 MOST COMMON SENDERS")
	assert.Contains(t, out, "a@b.com")
	assert.Contains(t, out, "37.50%")
	assert.Contains(t, out, "Top 2 senders account for 4 emails (50.00% of total)")
}

func TestSaveJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sender_analysis.json")
	ranked := []senders.SenderCount{{Rank: 1, Email: "a@b.com", Name: "Alice", Count: 3}}

	require.NoError(t, senders.SaveJSON(path, ranked))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded []senders.SenderCount
	require.NoError(t, json.Unmarshal(raw, &loaded))
	assert.Equal(t, ranked, loaded)
}

func TestSaveCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "senders.csv")
	ranked := []senders.SenderCount{
		{Rank: 1, Email: "a@b.com", Name: "Alice, Esq.", Count: 3},
		{Rank: 2, Email: "c@d.com", Name: "Carol", Count: 1},
	}

	require.NoError(t, senders.SaveCSV(path, ranked))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"rank", "email", "name", "count"}, rows[0])
	assert.Equal(t, []string{"1", "a@b.com", "Alice, Esq.", "3"}, rows[1])
}
