package senders

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// WriteTable renders the ranking as an aligned text table with per-sender
// percentages and a coverage summary line.
func WriteTable(w io.Writer, ranked []SenderCount, totalRecords int) {
	line := strings.Repeat("=", 100)

	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "TOP %d MOST COMMON SENDERS\n", len(ranked))
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "%-6s %-8s %-12s %-30s %s\n", "Rank", "Count", "Percentage", "Sender Name", "Email Address")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	covered := 0
	for _, s := range ranked {
		covered += s.Count

		var pct float64
		if totalRecords > 0 {
			pct = float64(s.Count) / float64(totalRecords) * 100
		}

		name := s.Name
		if len(name) > 30 {
			name = name[:28] + ".."
		}
		fmt.Fprintf(w, "%-6d %-8d %6.2f%%      %-30s %s\n", s.Rank, s.Count, pct, name, s.Email)
	}
	fmt.Fprintln(w, line)

	var coveredPct float64
	if totalRecords > 0 {
		coveredPct = float64(covered) / float64(totalRecords) * 100
	}
	fmt.Fprintf(w, "\nTop %d senders account for %d emails (%.2f%% of total)\n", len(ranked), covered, coveredPct)
}

// SaveJSON writes the ranking to path as an indented JSON array.
func SaveJSON(path string, ranked []SenderCount) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("os.OpenFile failed: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ranked); err != nil {
		return fmt.Errorf("json.NewEncoder.Encode failed: %w", err)
	}

	return nil
}

// SaveCSV writes the ranking to path as a CSV report with a header row.
func SaveCSV(path string, ranked []SenderCount) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("os.OpenFile failed: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"rank", "email", "name", "count"}); err != nil {
		return fmt.Errorf("csv header write failed: %w", err)
	}
	for _, s := range ranked {
		row := []string{strconv.Itoa(s.Rank), s.Email, s.Name, strconv.Itoa(s.Count)}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("csv row write failed: %w", err)
		}
	}
	w.Flush()

	return w.Error()
}
