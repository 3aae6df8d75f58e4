package fetch

import (
	"google.golang.org/api/gmail/v1"
)

// Header fallbacks match the original exporter so downstream files stay
// comparable across runs.
const (
	fallbackSubject = "No Subject"
	fallbackFrom    = "Unknown"
	fallbackDate    = "Unknown"
)

// Record is one exported message: the vendor ID plus the handful of header
// fields the analysis commands consume.
type Record struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"thread_id"`
	Subject  string   `json:"subject"`
	From     string   `json:"from"`
	Date     string   `json:"date"`
	Snippet  string   `json:"snippet"`
	Labels   []string `json:"labels"`
}

// NewRecord extracts a Record from a METADATA-format message.
func NewRecord(msg *gmail.Message) Record {
	r := Record{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Subject:  fallbackSubject,
		From:     fallbackFrom,
		Date:     fallbackDate,
		Snippet:  msg.Snippet,
		Labels:   msg.LabelIds,
	}
	if r.Labels == nil {
		r.Labels = []string{}
	}

	if msg.Payload == nil {
		return r
	}

	for _, header := range msg.Payload.Headers {
		switch header.Name {
		case "Subject":
			r.Subject = header.Value
		case "From":
			r.From = header.Value
		case "Date":
			r.Date = header.Value
		}
	}

	return r
}
