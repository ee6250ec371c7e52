package domain

import (
	"strings"
	"time"
)

const (
	LabelTypeSystem = "system"
	LabelTypeUser   = "user"
)

// Label is a remote mailbox label.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// LabelValidation is the outcome of checking a user-typed label name.
type LabelValidation struct {
	Valid       bool     `json:"valid"`
	Message     string   `json:"message"`
	ActualName  string   `json:"actualName,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Hint        string   `json:"hint,omitempty"`
}

// MessagePage is one page of message ids listed under a label.
type MessagePage struct {
	IDs                []string
	NextPageToken      string
	ResultSizeEstimate int
}

// MessageDetail is the subset of a remote message the board needs.
type MessageDetail struct {
	ID             string
	ThreadID       string
	Snippet        string
	LabelIDs       []string
	Headers        map[string]string // keys lower-cased
	HasAttachments bool
	BodyText       string
	BodyHTML       string
	ReceivedAt     time.Time
}

// Header returns a header value by case-insensitive name.
func (m *MessageDetail) Header(name string) string {
	if m.Headers == nil {
		return ""
	}
	return m.Headers[strings.ToLower(name)]
}
