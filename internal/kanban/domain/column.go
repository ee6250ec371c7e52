package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Column is one lane of a user's board. Its ID is also the status value of the
// items it holds.
//
// GmailLabel distinguishes three cases: nil means the column is purely local,
// a pointer to "" means moving an item here archives it (removes INBOX), and
// any other value names the Gmail label bound to the column.
type Column struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	GmailLabel *string `json:"gmailLabel,omitempty"`
	Order      int     `json:"order"`
	Color      string  `json:"color,omitempty"`
}

// BoundLabel returns the configured label, or "" with ok=false for unbound and
// archive columns.
func (c Column) BoundLabel() (string, bool) {
	if c.GmailLabel == nil || *c.GmailLabel == "" {
		return "", false
	}
	return *c.GmailLabel, true
}

// ColumnList is stored as a JSON array in a single text column.
type ColumnList []Column

// Value implements driver.Valuer
func (l ColumnList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *ColumnList) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		*l = ColumnList{}
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported column list type %T", value)
	}
	if len(bytes) == 0 {
		*l = ColumnList{}
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// UserSettings holds the per-user column aggregate. The list is always read
// and replaced whole; Version increments on each replace.
type UserSettings struct {
	UserID        string     `gorm:"primaryKey"`
	KanbanColumns ColumnList `gorm:"type:text;not null"`
	Version       int        `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (UserSettings) TableName() string {
	return "user_settings"
}

func labelPtr(s string) *string {
	return &s
}

// DefaultColumns is the board a user gets before saving any settings. The
// non-inbox columns archive, so a moved message leaves INBOX.
func DefaultColumns() []Column {
	return []Column{
		{ID: StatusInbox, Name: "Inbox", GmailLabel: labelPtr("INBOX"), Order: 0},
		{ID: StatusTodo, Name: "To Do", GmailLabel: labelPtr(""), Order: 1},
		{ID: StatusInProgress, Name: "In Progress", GmailLabel: labelPtr(""), Order: 2},
		{ID: StatusDone, Name: "Done", GmailLabel: labelPtr(""), Order: 3},
	}
}
