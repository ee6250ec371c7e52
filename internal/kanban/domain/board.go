package domain

// Warning types attached to a board response.
const (
	WarningTypeError   = "error"
	WarningTypeWarning = "warning"
	WarningTypeSync    = "sync"
)

// Search result tags.
const (
	SearchTypeFuzzy    = "fuzzy"
	SearchTypeSemantic = "semantic"
)

// Suggestion kinds.
const (
	SuggestionContact = "contact"
	SuggestionKeyword = "keyword"
)

// Warning reports a per-column problem. The board is still returned.
type Warning struct {
	ColumnID string `json:"columnId"`
	Message  string `json:"message"`
	Type     string `json:"type"`
}

type BoardMeta struct {
	PageSize      int            `json:"pageSize"`
	NextPageToken string         `json:"nextPageToken,omitempty"`
	HasMore       bool           `json:"hasMore"`
	Total         map[string]int `json:"total"`
}

// Board is one page of every column of a user's board.
type Board struct {
	Data     map[string][]*KanbanItem `json:"data"`
	Meta     BoardMeta                `json:"meta"`
	Columns  []Column                 `json:"columns"`
	Warnings []Warning                `json:"warnings"`
}

// SearchResult is an item plus how well it matched. Fuzzy scores are
// distances (0 is perfect); semantic scores are similarities.
type SearchResult struct {
	*KanbanItem
	Score      float64 `json:"_score"`
	SearchType string  `json:"_searchType"`
}

type Suggestion struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Value string `json:"value"`
}

type SummaryResult struct {
	Summary string `json:"summary"`
	Cached  bool   `json:"cached"`
}
