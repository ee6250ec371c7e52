package usecase

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// maxPageOffset bounds decoded offsets so offset+pageSize cannot overflow
// and a forged token cannot make a column list an entire label.
const maxPageOffset = MaxPageSize * 1000

// PageState maps a column id to the offset of its next page.
type PageState map[string]int

// EncodePageToken renders state as base64 JSON. An empty state yields "".
func EncodePageToken(state PageState) string {
	if len(state) == 0 {
		return ""
	}
	b, err := json.Marshal(state)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(b)
}

// DecodePageToken is lenient: a token that cannot be read restarts every
// column at zero, and offsets are clamped to [0, maxPageOffset].
func DecodePageToken(token string) PageState {
	state := PageState{}
	token = strings.TrimSpace(token)
	if token == "" {
		return state
	}

	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		raw, err = base64.URLEncoding.DecodeString(token)
		if err != nil {
			return state
		}
	}

	var decoded map[string]int
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return state
	}
	for col, off := range decoded {
		if off < 0 {
			off = 0
		}
		if off > maxPageOffset {
			off = maxPageOffset
		}
		state[col] = off
	}
	return state
}
