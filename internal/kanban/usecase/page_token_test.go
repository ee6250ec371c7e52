package usecase

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageToken(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		state := PageState{"INBOX": 20, "TODO": 40}
		assert.Equal(t, state, DecodePageToken(EncodePageToken(state)))
	})

	t.Run("empty state has no token", func(t *testing.T) {
		assert.Equal(t, "", EncodePageToken(PageState{}))
	})

	tests := []struct {
		name  string
		token string
		want  PageState
	}{
		{"empty", "", PageState{}},
		{"not base64", "***", PageState{}},
		{"not json", base64.StdEncoding.EncodeToString([]byte("hello")), PageState{}},
		{"wrong shape", base64.StdEncoding.EncodeToString([]byte(`["INBOX"]`)), PageState{}},
		{"negative clamped", base64.StdEncoding.EncodeToString([]byte(`{"INBOX":-5,"DONE":3}`)), PageState{"INBOX": 0, "DONE": 3}},
		{"huge clamped", base64.StdEncoding.EncodeToString([]byte(`{"INBOX":9223372036854775800}`)), PageState{"INBOX": maxPageOffset}},
		{"url alphabet", base64.URLEncoding.EncodeToString([]byte(`{"???":1}`)), PageState{"???": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodePageToken(tt.token))
		})
	}
}
