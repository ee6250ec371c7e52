package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	authdomain "kanban-mail-backend/internal/auth/domain"
	"kanban-mail-backend/internal/kanban/domain"
	"kanban-mail-backend/internal/kanban/usecase"
	"kanban-mail-backend/pkg/ai"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockKanbanUsecase struct {
	mock.Mock
}

func (m *mockKanbanUsecase) GetBoard(ctx context.Context, q usecase.BoardQuery) (*domain.Board, error) {
	args := m.Called(q)
	b, _ := args.Get(0).(*domain.Board)
	return b, args.Error(1)
}

func (m *mockKanbanUsecase) SyncLabelToItems(ctx context.Context, userID, label string, max int) (domain.BatchResult, error) {
	args := m.Called(userID, label, max)
	return args.Get(0).(domain.BatchResult), args.Error(1)
}

func (m *mockKanbanUsecase) UpdateStatus(ctx context.Context, userID, messageID, status string, gmailLabel *string) (*domain.KanbanItem, error) {
	args := m.Called(userID, messageID, status, gmailLabel)
	it, _ := args.Get(0).(*domain.KanbanItem)
	return it, args.Error(1)
}

func (m *mockKanbanUsecase) Snooze(ctx context.Context, userID, messageID, until string) (*domain.KanbanItem, error) {
	args := m.Called(userID, messageID, until)
	it, _ := args.Get(0).(*domain.KanbanItem)
	return it, args.Error(1)
}

func (m *mockKanbanUsecase) Unsnooze(ctx context.Context, userID, messageID string) (*domain.KanbanItem, error) {
	args := m.Called(userID, messageID)
	it, _ := args.Get(0).(*domain.KanbanItem)
	return it, args.Error(1)
}

func (m *mockKanbanUsecase) WakeExpired(ctx context.Context, now time.Time, batchSize int) (domain.BatchResult, []*domain.KanbanItem, error) {
	args := m.Called(now, batchSize)
	items, _ := args.Get(1).([]*domain.KanbanItem)
	return args.Get(0).(domain.BatchResult), items, args.Error(2)
}

func (m *mockKanbanUsecase) GetColumns(ctx context.Context, userID string) ([]domain.Column, error) {
	args := m.Called(userID)
	cols, _ := args.Get(0).([]domain.Column)
	return cols, args.Error(1)
}

func (m *mockKanbanUsecase) UpdateColumns(ctx context.Context, userID string, columns []domain.Column) ([]domain.Column, error) {
	args := m.Called(userID, columns)
	cols, _ := args.Get(0).([]domain.Column)
	return cols, args.Error(1)
}

func (m *mockKanbanUsecase) ListLabels(ctx context.Context, userID string) ([]domain.Label, error) {
	args := m.Called(userID)
	labels, _ := args.Get(0).([]domain.Label)
	return labels, args.Error(1)
}

func (m *mockKanbanUsecase) ValidateLabel(ctx context.Context, userID, name string) (*domain.LabelValidation, error) {
	args := m.Called(userID, name)
	v, _ := args.Get(0).(*domain.LabelValidation)
	return v, args.Error(1)
}

func (m *mockKanbanUsecase) WatchMailbox(ctx context.Context, userID string) error {
	return m.Called(userID).Error(0)
}

func (m *mockKanbanUsecase) SearchItems(ctx context.Context, userID, query string, limit int) ([]domain.SearchResult, error) {
	args := m.Called(userID, query, limit)
	r, _ := args.Get(0).([]domain.SearchResult)
	return r, args.Error(1)
}

func (m *mockKanbanUsecase) SemanticSearch(ctx context.Context, userID, query string, limit int) ([]domain.SearchResult, error) {
	args := m.Called(userID, query, limit)
	r, _ := args.Get(0).([]domain.SearchResult)
	return r, args.Error(1)
}

func (m *mockKanbanUsecase) Suggestions(ctx context.Context, userID, query string, limit int) ([]domain.Suggestion, error) {
	args := m.Called(userID, query, limit)
	r, _ := args.Get(0).([]domain.Suggestion)
	return r, args.Error(1)
}

func (m *mockKanbanUsecase) Summarize(ctx context.Context, userID, messageID string) (*domain.SummaryResult, error) {
	args := m.Called(userID, messageID)
	r, _ := args.Get(0).(*domain.SummaryResult)
	return r, args.Error(1)
}

func (m *mockKanbanUsecase) GenerateAndStoreEmbedding(ctx context.Context, userID, messageID string) error {
	return m.Called(userID, messageID).Error(0)
}

func (m *mockKanbanUsecase) BackfillEmbeddings(ctx context.Context, batchSize int, delay time.Duration) (domain.BatchResult, error) {
	args := m.Called(batchSize, delay)
	return args.Get(0).(domain.BatchResult), args.Error(1)
}

func (m *mockKanbanUsecase) SetSummarizer(svc ai.SummarizerService) {}
func (m *mockKanbanUsecase) SetEmbedder(e usecase.Embedder) {}
func (m *mockKanbanUsecase) SetVectorIndex(idx usecase.VectorIndex) {}
func (m *mockKanbanUsecase) SetEventPublisher(p usecase.EventPublisher) {}
func (m *mockKanbanUsecase) SetEmbeddingQueue(q usecase.EmbeddingQueue) {}

func newRouter(uc usecase.KanbanUsecase, authenticated bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/api/kanban")
	if authenticated {
		group.Use(func(c *gin.Context) {
			c.Set("user", &authdomain.User{ID: "u1", Email: "u1@example.com"})
			c.Next()
		})
	}
	NewKanbanHandler(uc).RegisterRoutes(group)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetBoardResponseShape(t *testing.T) {
	uc := &mockKanbanUsecase{}
	uc.On("GetBoard", usecase.BoardQuery{UserID: "u1", Label: "INBOX", PageToken: "abc", PageSize: 10}).Return(&domain.Board{
		Data:     map[string][]*domain.KanbanItem{"INBOX": {{ID: "row1", MessageID: "m1", Status: "INBOX"}}},
		Meta:     domain.BoardMeta{PageSize: 10, HasMore: true, NextPageToken: "next", Total: map[string]int{"INBOX": 11}},
		Columns:  domain.DefaultColumns(),
		Warnings: []domain.Warning{{ColumnID: "TODO", Message: "label missing", Type: domain.WarningTypeWarning}},
	}, nil)
	r := newRouter(uc, true)

	w := do(r, http.MethodGet, "/api/kanban/board?label=INBOX&pageToken=abc&pageSize=10", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, "next", meta["nextPageToken"])
	assert.Equal(t, true, meta["hasMore"])
	assert.Equal(t, float64(11), meta["total"].(map[string]interface{})["INBOX"])
	item := body["data"].(map[string]interface{})["INBOX"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "row1", item["_id"])
	warning := body["warnings"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "TODO", warning["columnId"])
	assert.Equal(t, "warning", warning["type"])
	assert.Len(t, body["columns"], 4)
	uc.AssertExpectations(t)
}

func TestUpdateStatusErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: unknown column", domain.ErrValidation), http.StatusBadRequest},
		{"not found", fmt.Errorf("%w: item", domain.ErrNotFound), http.StatusNotFound},
		{"upstream", fmt.Errorf("%w: modify labels", domain.ErrUpstream), http.StatusBadGateway},
		{"not persisted", domain.ErrEmbeddingNotPersisted, http.StatusInternalServerError},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockKanbanUsecase{}
			uc.On("UpdateStatus", "u1", "m1", "DONE", (*string)(nil)).Return(nil, tt.err)
			w := do(newRouter(uc, true), http.MethodPatch, "/api/kanban/items/m1/status", `{"status":"DONE"}`)
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestUpdateStatusPassesLabel(t *testing.T) {
	uc := &mockKanbanUsecase{}
	uc.On("UpdateStatus", "u1", "m1", "ARCHIVE", mock.MatchedBy(func(l *string) bool { return l != nil && *l == "" })).
		Return(&domain.KanbanItem{MessageID: "m1", Status: "ARCHIVE"}, nil)

	w := do(newRouter(uc, true), http.MethodPatch, "/api/kanban/items/m1/status", `{"status":"ARCHIVE","gmailLabel":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ARCHIVE"`)
	uc.AssertExpectations(t)
}

func TestRequestValidation(t *testing.T) {
	r := newRouter(&mockKanbanUsecase{}, true)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"status missing", http.MethodPatch, "/api/kanban/items/m1/status", `{}`},
		{"snooze missing until", http.MethodPost, "/api/kanban/items/m1/snooze", `{}`},
		{"semantic missing query", http.MethodPost, "/api/kanban/search/semantic", `{"limit":3}`},
		{"columns not json", http.MethodPut, "/api/kanban/columns", `nope`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestUnauthenticated(t *testing.T) {
	w := do(newRouter(&mockKanbanUsecase{}, false), http.MethodGet, "/api/kanban/board", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSearchResponseShape(t *testing.T) {
	uc := &mockKanbanUsecase{}
	uc.On("SearchItems", "u1", "invoice", 5).Return([]domain.SearchResult{
		{KanbanItem: &domain.KanbanItem{ID: "row1", MessageID: "m1", Subject: "Invoice"}, Score: 0.01, SearchType: domain.SearchTypeFuzzy},
	}, nil)
	uc.On("Suggestions", "u1", "inv", 0).Return([]domain.Suggestion{
		{Type: domain.SuggestionKeyword, Text: "Invoice", Value: "Invoice"},
	}, nil)
	r := newRouter(uc, true)

	w := do(r, http.MethodGet, "/api/kanban/search?q=invoice&limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Results []map[string]interface{} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Results, 1)
	assert.Equal(t, "row1", body.Results[0]["_id"])
	assert.Equal(t, "Invoice", body.Results[0]["subject"])
	assert.Equal(t, 0.01, body.Results[0]["_score"])
	assert.Equal(t, "fuzzy", body.Results[0]["_searchType"])

	w = do(r, http.MethodGet, "/api/kanban/search/suggestions?q=inv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"results":[{"type":"keyword","text":"Invoice","value":"Invoice"}]}`, w.Body.String())
}

func TestColumnsAndLabels(t *testing.T) {
	uc := &mockKanbanUsecase{}
	cols := []domain.Column{{ID: "A", Name: "A"}}
	uc.On("UpdateColumns", "u1", cols).Return(cols, nil)
	uc.On("ValidateLabel", "u1", "work").Return(&domain.LabelValidation{Valid: true, Message: "Label found", ActualName: "Work"}, nil)
	uc.On("WatchMailbox", "u1").Return(fmt.Errorf("%w: push topic not configured", domain.ErrValidation))
	r := newRouter(uc, true)

	w := do(r, http.MethodPut, "/api/kanban/columns", `{"columns":[{"id":"A","name":"A"}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"columns":[{"id":"A","name":"A","order":0}]}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/kanban/labels/validate", `{"labelName":"work"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":true,"message":"Label found","actualName":"Work"}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/kanban/watch", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	uc.AssertExpectations(t)
}
