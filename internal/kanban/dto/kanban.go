package dto

import (
	"kanban-mail-backend/internal/kanban/domain"
)

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	// nil leaves the mailbox untouched, "" archives
	GmailLabel *string `json:"gmailLabel"`
}

type SnoozeRequest struct {
	Until string `json:"until" binding:"required"`
}

type SemanticSearchRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit"`
}

type UpdateColumnsRequest struct {
	Columns []domain.Column `json:"columns" binding:"required"`
}

type ValidateLabelRequest struct {
	LabelName string `json:"labelName"`
}

type ItemResponse struct {
	Item *domain.KanbanItem `json:"item"`
}

type SearchResponse struct {
	Results []domain.SearchResult `json:"results"`
}

type SuggestionsResponse struct {
	Results []domain.Suggestion `json:"results"`
}

type ColumnsResponse struct {
	Columns []domain.Column `json:"columns"`
}

type LabelsResponse struct {
	Labels []domain.Label `json:"labels"`
}
