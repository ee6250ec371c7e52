package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"

	"kanban-mail-backend/internal/kanban/domain"
	"kanban-mail-backend/pkg/fuzzy"
	"kanban-mail-backend/pkg/vector"
)

const (
	DefaultSearchLimit     = 20
	MaxSearchLimit         = 100
	DefaultSuggestionLimit = 5
	MaxSuggestionLimit     = 10

	maxContactSuggestions = 3
	maxKeywordSuggestions = 2
	minSuggestionQuery    = 2
	minKeywordLength      = 4
	contactScanLimit      = 100
)

// itemFields are the weighted fields fuzzy search looks at.
func itemFields(it *domain.KanbanItem) []fuzzy.Field {
	return []fuzzy.Field{
		{Text: it.Subject, Weight: 3},
		{Text: it.SenderName, Weight: 2},
		{Text: it.SenderEmail, Weight: 2},
		{Text: it.Snippet, Weight: 1},
		{Text: it.Summary, Weight: 0.5},
	}
}

func clampLimit(limit, def, max int) int {
	if limit < 1 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// SearchItems runs a typo tolerant search over the user's recent items.
func (u *kanbanUsecase) SearchItems(ctx context.Context, userID, query string, limit int) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}
	limit = clampLimit(limit, DefaultSearchLimit, MaxSearchLimit)

	items, err := u.itemRepo.ListRecent(ctx, userID, u.opts.SearchWindow)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	matches := fuzzy.Search(query, items, itemFields, fuzzy.Options{Limit: limit})
	results := make([]domain.SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, domain.SearchResult{
			KanbanItem: m.Item,
			Score:      m.Score,
			SearchType: domain.SearchTypeFuzzy,
		})
	}
	return results, nil
}

// SemanticSearch ranks items by embedding similarity. Whenever that path
// cannot produce results it answers with SearchItems instead.
func (u *kanbanUsecase) SemanticSearch(ctx context.Context, userID, query string, limit int) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}
	limit = clampLimit(limit, DefaultSearchLimit, MaxSearchLimit)

	results, err := u.semanticSearch(ctx, userID, query, limit)
	if err != nil {
		log.Printf("[Search] Semantic search unavailable for user %s, using fuzzy: %v", userID, err)
		return u.SearchItems(ctx, userID, query, limit)
	}
	if len(results) == 0 {
		return u.SearchItems(ctx, userID, query, limit)
	}
	return results, nil
}

func (u *kanbanUsecase) semanticSearch(ctx context.Context, userID, query string, limit int) ([]domain.SearchResult, error) {
	if u.embedder == nil || u.vectors == nil || !u.vectors.Enabled() {
		return nil, fmt.Errorf("semantic search not configured")
	}

	vec, err := u.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits := u.vectors.SearchSimilar(ctx, userID, vec, limit, u.opts.ScoreThreshold)
	if len(hits) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.MessageID)
	}
	items, err := u.itemRepo.FindByMessageIDs(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		item, ok := items[h.MessageID]
		if !ok {
			continue
		}
		results = append(results, domain.SearchResult{
			KanbanItem: item,
			Score:      h.Score,
			SearchType: domain.SearchTypeSemantic,
		})
	}
	return results, nil
}

// Suggestions offers contacts and subject keywords for a partial query.
func (u *kanbanUsecase) Suggestions(ctx context.Context, userID, query string, limit int) ([]domain.Suggestion, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSuggestionQuery {
		return []domain.Suggestion{}, nil
	}
	limit = clampLimit(limit, DefaultSuggestionLimit, MaxSuggestionLimit)
	lower := strings.ToLower(query)

	recent, err := u.itemRepo.ListRecent(ctx, userID, u.opts.SearchWindow)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	out := make([]domain.Suggestion, 0, limit)
	for _, c := range u.contactCandidates(ctx, userID, recent) {
		if len(out) >= maxContactSuggestions {
			break
		}
		if strings.Contains(strings.ToLower(c.Name), lower) || strings.Contains(strings.ToLower(c.Email), lower) {
			text := c.Name
			if text == "" {
				text = c.Email
			}
			out = append(out, domain.Suggestion{Type: domain.SuggestionContact, Text: text, Value: c.Email})
		}
	}

	keywords := 0
	seen := make(map[string]bool)
	for _, it := range recent {
		if keywords >= maxKeywordSuggestions {
			break
		}
		for _, word := range strings.Fields(it.Subject) {
			word = strings.Trim(word, ".,;:!?\"'()[]{}")
			lw := strings.ToLower(word)
			if len([]rune(word)) < minKeywordLength || seen[lw] || !strings.Contains(lw, lower) {
				continue
			}
			seen[lw] = true
			out = append(out, domain.Suggestion{Type: domain.SuggestionKeyword, Text: word, Value: word})
			keywords++
			if keywords >= maxKeywordSuggestions {
				break
			}
		}
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// contactCandidates prefers the vector index contacts and falls back to the
// senders of recent items.
func (u *kanbanUsecase) contactCandidates(ctx context.Context, userID string, recent []*domain.KanbanItem) []vector.Contact {
	if u.vectors != nil && u.vectors.Enabled() {
		if contacts := u.vectors.GetUniqueContacts(ctx, userID, contactScanLimit); len(contacts) > 0 {
			return contacts
		}
	}

	seen := make(map[string]bool)
	var contacts []vector.Contact
	for _, it := range recent {
		email := strings.ToLower(it.SenderEmail)
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		contacts = append(contacts, vector.Contact{Name: it.SenderName, Email: it.SenderEmail})
	}
	return contacts
}
