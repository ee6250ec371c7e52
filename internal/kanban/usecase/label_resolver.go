package usecase

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	"kanban-mail-backend/internal/kanban/domain"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const maxLabelSuggestions = 3

// SystemLabels always exist in a Gmail mailbox, even when a label listing
// leaves some of them out.
var SystemLabels = []string{"INBOX", "STARRED", "IMPORTANT", "SENT", "DRAFT", "SPAM", "TRASH", "UNREAD"}

var userLabelID = regexp.MustCompile(`^Label_\d+$`)

func isSystemLabel(name string) bool {
	for _, l := range SystemLabels {
		if l == name {
			return true
		}
	}
	return false
}

// LabelResolver maps user-typed label names to remote label ids. Label lists
// are cached per user for a short TTL.
type LabelResolver struct {
	cache *expirable.LRU[string, []domain.Label]
}

func NewLabelResolver(size int, ttl time.Duration) *LabelResolver {
	return &LabelResolver{
		cache: expirable.NewLRU[string, []domain.Label](size, nil, ttl),
	}
}

// Labels returns the user's labels, system labels first then by name.
func (r *LabelResolver) Labels(ctx context.Context, userID string, mb Mailbox) ([]domain.Label, error) {
	if cached, ok := r.cache.Get(userID); ok {
		return cached, nil
	}

	remote, err := mb.ListLabels(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(remote))
	labels := make([]domain.Label, 0, len(remote)+len(SystemLabels))
	for _, l := range remote {
		seen[l.ID] = true
		labels = append(labels, l)
	}
	for _, name := range SystemLabels {
		if !seen[name] {
			labels = append(labels, domain.Label{ID: name, Name: name, Type: domain.LabelTypeSystem})
		}
	}

	sort.SliceStable(labels, func(i, j int) bool {
		si, sj := labels[i].Type == domain.LabelTypeSystem, labels[j].Type == domain.LabelTypeSystem
		if si != sj {
			return si
		}
		return strings.ToLower(labels[i].Name) < strings.ToLower(labels[j].Name)
	})

	r.cache.Add(userID, labels)
	return labels, nil
}

// Invalidate drops the cached labels of a user.
func (r *LabelResolver) Invalidate(userID string) {
	r.cache.Remove(userID)
}

// Resolve returns the remote label id for value, or "" when no label
// matches. System names and Label_<n> ids pass through untouched.
func (r *LabelResolver) Resolve(ctx context.Context, userID string, mb Mailbox, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if isSystemLabel(value) || userLabelID.MatchString(value) {
		return value
	}

	labels, err := r.Labels(ctx, userID, mb)
	if err != nil {
		log.Printf("[Labels] Failed to list labels for user %s: %v", userID, err)
		return ""
	}
	for _, l := range labels {
		if strings.EqualFold(l.Name, value) || l.ID == value {
			return l.ID
		}
	}
	log.Printf("[Labels] Label %q not found for user %s", value, userID)
	return ""
}

// Validate checks a label name a user is about to bind to a column.
func (r *LabelResolver) Validate(ctx context.Context, userID string, mb Mailbox, name string) (*domain.LabelValidation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return &domain.LabelValidation{Valid: true, Message: "Empty label archives items moved to this column"}, nil
	}
	if isSystemLabel(name) {
		return &domain.LabelValidation{Valid: true, Message: "System label", ActualName: name}, nil
	}

	labels, err := r.Labels(ctx, userID, mb)
	if err != nil {
		return nil, fmt.Errorf("%w: list labels: %v", domain.ErrUpstream, err)
	}

	for _, l := range labels {
		if l.Name == name {
			return &domain.LabelValidation{Valid: true, Message: "Label found", ActualName: l.Name}, nil
		}
	}

	lower := strings.ToLower(name)
	var suggestions []string
	for _, l := range labels {
		if strings.EqualFold(l.Name, name) {
			return &domain.LabelValidation{
				Valid:      true,
				Message:    fmt.Sprintf("Label found as %q", l.Name),
				ActualName: l.Name,
			}, nil
		}
		ln := strings.ToLower(l.Name)
		if len(suggestions) < maxLabelSuggestions && (strings.Contains(ln, lower) || strings.Contains(lower, ln)) {
			suggestions = append(suggestions, l.Name)
		}
	}

	return &domain.LabelValidation{
		Valid:       false,
		Message:     fmt.Sprintf("Label %q not found in your mailbox", name),
		Suggestions: suggestions,
		Hint:        "The name will be used as typed; create the label in Gmail or pick a suggestion",
	}, nil
}

func (u *kanbanUsecase) ListLabels(ctx context.Context, userID string) ([]domain.Label, error) {
	mb, err := u.mailboxes.ForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	labels, err := u.labels.Labels(ctx, userID, mb)
	if err != nil {
		return nil, fmt.Errorf("%w: list labels: %v", domain.ErrUpstream, err)
	}
	return labels, nil
}

func (u *kanbanUsecase) ValidateLabel(ctx context.Context, userID, name string) (*domain.LabelValidation, error) {
	mb, err := u.mailboxes.ForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	return u.labels.Validate(ctx, userID, mb, name)
}

// WatchMailbox registers Gmail push notifications for the user's inbox.
func (u *kanbanUsecase) WatchMailbox(ctx context.Context, userID string) error {
	if u.opts.TopicName == "" {
		return fmt.Errorf("%w: push topic not configured", domain.ErrValidation)
	}
	mb, err := u.mailboxes.ForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	if err := mb.Watch(ctx, u.opts.TopicName); err != nil {
		return fmt.Errorf("%w: watch: %v", domain.ErrUpstream, err)
	}
	log.Printf("[Labels] Watching mailbox of user %s on %s", userID, u.opts.TopicName)
	return nil
}
