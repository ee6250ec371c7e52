package gmail

import (
	"context"
	"fmt"
	"log"
	"time"

	"kanban-mail-backend/internal/kanban/domain"

	"google.golang.org/api/gmail/v1"
)

const (
	user            = "me"
	maxListPageSize = 500
)

// Client talks to one user's mailbox. Every call runs under its own timeout.
type Client struct {
	srv     *gmail.Service
	timeout time.Duration
}

func NewClientFromService(srv *gmail.Service) *Client {
	return &Client{srv: srv, timeout: defaultRequestTimeout}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// ListMessages lists message ids carrying labelID, newest first
func (c *Client) ListMessages(ctx context.Context, labelID string, pageSize int, pageToken string) (*domain.MessagePage, error) {
	if pageSize <= 0 || pageSize > maxListPageSize {
		pageSize = maxListPageSize
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	call := c.srv.Users.Messages.List(user).MaxResults(int64(pageSize)).Context(ctx)
	if labelID != "" {
		call = call.LabelIds(labelID)
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list messages for label %s: %w", labelID, err)
	}

	page := &domain.MessagePage{
		IDs:                make([]string, 0, len(resp.Messages)),
		NextPageToken:      resp.NextPageToken,
		ResultSizeEstimate: int(resp.ResultSizeEstimate),
	}
	for _, m := range resp.Messages {
		page.IDs = append(page.IDs, m.Id)
	}
	return page, nil
}

// GetMessageDetail fetches the full message and flattens its MIME tree
func (c *Client) GetMessageDetail(ctx context.Context, messageID string) (*domain.MessageDetail, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	msg, err := c.srv.Users.Messages.Get(user, messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to get message %s: %w", messageID, err)
	}
	return convertMessage(msg), nil
}

// ListLabels retrieves all labels of the mailbox
func (c *Client) ListLabels(ctx context.Context) ([]domain.Label, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.srv.Users.Labels.List(user).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve labels: %w", err)
	}

	labels := make([]domain.Label, 0, len(resp.Labels))
	for _, l := range resp.Labels {
		labelType := domain.LabelTypeUser
		if l.Type == "system" {
			labelType = domain.LabelTypeSystem
		}
		labels = append(labels, domain.Label{ID: l.Id, Name: l.Name, Type: labelType})
	}
	return labels, nil
}

// ModifyLabels adds and/or removes labels from a message
func (c *Client) ModifyLabels(ctx context.Context, messageID string, add, remove []string) error {
	if len(add) == 0 && len(remove) == 0 {
		return nil
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req := &gmail.ModifyMessageRequest{}
	if len(add) > 0 {
		req.AddLabelIds = add
	}
	if len(remove) > 0 {
		req.RemoveLabelIds = remove
	}

	if _, err := c.srv.Users.Messages.Modify(user, messageID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to modify message labels: %w", err)
	}
	return nil
}

// Watch sets up push notifications for the user's inbox
func (c *Client) Watch(ctx context.Context, topicName string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	// Only one push client is allowed per user, so drop any previous watch
	_ = c.srv.Users.Stop(user).Context(ctx).Do()

	resp, err := c.srv.Users.Watch(user, &gmail.WatchRequest{
		TopicName: topicName,
		LabelIds:  []string{"INBOX"},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to watch mailbox: %w", err)
	}
	log.Printf("[Gmail] Watch started on %s. Expiration: %d, HistoryId: %d", topicName, resp.Expiration, resp.HistoryId)
	return nil
}
