package gmail

import (
	"encoding/base64"
	"strings"
	"time"

	"kanban-mail-backend/internal/kanban/domain"

	"google.golang.org/api/gmail/v1"
)

func convertMessage(msg *gmail.Message) *domain.MessageDetail {
	detail := &domain.MessageDetail{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		LabelIDs: msg.LabelIds,
		Headers:  map[string]string{},
	}
	if msg.InternalDate > 0 {
		detail.ReceivedAt = time.UnixMilli(msg.InternalDate).UTC()
	}
	if msg.Payload == nil {
		return detail
	}

	for _, h := range msg.Payload.Headers {
		key := strings.ToLower(h.Name)
		if _, exists := detail.Headers[key]; !exists {
			detail.Headers[key] = h.Value
		}
	}
	walkParts(msg.Payload, detail)
	return detail
}

// walkParts visits the MIME tree depth first. The first text/plain and
// text/html bodies win; any named part counts as an attachment.
func walkParts(part *gmail.MessagePart, detail *domain.MessageDetail) {
	if part == nil {
		return
	}

	if part.Filename != "" {
		detail.HasAttachments = true
	} else if part.Body != nil && part.Body.Data != "" {
		switch strings.ToLower(part.MimeType) {
		case "text/plain":
			if detail.BodyText == "" {
				detail.BodyText = decodeBody(part.Body.Data)
			}
		case "text/html":
			if detail.BodyHTML == "" {
				detail.BodyHTML = decodeBody(part.Body.Data)
			}
		}
	}

	for _, child := range part.Parts {
		walkParts(child, detail)
	}
}

// decodeBody decodes Gmail's base64url bodies, padded or not
func decodeBody(data string) string {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	if b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "=")); err == nil {
		return string(b)
	}
	return ""
}
