package vector

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"kanban-mail-backend/pkg/pointid"
)

const (
	DefaultScoreThreshold = 0.5
	defaultStoreTimeout   = 15 * time.Second
	contactOversample     = 3
	contactBatchSize      = 100
)

// Payload is the metadata snapshot stored next to every vector.
type Payload struct {
	UserID      string
	MessageID   string
	Subject     string
	SenderName  string
	SenderEmail string
	Snippet     string
	Summary     string
	CreatedAt   time.Time
}

// Point is one record written to the store.
type Point struct {
	ID       string
	Vector   []float32
	Payload  Payload
	Document string
}

// Hit is a search result. Score is a similarity, higher is closer.
type Hit struct {
	MessageID string
	Score     float64
	Payload   Payload
}

type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Metadata is what callers know about a message when embedding it.
type Metadata struct {
	Subject     string
	SenderName  string
	SenderEmail string
	Snippet     string
	Summary     string
}

// Store is the nearest-neighbour service the gateway talks to. Query scores
// are similarities in [0,1]; Scroll returns "" as next cursor on the last page.
type Store interface {
	EnsureCollection(ctx context.Context, name string, dimension int) error
	Upsert(ctx context.Context, collection string, point Point) error
	Query(ctx context.Context, collection string, vector []float32, userID string, limit int) ([]Hit, error)
	Scroll(ctx context.Context, collection, userID, cursor string, limit int) ([]Payload, string, error)
	Delete(ctx context.Context, collection, id string) error
}

// Gateway isolates the rest of the app from the vector store. It never
// returns store errors: writes report false and reads come back empty.
type Gateway struct {
	store      Store
	collection string
	dimension  int
	timeout    time.Duration
	disabled   atomic.Bool
}

// NewGateway wraps store. A nil store yields a gateway with search disabled.
func NewGateway(store Store, collection string, dimension int) *Gateway {
	g := &Gateway{
		store:      store,
		collection: collection,
		dimension:  dimension,
		timeout:    defaultStoreTimeout,
	}
	if store == nil {
		g.disabled.Store(true)
	}
	return g
}

// Enabled reports whether the store is configured and its collection usable.
func (g *Gateway) Enabled() bool {
	return g != nil && !g.disabled.Load()
}

// Dimension is the vector size the collection was created with.
func (g *Gateway) Dimension() int {
	return g.dimension
}

// EnsureCollection gets or creates the collection. On failure the gateway is
// switched off until the next successful call.
func (g *Gateway) EnsureCollection(ctx context.Context) bool {
	if g == nil || g.store == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.store.EnsureCollection(ctx, g.collection, g.dimension); err != nil {
		log.Printf("[Vector] Failed to ensure collection %s: %v (semantic search disabled)", g.collection, err)
		g.disabled.Store(true)
		return false
	}
	g.disabled.Store(false)
	log.Printf("[Vector] Collection %s ready (dimension %d)", g.collection, g.dimension)
	return true
}

// Upsert writes the vector for messageID. It returns false when nothing was
// persisted, in which case the caller must not flag the item as embedded.
func (g *Gateway) Upsert(ctx context.Context, messageID, userID string, vec []float32, meta Metadata) bool {
	if !g.Enabled() {
		return false
	}
	if g.dimension > 0 && len(vec) != g.dimension {
		log.Printf("[Vector] Rejecting vector for %s: dimension %d, want %d", messageID, len(vec), g.dimension)
		return false
	}

	point := Point{
		ID:     pointid.FromMessageID(messageID),
		Vector: vec,
		Payload: Payload{
			UserID:      userID,
			MessageID:   messageID,
			Subject:     meta.Subject,
			SenderName:  meta.SenderName,
			SenderEmail: meta.SenderEmail,
			Snippet:     meta.Snippet,
			Summary:     meta.Summary,
			CreatedAt:   time.Now().UTC(),
		},
		Document: documentText(meta),
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	if err := g.store.Upsert(ctx, g.collection, point); err != nil {
		log.Printf("[Vector] Upsert failed for message %s: %v", messageID, err)
		return false
	}
	return true
}

// SearchSimilar returns the user's closest points scoring at least
// scoreThreshold (DefaultScoreThreshold when <= 0).
func (g *Gateway) SearchSimilar(ctx context.Context, userID string, vec []float32, limit int, scoreThreshold float64) []Hit {
	if !g.Enabled() || userID == "" || len(vec) == 0 {
		return []Hit{}
	}
	if limit <= 0 {
		limit = 10
	}
	if scoreThreshold <= 0 {
		scoreThreshold = DefaultScoreThreshold
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	hits, err := g.store.Query(ctx, g.collection, vec, userID, limit)
	if err != nil {
		log.Printf("[Vector] Search failed for user %s: %v", userID, err)
		return []Hit{}
	}

	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		// the store already filters, this guards against a misbehaving adapter
		if h.Payload.UserID != "" && h.Payload.UserID != userID {
			continue
		}
		if h.Score < scoreThreshold {
			continue
		}
		if h.MessageID == "" {
			h.MessageID = h.Payload.MessageID
		}
		out = append(out, h)
	}
	return out
}

func (g *Gateway) DeleteEmbedding(ctx context.Context, messageID string) bool {
	if !g.Enabled() {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	if err := g.store.Delete(ctx, g.collection, pointid.FromMessageID(messageID)); err != nil {
		log.Printf("[Vector] Delete failed for message %s: %v", messageID, err)
		return false
	}
	return true
}

// GetUniqueContacts scrolls through the user's points, reading at most three
// times limit of them, and returns distinct senders. The first name seen for
// an address wins.
func (g *Gateway) GetUniqueContacts(ctx context.Context, userID string, limit int) []Contact {
	if !g.Enabled() || limit <= 0 {
		return []Contact{}
	}

	maxRead := limit * contactOversample
	seen := make(map[string]bool)
	contacts := make([]Contact, 0, limit)
	cursor := ""
	read := 0

	for read < maxRead {
		batch := contactBatchSize
		if remaining := maxRead - read; remaining < batch {
			batch = remaining
		}

		scrollCtx, cancel := context.WithTimeout(ctx, g.timeout)
		payloads, next, err := g.store.Scroll(scrollCtx, g.collection, userID, cursor, batch)
		cancel()
		if err != nil {
			log.Printf("[Vector] Contact scroll failed for user %s: %v", userID, err)
			break
		}
		read += len(payloads)

		for _, p := range payloads {
			key := strings.ToLower(strings.TrimSpace(p.SenderEmail))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			contacts = append(contacts, Contact{Name: p.SenderName, Email: p.SenderEmail})
		}

		if next == "" || len(payloads) == 0 {
			break
		}
		cursor = next
	}

	if len(contacts) > limit {
		contacts = contacts[:limit]
	}
	return contacts
}

// documentText is the human-readable form stored alongside the vector.
func documentText(m Metadata) string {
	return fmt.Sprintf("Subject: %s\nFrom: %s <%s>\n%s\n%s", m.Subject, m.SenderName, m.SenderEmail, m.Snippet, m.Summary)
}
