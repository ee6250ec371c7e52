package chroma

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"kanban-mail-backend/pkg/config"
	"kanban-mail-backend/pkg/vector"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
)

const (
	keyUserID      = "user_id"
	keyMessageID   = "message_id"
	keySubject     = "subject"
	keySenderName  = "sender_name"
	keySenderEmail = "sender_email"
	keySnippet     = "snippet"
	keySummary     = "summary"
	keyCreatedAt   = "created_at"
)

// ChromaClient implements vector.Store on top of a Chroma collection. Vectors
// are computed by the caller; the embedding function is only attached so the
// collection records which model produced them.
type ChromaClient struct {
	client    chroma.Client
	embedFunc embeddings.EmbeddingFunction

	mu          sync.RWMutex
	collections map[string]chroma.Collection
}

// NewChromaClient connects to Chroma Cloud when an API key is set, and to
// CHROMA_URL otherwise.
func NewChromaClient(cfg *config.Config, embedFunc embeddings.EmbeddingFunction) (*ChromaClient, error) {
	if cfg.ChromaAPIKey == "" && cfg.ChromaURL == "" {
		return nil, fmt.Errorf("CHROMA_API_KEY or CHROMA_URL is required")
	}

	var client chroma.Client
	var err error
	switch {
	case cfg.ChromaAPIKey == "":
		client, err = chroma.NewHTTPClient(chroma.WithBaseURL(cfg.ChromaURL))
	case cfg.ChromaDatabase != "" && cfg.ChromaTenant != "":
		client, err = chroma.NewHTTPClient(
			chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
			chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
			chroma.WithDatabaseAndTenant(cfg.ChromaDatabase, cfg.ChromaTenant),
		)
	case cfg.ChromaTenant != "":
		client, err = chroma.NewHTTPClient(
			chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
			chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
			chroma.WithTenant(cfg.ChromaTenant),
		)
	default:
		client, err = chroma.NewHTTPClient(
			chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
			chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Chroma client: %w", err)
	}

	return &ChromaClient{
		client:      client,
		embedFunc:   embedFunc,
		collections: make(map[string]chroma.Collection),
	}, nil
}

// EnsureCollection gets or creates a cosine collection. Chroma fixes the
// dimension on the first write, so it is not passed here.
func (c *ChromaClient) EnsureCollection(ctx context.Context, name string, dimension int) error {
	opts := []chroma.CreateCollectionOption{
		chroma.WithHNSWSpaceCreate(embeddings.COSINE),
	}
	if c.embedFunc != nil {
		opts = append(opts, chroma.WithEmbeddingFunctionCreate(c.embedFunc))
	}

	collection, err := c.client.GetOrCreateCollection(ctx, name, opts...)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	c.mu.Lock()
	c.collections[name] = collection
	c.mu.Unlock()

	log.Printf("Initialized Chroma collection: %s (dimension %d)", name, dimension)
	return nil
}

func (c *ChromaClient) collection(name string) (chroma.Collection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	col, ok := c.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %s not initialized", name)
	}
	return col, nil
}

// Upsert writes the point, replacing any previous one with the same id
func (c *ChromaClient) Upsert(ctx context.Context, collectionName string, point vector.Point) error {
	collection, err := c.collection(collectionName)
	if err != nil {
		return err
	}

	metadata, err := chroma.NewDocumentMetadataFromMap(map[string]interface{}{
		keyUserID:      point.Payload.UserID,
		keyMessageID:   point.Payload.MessageID,
		keySubject:     point.Payload.Subject,
		keySenderName:  point.Payload.SenderName,
		keySenderEmail: point.Payload.SenderEmail,
		keySnippet:     point.Payload.Snippet,
		keySummary:     point.Payload.Summary,
		keyCreatedAt:   point.Payload.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to create metadata: %w", err)
	}

	err = collection.Upsert(
		ctx,
		chroma.WithIDs(chroma.DocumentID(point.ID)),
		chroma.WithEmbeddings(embeddings.NewEmbeddingFromFloat32(point.Vector)),
		chroma.WithMetadatas(metadata),
		chroma.WithTexts(point.Document),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}
	return nil
}

// Query runs a nearest-neighbour search restricted to userID. Cosine
// distances are turned into similarities (1 - d).
func (c *ChromaClient) Query(ctx context.Context, collectionName string, vec []float32, userID string, limit int) ([]vector.Hit, error) {
	collection, err := c.collection(collectionName)
	if err != nil {
		return nil, err
	}

	results, err := collection.Query(
		ctx,
		chroma.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vec)),
		chroma.WithNResults(limit),
		chroma.WithWhereQuery(chroma.EqString(keyUserID, userID)),
		chroma.WithIncludeQuery(chroma.IncludeMetadatas, chroma.IncludeDistances),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}
	if results == nil || results.CountGroups() == 0 {
		return []vector.Hit{}, nil
	}

	idGroups := results.GetIDGroups()
	distanceGroups := results.GetDistancesGroups()
	metadataGroups := results.GetMetadatasGroups()
	if len(idGroups) == 0 {
		return []vector.Hit{}, nil
	}

	hits := make([]vector.Hit, 0, len(idGroups[0]))
	for i := range idGroups[0] {
		hit := vector.Hit{}
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			hit.Score = 1 - float64(distanceGroups[0][i])
		}
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) {
			hit.Payload = payloadFromMetadata(metadataGroups[0][i])
		}
		hit.MessageID = hit.Payload.MessageID
		hits = append(hits, hit)
	}
	return hits, nil
}

// Scroll pages through the user's points. The cursor is the numeric offset of
// the next page.
func (c *ChromaClient) Scroll(ctx context.Context, collectionName, userID, cursor string, limit int) ([]vector.Payload, string, error) {
	collection, err := c.collection(collectionName)
	if err != nil {
		return nil, "", err
	}

	offset := 0
	if cursor != "" {
		offset, err = strconv.Atoi(cursor)
		if err != nil || offset < 0 {
			return nil, "", fmt.Errorf("invalid scroll cursor %q", cursor)
		}
	}

	result, err := collection.Get(
		ctx,
		chroma.WithWhereGet(chroma.EqString(keyUserID, userID)),
		chroma.WithLimitGet(limit),
		chroma.WithOffsetGet(offset),
		chroma.WithIncludeGet(chroma.IncludeMetadatas),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to scroll collection: %w", err)
	}

	metadatas := result.GetMetadatas()
	payloads := make([]vector.Payload, 0, len(metadatas))
	for _, md := range metadatas {
		payloads = append(payloads, payloadFromMetadata(md))
	}

	next := ""
	if len(payloads) == limit {
		next = strconv.Itoa(offset + len(payloads))
	}
	return payloads, next, nil
}

func (c *ChromaClient) Delete(ctx context.Context, collectionName, id string) error {
	collection, err := c.collection(collectionName)
	if err != nil {
		return err
	}
	if err := collection.Delete(ctx, chroma.WithIDsDelete(chroma.DocumentID(id))); err != nil {
		return fmt.Errorf("failed to delete embedding: %w", err)
	}
	return nil
}

func payloadFromMetadata(md chroma.DocumentMetadata) vector.Payload {
	if md == nil {
		return vector.Payload{}
	}
	get := func(key string) string {
		v, _ := md.GetString(key)
		return v
	}
	p := vector.Payload{
		UserID:      get(keyUserID),
		MessageID:   get(keyMessageID),
		Subject:     get(keySubject),
		SenderName:  get(keySenderName),
		SenderEmail: get(keySenderEmail),
		Snippet:     get(keySnippet),
		Summary:     get(keySummary),
	}
	if ts, err := time.Parse(time.RFC3339, get(keyCreatedAt)); err == nil {
		p.CreatedAt = ts
	}
	return p
}
