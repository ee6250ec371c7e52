package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	authdomain "kanban-mail-backend/internal/auth/domain"
	"kanban-mail-backend/internal/kanban/domain"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// DefaultPushSyncMax bounds how many inbox messages one push syncs
const DefaultPushSyncMax = 20

// GmailNotification is the payload Gmail publishes on mailbox changes
type GmailNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// UserFinder looks up the owner of a mailbox
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*authdomain.User, error)
}

// InboxSyncer pulls the newest messages of a label into the board
type InboxSyncer interface {
	SyncLabelToItems(ctx context.Context, userID, label string, max int) (domain.BatchResult, error)
}

// GmailPushListener receives Gmail watch notifications and syncs the inbox
type GmailPushListener struct {
	pubsubClient *pubsub.Client
	users        UserFinder
	syncer       InboxSyncer
	topicName    string
	subName      string
	syncMax      int

	mu            sync.Mutex
	lastHistoryID map[string]uint64
}

func NewGmailPushListener(ctx context.Context, projectID, topicName, credentialsFile string, users UserFinder, syncer InboxSyncer) (*GmailPushListener, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	l := newGmailPushListener(users, syncer)
	l.pubsubClient = client
	l.topicName = topicID(topicName)
	l.subName = l.topicName + "-sub"
	return l, nil
}

func newGmailPushListener(users UserFinder, syncer InboxSyncer) *GmailPushListener {
	return &GmailPushListener{
		users:         users,
		syncer:        syncer,
		syncMax:       DefaultPushSyncMax,
		lastHistoryID: make(map[string]uint64),
	}
}

// topicID accepts both "gmail-push" and "projects/p/topics/gmail-push"
func topicID(name string) string {
	if i := strings.LastIndex(name, "/topics/"); i >= 0 {
		return name[i+len("/topics/"):]
	}
	return name
}

// Start blocks receiving messages until ctx is done
func (l *GmailPushListener) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting push listener with topic: %s, subscription: %s", l.topicName, l.subName)

	sub := l.pubsubClient.Subscription(l.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Printf("[PubSub] Error checking subscription existence: %v", err)
		return
	}

	if !exists {
		topic := l.pubsubClient.Topic(l.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			log.Printf("[PubSub] Error checking topic existence: %v", err)
			return
		}
		if !topicExists {
			log.Printf("[PubSub] Topic %s does not exist, cannot create subscription", l.topicName)
			return
		}

		sub, err = l.pubsubClient.CreateSubscription(ctx, l.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 30 * time.Second,
		})
		if err != nil {
			log.Printf("[PubSub] Failed to create subscription: %v", err)
			return
		}
		log.Printf("[PubSub] Created subscription: %s", l.subName)
	}

	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		l.handleData(ctx, msg.Data)
		msg.Ack()
	})
	if err != nil {
		log.Printf("[PubSub] Error receiving messages: %v", err)
	}
}

// Close releases the Pub/Sub client
func (l *GmailPushListener) Close() error {
	if l.pubsubClient == nil {
		return nil
	}
	return l.pubsubClient.Close()
}

// handleData syncs the inbox of the notified user and reports whether it ran
func (l *GmailPushListener) handleData(ctx context.Context, data []byte) bool {
	var notification GmailNotification
	if err := json.Unmarshal(data, &notification); err != nil {
		log.Printf("[PubSub] Failed to unmarshal notification: %v", err)
		return false
	}

	user, err := l.users.FindByEmail(ctx, notification.EmailAddress)
	if err != nil {
		log.Printf("[PubSub] Error finding user by email %s: %v", notification.EmailAddress, err)
		return false
	}
	if user == nil {
		log.Printf("[PubSub] User not found for email: %s", notification.EmailAddress)
		return false
	}

	if !l.advance(user.ID, notification.HistoryID) {
		log.Printf("[PubSub] Skipping stale notification for user %s (historyId %d)", user.ID, notification.HistoryID)
		return false
	}

	result, err := l.syncer.SyncLabelToItems(ctx, user.ID, "INBOX", l.syncMax)
	if err != nil {
		log.Printf("[PubSub] Inbox sync failed for user %s: %v", user.ID, err)
		return false
	}

	log.Printf("[PubSub] Synced inbox for user %s: %d ok, %d failed", user.ID, result.Succeeded, result.Failed)
	return true
}

// advance records historyID and rejects ids at or below the last one seen
func (l *GmailPushListener) advance(userID string, historyID uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.lastHistoryID[userID]; ok && historyID <= last {
		return false
	}
	l.lastHistoryID[userID] = historyID
	return true
}
