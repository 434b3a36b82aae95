package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a subscriber does not exist.
var ErrNotFound = errors.New("not found")

// Subscriber is a chat user receiving the digest.
type Subscriber struct {
	UserID   string    `json:"user_id"`
	Active   bool      `json:"active"`
	JoinedAt time.Time `json:"joined_at"`
}

// NewsRecord remembers a delivered article until ExpireAt.
type NewsRecord struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Link     string    `json:"link"`
	Category string    `json:"category"`
	SentAt   time.Time `json:"sent_at"`
	ExpireAt time.Time `json:"expire_at"`
}

// NewRecord builds a record with a fresh ID expiring ttl after sentAt.
func NewRecord(title, link, category string, sentAt time.Time, ttl time.Duration) NewsRecord {
	return NewsRecord{
		ID:       uuid.NewString(),
		Title:    title,
		Link:     link,
		Category: category,
		SentAt:   sentAt,
		ExpireAt: sentAt.Add(ttl),
	}
}

// Store persists subscribers and send history.
type Store interface {
	// AddSubscriber stores userID as active, replacing any previous entry.
	AddSubscriber(ctx context.Context, userID string, joinedAt time.Time) error
	RemoveSubscriber(ctx context.Context, userID string) error
	GetSubscriber(ctx context.Context, userID string) (Subscriber, error)
	CountSubscribers(ctx context.Context) (int, error)
	// ActiveSubscribers returns up to limit active subscribers in join order.
	// A non-positive limit returns all of them.
	ActiveSubscribers(ctx context.Context, limit int) ([]Subscriber, error)

	SaveNewsRecord(ctx context.Context, rec NewsRecord) error
	// IsLinkSent reports whether link has a record that has not expired at now.
	IsLinkSent(ctx context.Context, link string, now time.Time) (bool, error)
	// DeleteExpired removes records with ExpireAt <= now and returns how many.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)

	Close() error
}
