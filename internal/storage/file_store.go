package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

type fileData struct {
	Subscribers []Subscriber `json:"subscribers"`
	Records     []NewsRecord `json:"records"`
}

// FileStore keeps everything in one JSON file, rewritten on every change.
type FileStore struct {
	path string
	mu   sync.RWMutex
	data fileData
}

var _ Store = (*FileStore)(nil)

// NewFileStore loads path, starting empty when the file does not exist.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) load() error {
	raw, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read store file: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &fs.data); err != nil {
		return fmt.Errorf("failed to unmarshal store: %w", err)
	}
	return nil
}

// save writes via a temp file so a crash never leaves half a document.
// Callers hold the write lock.
func (fs *FileStore) save() error {
	raw, err := json.MarshalIndent(fs.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}
	if dir := filepath.Dir(fs.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create store dir: %w", err)
		}
	}
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	return os.Rename(tmp, fs.path)
}

func (fs *FileStore) indexOf(userID string) int {
	for i, s := range fs.data.Subscribers {
		if s.UserID == userID {
			return i
		}
	}
	return -1
}

func (fs *FileStore) AddSubscriber(_ context.Context, userID string, joinedAt time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	sub := Subscriber{UserID: userID, Active: true, JoinedAt: joinedAt}
	if i := fs.indexOf(userID); i >= 0 {
		fs.data.Subscribers[i] = sub
	} else {
		fs.data.Subscribers = append(fs.data.Subscribers, sub)
	}
	return fs.save()
}

func (fs *FileStore) RemoveSubscriber(_ context.Context, userID string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	i := fs.indexOf(userID)
	if i < 0 {
		return nil
	}
	fs.data.Subscribers = append(fs.data.Subscribers[:i], fs.data.Subscribers[i+1:]...)
	return fs.save()
}

func (fs *FileStore) GetSubscriber(_ context.Context, userID string) (Subscriber, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if i := fs.indexOf(userID); i >= 0 {
		return fs.data.Subscribers[i], nil
	}
	return Subscriber{}, ErrNotFound
}

func (fs *FileStore) CountSubscribers(context.Context) (int, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.data.Subscribers), nil
}

func (fs *FileStore) ActiveSubscribers(_ context.Context, limit int) ([]Subscriber, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	var out []Subscriber
	for _, s := range fs.data.Subscribers {
		if !s.Active {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (fs *FileStore) SaveNewsRecord(_ context.Context, rec NewsRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.data.Records = append(fs.data.Records, rec)
	return fs.save()
}

func (fs *FileStore) IsLinkSent(_ context.Context, link string, now time.Time) (bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	for _, r := range fs.data.Records {
		if r.Link == link && r.ExpireAt.After(now) {
			return true, nil
		}
	}
	return false, nil
}

func (fs *FileStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	kept := fs.data.Records[:0]
	removed := 0
	for _, r := range fs.data.Records {
		if !r.ExpireAt.After(now) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	fs.data.Records = kept
	if removed == 0 {
		return 0, nil
	}
	return removed, fs.save()
}

func (fs *FileStore) Close() error { return nil }
