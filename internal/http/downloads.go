package http

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"budgeting/internal/log"
	"budgeting/internal/services"
)

// downloadStore holds finished reports between the htmx POST and the
// browser's follow-up GET. Each token is served once.
type downloadStore struct {
	mu     sync.Mutex
	items  map[string]pendingDownload
	ttl    time.Duration
	now    func() time.Time
	logger *log.Logger
}

type pendingDownload struct {
	artifact  *services.Artifact
	expiresAt time.Time
}

func newDownloadStore(ttl time.Duration, logger *log.Logger) *downloadStore {
	return &downloadStore{
		items:  make(map[string]pendingDownload),
		ttl:    ttl,
		now:    time.Now,
		logger: logger.WithComponent(log.ComponentCache),
	}
}

// Put stores a and returns the token to fetch it with.
func (d *downloadStore) Put(a *services.Artifact) string {
	token := uuid.NewString()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items[token] = pendingDownload{artifact: a, expiresAt: d.now().Add(d.ttl)}
	return token
}

// Take removes and returns the artifact for token. Expired entries are
// deleted from disk and reported as missing.
func (d *downloadStore) Take(token string) (*services.Artifact, bool) {
	d.mu.Lock()
	item, ok := d.items[token]
	delete(d.items, token)
	d.mu.Unlock()

	if !ok {
		return nil, false
	}
	if d.now().After(item.expiresAt) {
		d.remove(item.artifact)
		return nil, false
	}
	return item.artifact, true
}

// CleanExpired deletes reports nobody came back for.
func (d *downloadStore) CleanExpired() int {
	now := d.now()
	var expired []*services.Artifact

	d.mu.Lock()
	for token, item := range d.items {
		if now.After(item.expiresAt) {
			expired = append(expired, item.artifact)
			delete(d.items, token)
		}
	}
	d.mu.Unlock()

	for _, a := range expired {
		d.remove(a)
	}
	return len(expired)
}

// Clear deletes every pending report.
func (d *downloadStore) Clear() {
	d.mu.Lock()
	items := d.items
	d.items = make(map[string]pendingDownload)
	d.mu.Unlock()

	for _, item := range items {
		d.remove(item.artifact)
	}
}

func (d *downloadStore) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

func (d *downloadStore) remove(a *services.Artifact) {
	if err := a.Remove(); err != nil {
		d.logger.Warn("failed to remove report", log.FieldArtifact, a.Path, log.FieldError, err)
	}
}
