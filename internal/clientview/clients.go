package clientview

import (
	"context"
	"sync"

	"github.com/garyjia/sri-declaraciones/internal/models"
)

// ClientLister fetches the client listing
type ClientLister interface {
	ListClients(ctx context.Context) ([]models.ClientSummary, error)
}

// ClientList caches the client listing until it is invalidated. Uploads call
// Invalidate so the next Clients call refetches.
type ClientList struct {
	api ClientLister

	mu      sync.Mutex
	epoch   int
	loaded  int // epoch of the cached listing, -1 when empty
	clients []models.ClientSummary
}

// NewClientList creates an empty listing
func NewClientList(api ClientLister) *ClientList {
	return &ClientList{api: api, loaded: -1}
}

// Invalidate marks the cached listing stale
func (l *ClientList) Invalidate() {
	l.mu.Lock()
	l.epoch++
	l.mu.Unlock()
}

// Clients returns the listing, fetching it when missing or stale. A failed
// fetch keeps the cached listing.
func (l *ClientList) Clients(ctx context.Context) ([]models.ClientSummary, error) {
	l.mu.Lock()
	epoch := l.epoch
	if l.loaded == epoch {
		clients := l.clients
		l.mu.Unlock()
		return clients, nil
	}
	l.mu.Unlock()

	clients, err := l.api.ListClients(ctx)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if epoch >= l.loaded {
		l.clients = clients
		l.loaded = epoch
	}
	return clients, nil
}
