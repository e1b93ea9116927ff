package service

import "go-pharma-exchange/internal/ws"

// Notifier publishes live events to connected clients.
type Notifier interface {
	Publish(e ws.Event)
}

type nopNotifier struct{}

func (nopNotifier) Publish(ws.Event) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

const (
	EventInventoryUpdate   = "inventory_update"
	EventMarketplaceUpdate = "marketplace_update"
	EventCatalogUpdate     = "catalog_update"
)
