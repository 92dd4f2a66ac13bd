package storekit

import (
	"context"

	"github.com/chema-app/chema-core/internal/domain"
	"github.com/chema-app/chema-core/internal/port"
)

// Disabled is the StoreClient for platforms without in-app purchase.
// Every operation reports the platform limitation; the event channels
// never deliver.
type Disabled struct{}

// NewDisabled returns the no-store StoreClient.
func NewDisabled() *Disabled {
	return &Disabled{}
}

func (Disabled) InitConnection(context.Context) error { return port.ErrStoreUnavailable }
func (Disabled) EndConnection() error                 { return nil }

func (Disabled) Subscriptions(context.Context, []string) ([]domain.Product, error) {
	return nil, port.ErrStoreUnavailable
}

func (Disabled) RequestSubscription(context.Context, string) error {
	return port.ErrStoreUnavailable
}

func (Disabled) FinishTransaction(context.Context, domain.Purchase, bool) error {
	return port.ErrStoreUnavailable
}

func (Disabled) AvailablePurchases(context.Context) ([]domain.Purchase, error) {
	return nil, port.ErrStoreUnavailable
}

// Updates returns a channel that never delivers.
func (Disabled) Updates() <-chan domain.Purchase { return nil }

// Errors returns a channel that never delivers.
func (Disabled) Errors() <-chan domain.PurchaseError { return nil }
