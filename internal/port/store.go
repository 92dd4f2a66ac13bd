package port

import (
	"context"

	"github.com/chema-app/chema-core/internal/domain"
)

// StoreClient abstracts the native in-app-purchase SDK. Purchase
// results are delivered asynchronously on the Updates/Errors channels,
// possibly minutes after RequestSubscription returns, or never if the
// user abandons the store sheet.
type StoreClient interface {
	// InitConnection opens the connection to the store.
	InitConnection(ctx context.Context) error

	// EndConnection closes the connection and releases the event channels.
	EndConnection() error

	// Subscriptions fetches catalog entries for the given SKUs.
	Subscriptions(ctx context.Context, skus []string) ([]domain.Product, error)

	// RequestSubscription starts the purchase flow for a SKU. The
	// result arrives later on Updates or Errors.
	RequestSubscription(ctx context.Context, sku string) error

	// Updates delivers purchase results.
	Updates() <-chan domain.Purchase

	// Errors delivers purchase failures, including user cancellation.
	Errors() <-chan domain.PurchaseError

	// FinishTransaction finalizes a delivered purchase with the store.
	// Subscriptions are finalized as non-consumable.
	FinishTransaction(ctx context.Context, p domain.Purchase, consumable bool) error

	// AvailablePurchases enumerates previously-owned purchases for restore.
	AvailablePurchases(ctx context.Context) ([]domain.Purchase, error)
}
