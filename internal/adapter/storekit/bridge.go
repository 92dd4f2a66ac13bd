package storekit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chema-app/chema-core/internal/domain"
)

// Command operations the host shell executes against the native store SDK.
const (
	OpInitConnection        = "init_connection"
	OpEndConnection         = "end_connection"
	OpGetSubscriptions      = "get_subscriptions"
	OpRequestSubscription   = "request_subscription"
	OpFinishTransaction     = "finish_transaction"
	OpGetAvailablePurchases = "get_available_purchases"
)

// Event types the host shell posts back from the store's listeners.
const (
	EventPurchaseUpdated = "purchase_updated"
	EventPurchaseError   = "purchase_error"
)

// Command is a store operation for the shell to execute. Commands are
// correlated with results by ID.
type Command struct {
	ID      string          `json:"id"`
	Op      string          `json:"op"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Result is the shell's reply to a command.
type Result struct {
	ID    string          `json:"id"`
	Error string          `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Event is an asynchronous store notification pushed by the shell.
type Event struct {
	Type     string                `json:"type"`
	Purchase *domain.Purchase      `json:"purchase,omitempty"`
	Error    *domain.PurchaseError `json:"error,omitempty"`
}

// Bridge implements port.StoreClient over the host shell: the shell
// owns the native store SDK, long-polls commands, and posts results
// and listener events back. Purchase events fan into the port's
// Updates/Errors channels.
type Bridge struct {
	commands chan Command
	updates  chan domain.Purchase
	errs     chan domain.PurchaseError

	mu      sync.Mutex
	pending map[string]chan Result

	replyTimeout time.Duration
}

// NewBridge creates a host-shell store bridge.
func NewBridge() *Bridge {
	return &Bridge{
		commands:     make(chan Command, 16),
		updates:      make(chan domain.Purchase, 4),
		errs:         make(chan domain.PurchaseError, 4),
		pending:      make(map[string]chan Result),
		replyTimeout: 20 * time.Second,
	}
}

// --- port.StoreClient ---

// InitConnection opens the store connection on the native side.
func (b *Bridge) InitConnection(ctx context.Context) error {
	_, err := b.call(ctx, OpInitConnection, nil)
	return err
}

// EndConnection closes the native store connection.
func (b *Bridge) EndConnection() error {
	ctx, cancel := context.WithTimeout(context.Background(), b.replyTimeout)
	defer cancel()
	_, err := b.call(ctx, OpEndConnection, nil)
	return err
}

// Subscriptions fetches catalog entries for the given SKUs.
func (b *Bridge) Subscriptions(ctx context.Context, skus []string) ([]domain.Product, error) {
	data, err := b.call(ctx, OpGetSubscriptions, map[string]interface{}{"skus": skus})
	if err != nil {
		return nil, err
	}
	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("storekit: decode subscriptions: %w", err)
	}
	return products, nil
}

// RequestSubscription asks the shell to present the purchase sheet.
// The reply only acknowledges that the sheet was requested; the
// purchase result arrives later on Updates or Errors.
func (b *Bridge) RequestSubscription(ctx context.Context, sku string) error {
	_, err := b.call(ctx, OpRequestSubscription, map[string]interface{}{"sku": sku})
	return err
}

// FinishTransaction finalizes a delivered purchase with the store.
func (b *Bridge) FinishTransaction(ctx context.Context, p domain.Purchase, consumable bool) error {
	payload := map[string]interface{}{
		"transaction_id": p.TransactionID,
		"product_id":     p.ProductID,
		"consumable":     consumable,
	}
	_, err := b.call(ctx, OpFinishTransaction, payload)
	return err
}

// AvailablePurchases enumerates previously-owned purchases for restore.
func (b *Bridge) AvailablePurchases(ctx context.Context) ([]domain.Purchase, error) {
	data, err := b.call(ctx, OpGetAvailablePurchases, nil)
	if err != nil {
		return nil, err
	}
	var purchases []domain.Purchase
	if err := json.Unmarshal(data, &purchases); err != nil {
		return nil, fmt.Errorf("storekit: decode purchases: %w", err)
	}
	return purchases, nil
}

// Updates delivers purchase results pushed by the shell.
func (b *Bridge) Updates() <-chan domain.Purchase {
	return b.updates
}

// Errors delivers purchase failures pushed by the shell.
func (b *Bridge) Errors() <-chan domain.PurchaseError {
	return b.errs
}

// --- shell-facing side (used by the bridge handlers) ---

// NextCommand blocks until a command is queued or ctx ends.
func (b *Bridge) NextCommand(ctx context.Context) (Command, error) {
	select {
	case cmd := <-b.commands:
		return cmd, nil
	case <-ctx.Done():
		return Command{}, ctx.Err()
	}
}

// PostResult delivers the shell's reply for a previously issued command.
// Results for unknown or timed-out commands are dropped.
func (b *Bridge) PostResult(r Result) {
	b.mu.Lock()
	ch, ok := b.pending[r.ID]
	delete(b.pending, r.ID)
	b.mu.Unlock()

	if !ok {
		slog.Warn("store result for unknown command", "id", r.ID)
		return
	}
	ch <- r
}

// ErrEventBacklog reports that the consumer is not draining purchase
// events and the shell should retry delivery.
var ErrEventBacklog = errors.New("storekit: event queue full")

// PostEvent ingests a store listener event from the shell. The send
// never blocks the shell's request: when the consumer is not draining,
// the event is rejected with ErrEventBacklog instead.
func (b *Bridge) PostEvent(e Event) error {
	switch e.Type {
	case EventPurchaseUpdated:
		if e.Purchase == nil {
			return fmt.Errorf("storekit: purchase_updated event without purchase")
		}
		select {
		case b.updates <- *e.Purchase:
		default:
			slog.Warn("purchase update rejected, consumer not draining", "transaction_id", e.Purchase.TransactionID)
			return ErrEventBacklog
		}
	case EventPurchaseError:
		if e.Error == nil {
			return fmt.Errorf("storekit: purchase_error event without error")
		}
		select {
		case b.errs <- *e.Error:
		default:
			slog.Warn("purchase error rejected, consumer not draining", "code", e.Error.Code)
			return ErrEventBacklog
		}
	default:
		return fmt.Errorf("storekit: unknown event type %q", e.Type)
	}
	return nil
}

// call queues a command and waits for its correlated result.
func (b *Bridge) call(ctx context.Context, op string, payload interface{}) (json.RawMessage, error) {
	var raw json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("storekit: encode %s: %w", op, err)
		}
		raw = encoded
	}

	cmd := Command{ID: uuid.NewString(), Op: op, Payload: raw}
	reply := make(chan Result, 1)

	b.mu.Lock()
	b.pending[cmd.ID] = reply
	b.mu.Unlock()

	cleanup := func() {
		b.mu.Lock()
		delete(b.pending, cmd.ID)
		b.mu.Unlock()
	}

	select {
	case b.commands <- cmd:
	case <-ctx.Done():
		cleanup()
		return nil, fmt.Errorf("storekit: %s not queued: %w", op, ctx.Err())
	}

	timer := time.NewTimer(b.replyTimeout)
	defer timer.Stop()

	select {
	case r := <-reply:
		if r.Error != "" {
			return nil, fmt.Errorf("storekit: %s: %s", op, r.Error)
		}
		return r.Data, nil
	case <-timer.C:
		cleanup()
		return nil, fmt.Errorf("storekit: %s timed out waiting for shell", op)
	case <-ctx.Done():
		cleanup()
		return nil, fmt.Errorf("storekit: %s: %w", op, ctx.Err())
	}
}
