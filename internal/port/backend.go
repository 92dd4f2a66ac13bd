package port

import (
	"context"

	"github.com/chema-app/chema-core/internal/domain"
)

// Biller covers the backend's billing surface: receipt verification,
// web checkout, and plan mutation.
type Biller interface {
	// VerifyReceipt forwards a store receipt for server-side
	// verification. A non-nil error means the purchase must not be
	// finalized with the store.
	VerifyReceipt(ctx context.Context, userID string, v domain.ReceiptVerification) error

	// CreateCheckoutSession starts a web billing checkout and returns
	// the URL for the shell to open externally.
	CreateCheckoutSession(ctx context.Context, userID string, plan domain.PlanTier) (string, error)

	// CreatePortalSession opens the billing management portal for a
	// user with a linked billing customer.
	CreatePortalSession(ctx context.Context, userID string) (string, error)

	// UpdatePlan directly mutates the user's plan (fallback path).
	UpdatePlan(ctx context.Context, userID string, plan domain.PlanTier) error

	// SyncUser asks the backend to provision the user's profile row.
	SyncUser(ctx context.Context, userID string) error
}

// Assistant is the backend chat-inference surface.
type Assistant interface {
	// Ask sends the question with prior history and returns the reply.
	Ask(ctx context.Context, question string, history []domain.Message) (string, error)
}

// ThreadStore is the backend's conversation-thread surface.
type ThreadStore interface {
	CurrentThread(ctx context.Context, userID string) (*domain.Thread, error)
	Threads(ctx context.Context, userID string) ([]domain.Thread, error)
	CreateThread(ctx context.Context, userID, title string) (*domain.Thread, error)
	ActivateThread(ctx context.Context, threadID string) error
	RenameThread(ctx context.Context, threadID, title string) error
	DeleteThread(ctx context.Context, threadID string) error
	Messages(ctx context.Context, threadID string, limit int) ([]domain.Message, error)
	AppendMessage(ctx context.Context, threadID string, m domain.Message) (*domain.Message, error)
}

// JournalStore is the backend's record-keeping surface: decisions,
// outcomes, milestones, and weekly reviews.
type JournalStore interface {
	Decisions(ctx context.Context, userID string) ([]domain.Decision, error)
	ResolveDecision(ctx context.Context, decisionID, userID, content, hiloID string) error
	DeleteDecision(ctx context.Context, decisionID string) error

	Outcomes(ctx context.Context, userID string) ([]domain.Outcome, error)
	DeleteOutcome(ctx context.Context, outcomeID string) error

	Milestones(ctx context.Context, userID string) ([]domain.Milestone, error)
	DeleteMilestone(ctx context.Context, milestoneID string) error

	LatestWeeklyReview(ctx context.Context, userID string) (*domain.WeeklyReview, error)
	GenerateWeeklyReview(ctx context.Context, userID string, testMode bool) (*domain.WeeklyReview, error)
}

// Notifier surfaces terminal-state alerts to the user.
type Notifier interface {
	Notify(a domain.Alert)
}
