package domain

// Store SKUs for the subscription products.
const (
	SKULeader  = "leader.subscription"
	SKUFounder = "founder.subscription"
)

// PlanForProduct maps a store product id to the plan tier it grants.
func PlanForProduct(productID string) (PlanTier, bool) {
	switch productID {
	case SKULeader:
		return PlanLeader, true
	case SKUFounder:
		return PlanFounder, true
	}
	return "", false
}

// ProductForPlan maps a paid plan tier to its store product id.
func ProductForPlan(plan PlanTier) (string, bool) {
	switch plan {
	case PlanLeader:
		return SKULeader, true
	case PlanFounder:
		return SKUFounder, true
	}
	return "", false
}

// Product describes a store catalog entry.
type Product struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"` // localized display price
}

// Purchase is a store-delivered purchase result. Delivery by the store
// is necessary but not sufficient for entitlement: the receipt must be
// verified by the backend before the purchase counts as owned.
type Purchase struct {
	ProductID          string `json:"product_id"`
	TransactionID      string `json:"transaction_id"`
	TransactionReceipt string `json:"transaction_receipt"` // opaque signed blob
}

// Store purchase-error codes with defined client behavior.
const (
	PurchaseErrUserCancelled = "E_USER_CANCELLED"
)

// PurchaseError is a store-delivered purchase failure.
type PurchaseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Cancelled reports whether the user abandoned the store flow.
// Cancellation is not an error: it returns the flow to idle silently.
func (e PurchaseError) Cancelled() bool {
	return e.Code == PurchaseErrUserCancelled
}

func (e PurchaseError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// ReceiptVerification is the payload forwarded to the backend for
// server-side receipt verification.
type ReceiptVerification struct {
	ReceiptData   string `json:"receiptData"`
	ProductID     string `json:"productId"`
	TransactionID string `json:"transactionId"`
	Environment   string `json:"environment"` // "sandbox" or "production"
}

// RestoreSummary reports the outcome of a restore-purchases pass.
type RestoreSummary struct {
	Found    int `json:"found"`    // purchases the store reported as owned
	Restored int `json:"restored"` // purchases the backend verified
}
