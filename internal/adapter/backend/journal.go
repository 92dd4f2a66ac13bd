package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/chema-app/chema-core/internal/domain"
	"github.com/chema-app/chema-core/internal/port"
)

// Decisions lists the user's recorded decisions.
func (c *Client) Decisions(ctx context.Context, userID string) ([]domain.Decision, error) {
	var resp struct {
		Decisions []domain.Decision `json:"decisions"`
	}
	path := "/api/decisions?user_id=" + url.QueryEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Decisions, nil
}

// ResolveDecision logs an outcome against a decision. A backend
// "upgrade_required" rejection maps to port.ErrUpgradeRequired so the
// shell can open the paywall.
func (c *Client) ResolveDecision(ctx context.Context, decisionID, userID, content, hiloID string) error {
	payload := map[string]string{
		"user_id": userID,
		"content": content,
		"hilo_id": hiloID,
	}
	path := "/api/decisions/" + url.PathEscape(decisionID) + "/resolve"
	err := c.do(ctx, http.MethodPost, path, "", payload, nil)
	if err != nil && strings.Contains(err.Error(), "upgrade_required") {
		return port.ErrUpgradeRequired
	}
	return err
}

// DeleteDecision removes a decision.
func (c *Client) DeleteDecision(ctx context.Context, decisionID string) error {
	return c.do(ctx, http.MethodDelete, "/api/decisions/"+url.PathEscape(decisionID), "", nil, nil)
}

// Outcomes lists the user's recorded outcomes.
func (c *Client) Outcomes(ctx context.Context, userID string) ([]domain.Outcome, error) {
	var resp struct {
		Outcomes []domain.Outcome `json:"outcomes"`
	}
	path := "/api/outcomes?user_id=" + url.QueryEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Outcomes, nil
}

// DeleteOutcome removes an outcome.
func (c *Client) DeleteOutcome(ctx context.Context, outcomeID string) error {
	return c.do(ctx, http.MethodDelete, "/api/outcomes/"+url.PathEscape(outcomeID), "", nil, nil)
}

// Milestones lists the user's milestones.
func (c *Client) Milestones(ctx context.Context, userID string) ([]domain.Milestone, error) {
	var resp struct {
		Milestones []domain.Milestone `json:"milestones"`
	}
	path := "/api/milestones?user_id=" + url.QueryEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Milestones, nil
}

// DeleteMilestone removes a milestone.
func (c *Client) DeleteMilestone(ctx context.Context, milestoneID string) error {
	return c.do(ctx, http.MethodDelete, "/api/milestones/"+url.PathEscape(milestoneID), "", nil, nil)
}

// LatestWeeklyReview fetches the most recent weekly review, if any.
func (c *Client) LatestWeeklyReview(ctx context.Context, userID string) (*domain.WeeklyReview, error) {
	var resp struct {
		Review *domain.WeeklyReview `json:"review"`
	}
	path := "/api/weekly-review/latest?user_id=" + url.QueryEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Review, nil
}

// GenerateWeeklyReview asks the backend to generate a fresh review.
func (c *Client) GenerateWeeklyReview(ctx context.Context, userID string, testMode bool) (*domain.WeeklyReview, error) {
	payload := map[string]interface{}{
		"user_id":   userID,
		"test_mode": testMode,
	}

	var resp struct {
		Review *domain.WeeklyReview `json:"review"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/weekly-review/generate", "", payload, &resp); err != nil {
		return nil, err
	}
	return resp.Review, nil
}
