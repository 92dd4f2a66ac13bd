package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chema-app/chema-core/internal/domain"
	"github.com/chema-app/chema-core/internal/port"
)

// ThreadService is a thin wrapper over the backend's thread and message
// endpoints. Threads are remote-owned; there is no local cache beyond
// the current screen's list, and writes are last-write-wins.
type ThreadService struct {
	threads      port.ThreadStore
	assistant    port.Assistant
	session      *SessionService
	historyLimit int
}

// NewThreadService creates the thread client.
func NewThreadService(threads port.ThreadStore, assistant port.Assistant, session *SessionService, historyLimit int) *ThreadService {
	return &ThreadService{
		threads:      threads,
		assistant:    assistant,
		session:      session,
		historyLimit: historyLimit,
	}
}

// Current returns the user's active thread with its recent messages.
func (s *ThreadService) Current(ctx context.Context) (*domain.Thread, []domain.Message, error) {
	userID, err := s.session.UserID()
	if err != nil {
		return nil, nil, err
	}

	thread, err := s.threads.CurrentThread(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	messages, err := s.threads.Messages(ctx, thread.ID, s.historyLimit)
	if err != nil {
		return nil, nil, err
	}
	return thread, messages, nil
}

// List returns all of the user's threads.
func (s *ThreadService) List(ctx context.Context) ([]domain.Thread, error) {
	userID, err := s.session.UserID()
	if err != nil {
		return nil, err
	}
	return s.threads.Threads(ctx, userID)
}

// Create makes a new thread and switches to it.
func (s *ThreadService) Create(ctx context.Context, title string) (*domain.Thread, error) {
	userID, err := s.session.UserID()
	if err != nil {
		return nil, err
	}

	thread, err := s.threads.CreateThread(ctx, userID, title)
	if err != nil {
		return nil, err
	}
	if err := s.threads.ActivateThread(ctx, thread.ID); err != nil {
		slog.Warn("activate new thread failed", "thread_id", thread.ID, "error", err)
	}
	return thread, nil
}

// Switch activates a thread and returns its recent messages.
func (s *ThreadService) Switch(ctx context.Context, threadID string) ([]domain.Message, error) {
	if err := s.threads.ActivateThread(ctx, threadID); err != nil {
		return nil, err
	}
	return s.threads.Messages(ctx, threadID, s.historyLimit)
}

// Rename changes a thread's title.
func (s *ThreadService) Rename(ctx context.Context, threadID, title string) error {
	return s.threads.RenameThread(ctx, threadID, title)
}

// Delete removes a thread.
func (s *ThreadService) Delete(ctx context.Context, threadID string) error {
	return s.threads.DeleteThread(ctx, threadID)
}

// Messages returns the recent messages of a thread.
func (s *ThreadService) Messages(ctx context.Context, threadID string) ([]domain.Message, error) {
	return s.threads.Messages(ctx, threadID, s.historyLimit)
}

// Ask sends a question to the assistant within a thread: the user
// message is saved, the backend is asked with the prior history, and
// the reply is saved and returned.
func (s *ThreadService) Ask(ctx context.Context, threadID, question string) (*domain.Message, error) {
	if _, err := s.session.UserID(); err != nil {
		return nil, err
	}

	history, err := s.threads.Messages(ctx, threadID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	userMsg := domain.Message{Role: domain.RoleUser, Content: question}
	if _, err := s.threads.AppendMessage(ctx, threadID, userMsg); err != nil {
		return nil, fmt.Errorf("save question: %w", err)
	}

	reply, err := s.assistant.Ask(ctx, question, append(history, userMsg))
	if err != nil {
		return nil, fmt.Errorf("ask: %w", err)
	}

	assistantMsg := domain.Message{Role: domain.RoleAssistant, Content: reply}
	saved, err := s.threads.AppendMessage(ctx, threadID, assistantMsg)
	if err != nil {
		// The reply exists even if saving it failed; return it so the
		// shell can render the turn.
		slog.Warn("save reply failed", "thread_id", threadID, "error", err)
		return &assistantMsg, nil
	}
	return saved, nil
}
