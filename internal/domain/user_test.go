package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionExpired(t *testing.T) {
	var nilSession *Session
	assert.True(t, nilSession.Expired())

	live := &Session{ExpiresAt: time.Now().Add(time.Hour)}
	assert.False(t, live.Expired())

	stale := &Session{ExpiresAt: time.Now().Add(-time.Minute)}
	assert.True(t, stale.Expired())

	// Inside the refresh margin counts as expired.
	closing := &Session{ExpiresAt: time.Now().Add(10 * time.Second)}
	assert.True(t, closing.Expired())
}
