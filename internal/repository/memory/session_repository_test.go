package memory

import (
	"testing"
	"time"

	"e261-voice-be/pkg/conversation"

	"github.com/stretchr/testify/assert"
)

func TestSessionRepositoryExpires(t *testing.T) {
	repo := NewSessionRepository(50 * time.Millisecond)
	repo.Save(&conversation.Session{ID: "a", Status: conversation.StatusActive})

	got, ok := repo.Get("a")
	assert.True(t, ok)
	assert.Equal(t, conversation.StatusActive, got.Status)
	assert.Equal(t, 1, repo.Count())

	assert.Eventually(t, func() bool {
		_, ok := repo.Get("a")
		return !ok
	}, time.Second, 10*time.Millisecond)

	repo.Save(&conversation.Session{ID: "b"})
	repo.Delete("b")
	_, ok = repo.Get("b")
	assert.False(t, ok)
}
