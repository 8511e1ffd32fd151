package memory

import (
	"time"

	"e261-voice-be/pkg/conversation"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps live conversations in process memory. Sessions
// that see no activity for ttl are dropped.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := cache.New(ttl, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

var _ conversation.Store = (*SessionRepository)(nil)

func (r *SessionRepository) Save(session *conversation.Session) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*conversation.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*conversation.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

// Count reports live sessions, expired ones included until the next sweep.
func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
