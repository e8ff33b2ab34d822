package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// RetrievalCursor is the per-session pagination state for search continuations.
// LastQuery is replayed verbatim when the user asks for "more".
type RetrievalCursor struct {
	SessionId string
	LastQuery string
	Filters   map[string][]interface{}
	Offset    int
	HasMore   bool
	UpdatedAt time.Time
}

type CursorRepository struct {
	cache *cache.Cache
}

func NewCursorRepository() *CursorRepository {
	// Cursors outlive a single turn but not an idle session. One hour default
	// expiration, purge sweep every 10 minutes.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &CursorRepository{
		cache: c,
	}
}

func (r *CursorRepository) Save(cursor *RetrievalCursor) {
	cursor.UpdatedAt = time.Now()
	r.cache.Set(cursor.SessionId, cursor, cache.DefaultExpiration)
}

func (r *CursorRepository) Get(sessionId string) (*RetrievalCursor, bool) {
	if x, found := r.cache.Get(sessionId); found {
		return x.(*RetrievalCursor), true
	}
	return nil, false
}

func (r *CursorRepository) Delete(sessionId string) {
	r.cache.Delete(sessionId)
}
