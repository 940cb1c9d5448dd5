package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/CampusElect/CE-Backend/internal/utils"
	"golang.org/x/time/rate"
)

// Throttle limits ballot submissions per authenticated user. A voter only
// ever needs one successful submission per position, so the budget is tight;
// the point is to blunt scripted retry loops, not to be fair scheduling.
type Throttle struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewThrottle(perMinute float64, burst int) *Throttle {
	return &Throttle{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perMinute / 60.0),
		burst:    burst,
	}
}

func (t *Throttle) limiterFor(key string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	lim, ok := t.limiters[key]
	if !ok {
		lim = rate.NewLimiter(t.limit, t.burst)
		t.limiters[key] = lim
	}
	return lim
}

// Middleware rejects with 429 once the caller's budget is spent. Must run
// after SessionMiddleware so the user id is already in the context.
func (t *Throttle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := utils.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
			return
		}

		if !t.limiterFor(userID).Allow() {
			w.Header().Set("Retry-After", time.Now().Add(time.Minute).UTC().Format(http.TimeFormat))
			http.Error(w, "Too many vote attempts, slow down", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
