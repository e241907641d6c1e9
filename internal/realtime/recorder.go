// internal/realtime/recorder.go
package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Recorder is a Publisher that keeps every delta in memory, keyed by user.
type Recorder struct {
	mu     sync.Mutex
	deltas map[uuid.UUID][]Delta
}

func NewRecorder() *Recorder {
	return &Recorder{deltas: make(map[uuid.UUID][]Delta)}
}

func (r *Recorder) Publish(userID uuid.UUID, d Delta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deltas[userID] = append(r.deltas[userID], d)
}

// For returns the deltas published to userID, oldest first.
func (r *Recorder) For(userID uuid.UUID) []Delta {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Delta(nil), r.deltas[userID]...)
}
