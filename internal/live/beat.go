package live

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HendryAvila/ableton-mcp/internal/osc"
)

// BeatAddress is where Live streams the current beat.
const BeatAddress = "/live/song/get/beat"

const (
	addrStartListenBeat = "/live/song/start_listen/beat"
	addrStopListenBeat  = "/live/song/stop_listen/beat"
)

// BeatState is a snapshot of the beat stream.
type BeatState struct {
	Listening bool      `json:"listening"`
	Beat      int       `json:"beat"`
	Received  int64     `json:"received"`
	LastAt    time.Time `json:"last_at,omitzero"`
}

// BeatTracker follows the beat events Live pushes while beat listening is
// on. It is fed by the listener goroutine through the dispatch table.
type BeatTracker struct {
	s *Session

	mu    sync.Mutex
	state BeatState
}

// NewBeatTracker subscribes to the beat stream. Events are only sent
// after Start.
func NewBeatTracker(s *Session) (*BeatTracker, error) {
	b := &BeatTracker{s: s}
	if err := s.c.Subscribe(BeatAddress, b.onBeat); err != nil {
		return nil, err
	}
	return b, nil
}

// Start asks Live to push beat events.
func (b *BeatTracker) Start() {
	b.mu.Lock()
	b.state.Listening = true
	b.mu.Unlock()
	b.s.c.Send(addrStartListenBeat)
}

// Stop asks Live to stop pushing beat events. The last state is kept.
func (b *BeatTracker) Stop() {
	b.mu.Lock()
	b.state.Listening = false
	b.mu.Unlock()
	b.s.c.Send(addrStopListenBeat)
}

// State returns the current snapshot.
func (b *BeatTracker) State() BeatState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *BeatTracker) onBeat(msg osc.Message) {
	beat, ok := osc.Int(msg.Args, 0)
	if !ok {
		b.s.logger.Debug("beat without index", zap.Any("args", msg.Args))
		return
	}
	b.mu.Lock()
	b.state.Beat = beat
	b.state.Received++
	b.state.LastAt = time.Now()
	b.mu.Unlock()
}
