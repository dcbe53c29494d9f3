package realtime

import (
	"sync"

	"github.com/socialsync/api/internal/svc/presence"
)

type Frame struct {
	Event string
	Data  any
}

// Recorder is an in-memory Conn that keeps every frame it is sent
type Recorder struct {
	handle presence.Handle
	mx     sync.Mutex
	frames []Frame
	closed bool
}

func NewRecorder(handle presence.Handle) *Recorder {
	return &Recorder{handle: handle}
}

func (r *Recorder) Handle() presence.Handle {
	return r.handle
}

func (r *Recorder) Send(event string, payload any) error {
	r.mx.Lock()
	defer r.mx.Unlock()

	if r.closed {
		return ErrConnClosed
	}

	r.frames = append(r.frames, Frame{Event: event, Data: payload})

	return nil
}

func (r *Recorder) Close() {
	r.mx.Lock()
	r.closed = true
	r.mx.Unlock()
}

func (r *Recorder) Frames() []Frame {
	r.mx.Lock()
	defer r.mx.Unlock()

	out := make([]Frame, len(r.frames))
	copy(out, r.frames)

	return out
}

// Events lists the names of the received frames in arrival order
func (r *Recorder) Events() []string {
	frames := r.Frames()

	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = f.Event
	}

	return out
}
