package live

import (
	"context"
	"fmt"
)

const (
	addrAddNotes    = "/live/clip/add/notes"
	addrGetNotes    = "/live/clip/get/notes"
	addrRemoveNotes = "/live/clip/remove/notes"
)

// Note is one MIDI note in a clip. Times are in beats.
type Note struct {
	Pitch     int     `json:"pitch"`
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
	Velocity  int     `json:"velocity"`
	Mute      bool    `json:"mute,omitempty"`
}

// Validate checks the note against MIDI and clip limits.
func (n Note) Validate() error {
	switch {
	case n.Pitch < 0 || n.Pitch > 127:
		return fmt.Errorf("%w: pitch %d not in [0, 127]", ErrOutOfRange, n.Pitch)
	case n.Velocity < 1 || n.Velocity > 127:
		return fmt.Errorf("%w: velocity %d not in [1, 127]", ErrOutOfRange, n.Velocity)
	case n.StartTime < 0:
		return fmt.Errorf("%w: start time %g is negative", ErrOutOfRange, n.StartTime)
	case n.Duration <= 0:
		return fmt.Errorf("%w: duration %g must be positive", ErrOutOfRange, n.Duration)
	}
	return nil
}

// AddNotes writes notes into a clip, NoteBatchSize notes per datagram,
// paced by SendRate. Every note is validated before anything is sent.
// It returns the number of datagrams sent.
func (s *Session) AddNotes(ctx context.Context, track, slot int, notes []Note) (int, error) {
	if err := checkSlot(track, slot); err != nil {
		return 0, err
	}
	for i, n := range notes {
		if err := n.Validate(); err != nil {
			return 0, fmt.Errorf("note %d: %w", i, err)
		}
	}

	batches := 0
	for start := 0; start < len(notes); start += s.opts.NoteBatchSize {
		end := min(start+s.opts.NoteBatchSize, len(notes))
		if err := s.paced(ctx); err != nil {
			return batches, err
		}
		args := make([]any, 0, 2+5*(end-start))
		args = append(args, track, slot)
		for _, n := range notes[start:end] {
			args = append(args, n.Pitch, n.StartTime, n.Duration, n.Velocity, n.Mute)
		}
		s.c.Send(addrAddNotes, args...)
		batches++
	}
	return batches, nil
}

// Notes reads every note in a clip.
func (s *Session) Notes(ctx context.Context, track, slot int) ([]Note, error) {
	if err := checkSlot(track, slot); err != nil {
		return nil, err
	}
	res, err := s.queryIndexed(ctx, addrGetNotes, track, slot)
	if err != nil {
		return nil, err
	}
	return parseNotes(res)
}

// ClearNotes removes every note from a clip.
func (s *Session) ClearNotes(track, slot int) error {
	if err := checkSlot(track, slot); err != nil {
		return err
	}
	s.c.Send(addrRemoveNotes, track, slot)
	return nil
}

// parseNotes reads flat (pitch, start, duration, velocity, mute) tuples.
func parseNotes(args []any) ([]Note, error) {
	if len(args)%5 != 0 {
		return nil, fmt.Errorf("%w: %s: %d values is not a whole number of notes", ErrUnexpectedReply, addrGetNotes, len(args))
	}
	notes := make([]Note, 0, len(args)/5)
	for i := 0; i < len(args); i += 5 {
		var n Note
		var err error
		if n.Pitch, err = intAt(addrGetNotes, args, i); err != nil {
			return nil, err
		}
		if n.StartTime, err = floatAt(addrGetNotes, args, i+1); err != nil {
			return nil, err
		}
		if n.Duration, err = floatAt(addrGetNotes, args, i+2); err != nil {
			return nil, err
		}
		if n.Velocity, err = intAt(addrGetNotes, args, i+3); err != nil {
			return nil, err
		}
		if n.Mute, err = boolAt(addrGetNotes, args, i+4); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}
