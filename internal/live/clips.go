package live

import "context"

const (
	addrCreateClip  = "/live/clip_slot/create_clip"
	addrDeleteClip  = "/live/clip_slot/delete_clip"
	addrFireClip    = "/live/clip_slot/fire"
	addrStopClip    = "/live/clip_slot/stop"
	addrClipGetName = "/live/clip/get/name"
	addrClipSetName = "/live/clip/set/name"
	addrClipLength  = "/live/clip/get/length"
)

// CreateClip creates an empty MIDI clip of lengthBeats in a slot.
func (s *Session) CreateClip(track, slot int, lengthBeats float64) error {
	if err := checkSlot(track, slot); err != nil {
		return err
	}
	if err := checkRange("clip length", lengthBeats, 0.25, 1024); err != nil {
		return err
	}
	s.c.Send(addrCreateClip, track, slot, lengthBeats)
	return nil
}

// DeleteClip removes the clip in a slot.
func (s *Session) DeleteClip(track, slot int) error {
	if err := checkSlot(track, slot); err != nil {
		return err
	}
	s.c.Send(addrDeleteClip, track, slot)
	return nil
}

// FireClip launches the clip in a slot.
func (s *Session) FireClip(track, slot int) error {
	if err := checkSlot(track, slot); err != nil {
		return err
	}
	s.c.Send(addrFireClip, track, slot)
	return nil
}

// StopClip stops the clip in a slot.
func (s *Session) StopClip(track, slot int) error {
	if err := checkSlot(track, slot); err != nil {
		return err
	}
	s.c.Send(addrStopClip, track, slot)
	return nil
}

// SetClipName renames the clip in a slot.
func (s *Session) SetClipName(track, slot int, name string) error {
	if err := checkSlot(track, slot); err != nil {
		return err
	}
	s.c.Send(addrClipSetName, track, slot, name)
	return nil
}

// ClipName returns the name of the clip in a slot.
func (s *Session) ClipName(ctx context.Context, track, slot int) (string, error) {
	if err := checkSlot(track, slot); err != nil {
		return "", err
	}
	res, err := s.queryIndexed(ctx, addrClipGetName, track, slot)
	if err != nil {
		return "", err
	}
	return stringAt(addrClipGetName, res, 0)
}

// ClipLength returns the length in beats of the clip in a slot.
func (s *Session) ClipLength(ctx context.Context, track, slot int) (float64, error) {
	if err := checkSlot(track, slot); err != nil {
		return 0, err
	}
	res, err := s.queryIndexed(ctx, addrClipLength, track, slot)
	if err != nil {
		return 0, err
	}
	return floatAt(addrClipLength, res, 0)
}

func checkSlot(track, slot int) error {
	if err := checkIndex("track", track); err != nil {
		return err
	}
	return checkIndex("clip slot", slot)
}
