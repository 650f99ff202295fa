package live

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	addrCreateMIDITrack   = "/live/song/create_midi_track"
	addrCreateAudioTrack  = "/live/song/create_audio_track"
	addrCreateReturnTrack = "/live/song/create_return_track"
	addrReturnSetName     = "/live/return_track/set/name"
	addrTrackGetName      = "/live/track/get/name"
	addrTrackSetName      = "/live/track/set/name"
	addrTrackSetVolume    = "/live/track/set/volume"
	addrTrackSetPanning   = "/live/track/set/panning"
	addrTrackSetMute      = "/live/track/set/mute"
	addrTrackSetSolo      = "/live/track/set/solo"
	addrTrackSetArm       = "/live/track/set/arm"
	addrTrackStopClips    = "/live/track/stop_all_clips"
	addrTrackDevices      = "/live/track/get/devices/name"
)

// TrackKind selects what CreateTrack makes.
type TrackKind string

const (
	TrackMIDI   TrackKind = "midi"
	TrackAudio  TrackKind = "audio"
	TrackReturn TrackKind = "return"
)

// ParseTrackKind accepts "midi", "audio" or "return", in any case.
func ParseTrackKind(s string) (TrackKind, error) {
	switch k := TrackKind(strings.ToLower(strings.TrimSpace(s))); k {
	case TrackMIDI, TrackAudio, TrackReturn:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown track type %q", ErrOutOfRange, s)
}

// TrackCount returns the number of regular tracks.
func (s *Session) TrackCount(ctx context.Context) (int, error) {
	res, err := s.query(ctx, addrNumTracks)
	if err != nil {
		return 0, err
	}
	return intAt(addrNumTracks, res, 0)
}

// CreateTrack appends a track of the given kind and names it if name is
// set. For MIDI and audio tracks it waits until Live reports the new track
// and returns its index. Return tracks are not counted by num_tracks, so
// their index is reported as -1.
func (s *Session) CreateTrack(ctx context.Context, kind TrackKind, name string) (int, error) {
	if kind == TrackReturn {
		s.c.Send(addrCreateReturnTrack)
		if name != "" {
			if err := s.sleep(ctx, s.opts.SettleDelay); err != nil {
				return -1, err
			}
			s.c.Send(addrReturnSetName, -1, name)
		}
		return -1, nil
	}

	var addr string
	switch kind {
	case TrackMIDI:
		addr = addrCreateMIDITrack
	case TrackAudio:
		addr = addrCreateAudioTrack
	default:
		return -1, fmt.Errorf("%w: unknown track type %q", ErrOutOfRange, kind)
	}

	before, err := s.TrackCount(ctx)
	if err != nil {
		return -1, err
	}
	s.c.Send(addr, -1)

	index, err := s.awaitTrackCount(ctx, before)
	if err != nil {
		return -1, err
	}
	if name != "" {
		s.c.Send(addrTrackSetName, index, name)
	}
	s.logger.Debug("track created",
		zap.String("kind", string(kind)),
		zap.Int("index", index),
		zap.String("name", name),
	)
	return index, nil
}

// awaitTrackCount polls num_tracks until it exceeds before, returning the
// index of the last track. The wait is bounded by the reply timeout.
func (s *Session) awaitTrackCount(ctx context.Context, before int) (int, error) {
	timeout := s.opts.Timeout
	if timeout <= 0 {
		timeout = DefaultOptions().Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		n, err := s.TrackCount(ctx)
		if err == nil && n > before {
			return n - 1, nil
		}
		if ctx.Err() != nil {
			return -1, fmt.Errorf("%w: track count stayed at %d", ErrNoReply, before)
		}
		if err := s.sleep(ctx, s.opts.SettleDelay); err != nil {
			return -1, fmt.Errorf("%w: track count stayed at %d", ErrNoReply, before)
		}
	}
}

func (s *Session) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrackName returns the name of track.
func (s *Session) TrackName(ctx context.Context, track int) (string, error) {
	if err := checkIndex("track", track); err != nil {
		return "", err
	}
	res, err := s.queryIndexed(ctx, addrTrackGetName, track)
	if err != nil {
		return "", err
	}
	return stringAt(addrTrackGetName, res, 0)
}

// SetTrackName renames track.
func (s *Session) SetTrackName(track int, name string) error {
	if err := checkIndex("track", track); err != nil {
		return err
	}
	s.c.Send(addrTrackSetName, track, name)
	return nil
}

// SetTrackVolume sets the mixer volume, 0 to 1 (0.85 is 0 dB).
func (s *Session) SetTrackVolume(track int, volume float64) error {
	if err := checkIndex("track", track); err != nil {
		return err
	}
	if err := checkRange("volume", volume, 0, 1); err != nil {
		return err
	}
	s.c.Send(addrTrackSetVolume, track, volume)
	return nil
}

// SetTrackPanning sets the pan, -1 (left) to 1 (right).
func (s *Session) SetTrackPanning(track int, pan float64) error {
	if err := checkIndex("track", track); err != nil {
		return err
	}
	if err := checkRange("panning", pan, -1, 1); err != nil {
		return err
	}
	s.c.Send(addrTrackSetPanning, track, pan)
	return nil
}

// SetTrackMute mutes or unmutes track.
func (s *Session) SetTrackMute(track int, on bool) error {
	return s.setTrackFlag(addrTrackSetMute, track, on)
}

// SetTrackSolo solos or unsolos track.
func (s *Session) SetTrackSolo(track int, on bool) error {
	return s.setTrackFlag(addrTrackSetSolo, track, on)
}

// SetTrackArm arms or disarms track for recording.
func (s *Session) SetTrackArm(track int, on bool) error {
	return s.setTrackFlag(addrTrackSetArm, track, on)
}

func (s *Session) setTrackFlag(address string, track int, on bool) error {
	if err := checkIndex("track", track); err != nil {
		return err
	}
	s.c.Send(address, track, on)
	return nil
}

// StopTrackClips stops every clip playing on track.
func (s *Session) StopTrackClips(track int) error {
	if err := checkIndex("track", track); err != nil {
		return err
	}
	s.c.Send(addrTrackStopClips, track)
	return nil
}

// TrackDevices returns the device names on track, in chain order.
func (s *Session) TrackDevices(ctx context.Context, track int) ([]string, error) {
	if err := checkIndex("track", track); err != nil {
		return nil, err
	}
	res, err := s.queryIndexed(ctx, addrTrackDevices, track)
	if err != nil {
		return nil, err
	}
	return stringsOf(res), nil
}
