package live

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Song-level addresses.
const (
	addrStartPlaying = "/live/song/start_playing"
	addrStopPlaying  = "/live/song/stop_playing"
	addrContinue     = "/live/song/continue_playing"
	addrGetTempo     = "/live/song/get/tempo"
	addrSetTempo     = "/live/song/set/tempo"
	addrIsPlaying    = "/live/song/get/is_playing"
	addrGetSongTime  = "/live/song/get/current_song_time"
	addrSetSongTime  = "/live/song/set/current_song_time"
	addrUndo         = "/live/song/undo"
	addrRedo         = "/live/song/redo"
	addrVersion      = "/live/application/get/version"
	addrNumTracks    = "/live/song/get/num_tracks"
	addrNumScenes    = "/live/song/get/num_scenes"
)

const minTempo, maxTempo = 20.0, 999.0

// Play starts playback from the start marker.
func (s *Session) Play() { s.c.Send(addrStartPlaying) }

// Continue resumes playback from the current position.
func (s *Session) Continue() { s.c.Send(addrContinue) }

// Stop stops playback.
func (s *Session) Stop() { s.c.Send(addrStopPlaying) }

// Undo undoes the last operation in Live.
func (s *Session) Undo() { s.c.Send(addrUndo) }

// Redo redoes the last undone operation.
func (s *Session) Redo() { s.c.Send(addrRedo) }

// SetTempo sets the song tempo. Live accepts 20 to 999 BPM.
func (s *Session) SetTempo(bpm float64) error {
	if err := checkRange("tempo", bpm, minTempo, maxTempo); err != nil {
		return err
	}
	s.c.Send(addrSetTempo, bpm)
	return nil
}

// Tempo returns the song tempo in BPM.
func (s *Session) Tempo(ctx context.Context) (float64, error) {
	res, err := s.query(ctx, addrGetTempo)
	if err != nil {
		return 0, err
	}
	return floatAt(addrGetTempo, res, 0)
}

// IsPlaying reports whether the transport is running.
func (s *Session) IsPlaying(ctx context.Context) (bool, error) {
	res, err := s.query(ctx, addrIsPlaying)
	if err != nil {
		return false, err
	}
	return boolAt(addrIsPlaying, res, 0)
}

// SongTime returns the playhead position in beats.
func (s *Session) SongTime(ctx context.Context) (float64, error) {
	res, err := s.query(ctx, addrGetSongTime)
	if err != nil {
		return 0, err
	}
	return floatAt(addrGetSongTime, res, 0)
}

// SetSongTime moves the playhead to beats.
func (s *Session) SetSongTime(beats float64) error {
	if beats < 0 {
		return fmt.Errorf("%w: song time %g is negative", ErrOutOfRange, beats)
	}
	s.c.Send(addrSetSongTime, beats)
	return nil
}

// Ping measures a tempo round trip, which every Live version answers.
func (s *Session) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if _, err := s.Tempo(ctx); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// Info summarizes the set.
type Info struct {
	Version string  `json:"version"`
	Tempo   float64 `json:"tempo"`
	Playing bool    `json:"playing"`
	Tracks  int     `json:"tracks"`
	Scenes  int     `json:"scenes"`
}

// Version returns Live's "major.minor" version.
func (s *Session) Version(ctx context.Context) (string, error) {
	res, err := s.query(ctx, addrVersion)
	if err != nil {
		return "", err
	}
	major, err := intAt(addrVersion, res, 0)
	if err != nil {
		return "", err
	}
	minor, err := intAt(addrVersion, res, 1)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(major) + "." + strconv.Itoa(minor), nil
}

// Info queries version, tempo, play state and track and scene counts.
// It stops at the first query that fails.
func (s *Session) Info(ctx context.Context) (Info, error) {
	var info Info
	var err error
	if info.Version, err = s.Version(ctx); err != nil {
		return info, err
	}
	if info.Tempo, err = s.Tempo(ctx); err != nil {
		return info, err
	}
	if info.Playing, err = s.IsPlaying(ctx); err != nil {
		return info, err
	}
	if info.Tracks, err = s.TrackCount(ctx); err != nil {
		return info, err
	}
	if info.Scenes, err = s.SceneCount(ctx); err != nil {
		return info, err
	}
	return info, nil
}
