package testutil

import (
	"fmt"
	"sync"

	"github.com/HendryAvila/ableton-mcp/internal/osc"
)

// SimParam is one device parameter in a simulated set.
type SimParam struct {
	Name            string
	Value, Min, Max float64
}

// SimDevice is a device on a simulated track.
type SimDevice struct {
	Name   string
	Params []SimParam
}

// SimNote is a MIDI note in a simulated clip.
type SimNote struct {
	Pitch    int
	Start    float64
	Duration float64
	Velocity int
	Mute     bool
}

// SimClip is a clip in a simulated clip slot.
type SimClip struct {
	Name   string
	Length float64
	Notes  []SimNote
}

// SimTrack is a track in a simulated set.
type SimTrack struct {
	Name              string
	Volume, Panning   float64
	Mute, Solo, Arm   bool
	Devices           []SimDevice
	Clips             map[int]*SimClip
	StopAllClipsCalls int
}

// SimState is the mutable state of a LiveSim.
type SimState struct {
	Tempo        float64
	Playing      bool
	SongTime     float64
	Tracks       []*SimTrack
	ReturnTracks []string
	Scenes       []string
	FiredScenes  []int
	FiredClips   [][2]int
	Undos, Redos int
}

// LiveSim is a FakePeer scripted to behave like a small Live set behind
// the AbletonOSC remote script. Requests on unknown tracks, clips or
// devices get no reply, as with the real script.
type LiveSim struct {
	*FakePeer

	mu    sync.Mutex
	state SimState
}

// NewLiveSim builds a set with a MIDI track carrying one device, an
// audio track, and eight scenes, at 120 BPM.
func NewLiveSim() *LiveSim {
	s := &LiveSim{
		FakePeer: NewFakePeer(),
		state: SimState{
			Tempo: 120,
			Tracks: []*SimTrack{
				{
					Name: "1-MIDI", Volume: 0.85,
					Devices: []SimDevice{{
						Name: "Operator",
						Params: []SimParam{
							{Name: "Device On", Value: 1, Min: 0, Max: 1},
							{Name: "Filter Freq", Value: 0.5, Min: 0, Max: 1},
						},
					}},
					Clips: map[int]*SimClip{},
				},
				{Name: "2-Audio", Volume: 0.85, Clips: map[int]*SimClip{}},
			},
			Scenes: []string{"1", "2", "3", "4", "5", "6", "7", "8"},
		},
	}
	s.script()
	return s
}

// Inspect runs fn with the simulated state locked.
func (s *LiveSim) Inspect(fn func(st *SimState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// Beat injects a beat event as the script does while beat listening is on.
func (s *LiveSim) Beat(n int) {
	s.Inject(osc.NewMessage("/live/song/get/beat", int32(n)))
}

func (s *LiveSim) script() {
	// Song.
	s.query("/live/song/get/tempo", func(st *SimState, _ []any) []any {
		return []any{float32(st.Tempo)}
	})
	s.command("/live/song/set/tempo", func(st *SimState, a []any) {
		if v, ok := osc.Float(a, 0); ok {
			st.Tempo = v
		}
	})
	s.command("/live/song/start_playing", func(st *SimState, _ []any) { st.Playing = true })
	s.command("/live/song/continue_playing", func(st *SimState, _ []any) { st.Playing = true })
	s.command("/live/song/stop_playing", func(st *SimState, _ []any) { st.Playing = false })
	s.query("/live/song/get/is_playing", func(st *SimState, _ []any) []any {
		return []any{boolInt(st.Playing)}
	})
	s.query("/live/song/get/current_song_time", func(st *SimState, _ []any) []any {
		return []any{float32(st.SongTime)}
	})
	s.command("/live/song/set/current_song_time", func(st *SimState, a []any) {
		if v, ok := osc.Float(a, 0); ok {
			st.SongTime = v
		}
	})
	s.command("/live/song/undo", func(st *SimState, _ []any) { st.Undos++ })
	s.command("/live/song/redo", func(st *SimState, _ []any) { st.Redos++ })
	s.query("/live/application/get/version", func(*SimState, []any) []any {
		return []any{int32(12), int32(1)}
	})
	s.query("/live/song/get/num_tracks", func(st *SimState, _ []any) []any {
		return []any{int32(len(st.Tracks))}
	})
	s.query("/live/song/get/num_scenes", func(st *SimState, _ []any) []any {
		return []any{int32(len(st.Scenes))}
	})
	s.command("/live/song/create_midi_track", func(st *SimState, _ []any) {
		st.Tracks = append(st.Tracks, &SimTrack{Name: fmt.Sprintf("%d-MIDI", len(st.Tracks)+1), Clips: map[int]*SimClip{}})
	})
	s.command("/live/song/create_audio_track", func(st *SimState, _ []any) {
		st.Tracks = append(st.Tracks, &SimTrack{Name: fmt.Sprintf("%d-Audio", len(st.Tracks)+1), Clips: map[int]*SimClip{}})
	})
	s.command("/live/song/create_return_track", func(st *SimState, _ []any) {
		st.ReturnTracks = append(st.ReturnTracks, fmt.Sprintf("%c-Return", 'A'+len(st.ReturnTracks)))
	})
	s.command("/live/return_track/set/name", func(st *SimState, a []any) {
		name, _ := osc.String(a, 1)
		if n := len(st.ReturnTracks); n > 0 {
			st.ReturnTracks[n-1] = name
		}
	})
	s.command("/live/song/create_scene", func(st *SimState, _ []any) {
		st.Scenes = append(st.Scenes, fmt.Sprintf("%d", len(st.Scenes)+1))
	})
	s.command("/live/scene/fire", func(st *SimState, a []any) {
		if i, ok := osc.Int(a, 0); ok {
			st.FiredScenes = append(st.FiredScenes, i)
		}
	})
	s.command("/live/scene/set/name", func(st *SimState, a []any) {
		i, _ := osc.Int(a, 0)
		name, _ := osc.String(a, 1)
		if i >= 0 && i < len(st.Scenes) {
			st.Scenes[i] = name
		}
	})

	// Tracks.
	s.trackQuery("/live/track/get/name", func(_ *SimState, t *SimTrack, _ []any) []any {
		return []any{t.Name}
	})
	s.trackCommand("/live/track/set/name", func(t *SimTrack, a []any) {
		if v, ok := osc.String(a, 1); ok {
			t.Name = v
		}
	})
	s.trackCommand("/live/track/set/volume", func(t *SimTrack, a []any) {
		if v, ok := osc.Float(a, 1); ok {
			t.Volume = v
		}
	})
	s.trackCommand("/live/track/set/panning", func(t *SimTrack, a []any) {
		if v, ok := osc.Float(a, 1); ok {
			t.Panning = v
		}
	})
	s.trackCommand("/live/track/set/mute", func(t *SimTrack, a []any) { t.Mute, _ = osc.Bool(a, 1) })
	s.trackCommand("/live/track/set/solo", func(t *SimTrack, a []any) { t.Solo, _ = osc.Bool(a, 1) })
	s.trackCommand("/live/track/set/arm", func(t *SimTrack, a []any) { t.Arm, _ = osc.Bool(a, 1) })
	s.trackCommand("/live/track/stop_all_clips", func(t *SimTrack, _ []any) { t.StopAllClipsCalls++ })
	s.trackQuery("/live/track/get/devices/name", func(_ *SimState, t *SimTrack, _ []any) []any {
		out := make([]any, 0, len(t.Devices))
		for _, d := range t.Devices {
			out = append(out, d.Name)
		}
		return out
	})

	// Clip slots and clips.
	s.trackCommand("/live/clip_slot/create_clip", func(t *SimTrack, a []any) {
		slot, _ := osc.Int(a, 1)
		length, _ := osc.Float(a, 2)
		t.Clips[slot] = &SimClip{Length: length}
	})
	s.trackCommand("/live/clip_slot/delete_clip", func(t *SimTrack, a []any) {
		slot, _ := osc.Int(a, 1)
		delete(t.Clips, slot)
	})
	s.command("/live/clip_slot/fire", func(st *SimState, a []any) {
		tr, _ := osc.Int(a, 0)
		slot, _ := osc.Int(a, 1)
		st.FiredClips = append(st.FiredClips, [2]int{tr, slot})
	})
	s.clipQuery("/live/clip/get/name", func(c *SimClip, _ []any) []any { return []any{c.Name} })
	s.clipCommand("/live/clip/set/name", func(c *SimClip, a []any) {
		if v, ok := osc.String(a, 2); ok {
			c.Name = v
		}
	})
	s.clipQuery("/live/clip/get/length", func(c *SimClip, _ []any) []any { return []any{float32(c.Length)} })
	s.clipCommand("/live/clip/add/notes", func(c *SimClip, a []any) {
		rest := a[2:]
		for i := 0; i+4 < len(rest); i += 5 {
			var n SimNote
			n.Pitch, _ = osc.Int(rest, i)
			n.Start, _ = osc.Float(rest, i+1)
			n.Duration, _ = osc.Float(rest, i+2)
			n.Velocity, _ = osc.Int(rest, i+3)
			n.Mute, _ = osc.Bool(rest, i+4)
			c.Notes = append(c.Notes, n)
		}
	})
	s.clipCommand("/live/clip/remove/notes", func(c *SimClip, _ []any) { c.Notes = nil })
	s.clipQuery("/live/clip/get/notes", func(c *SimClip, _ []any) []any {
		out := make([]any, 0, len(c.Notes)*5)
		for _, n := range c.Notes {
			out = append(out, int32(n.Pitch), float32(n.Start), float32(n.Duration), int32(n.Velocity), boolInt(n.Mute))
		}
		return out
	})

	// Devices.
	s.deviceQuery("/live/device/get/parameters/name", func(p SimParam) any { return p.Name })
	s.deviceQuery("/live/device/get/parameters/value", func(p SimParam) any { return float32(p.Value) })
	s.deviceQuery("/live/device/get/parameters/min", func(p SimParam) any { return float32(p.Min) })
	s.deviceQuery("/live/device/get/parameters/max", func(p SimParam) any { return float32(p.Max) })
	s.command("/live/device/set/parameter/value", func(st *SimState, a []any) {
		d := st.device(a)
		if d == nil {
			return
		}
		p, _ := osc.Int(a, 2)
		v, _ := osc.Float(a, 3)
		if p >= 0 && p < len(d.Params) {
			d.Params[p].Value = v
		}
	})
}

func (st *SimState) track(a []any) *SimTrack {
	i, ok := osc.Int(a, 0)
	if !ok || i < 0 || i >= len(st.Tracks) {
		return nil
	}
	return st.Tracks[i]
}

func (st *SimState) clip(a []any) *SimClip {
	t := st.track(a)
	if t == nil {
		return nil
	}
	slot, ok := osc.Int(a, 1)
	if !ok {
		return nil
	}
	return t.Clips[slot]
}

func (st *SimState) device(a []any) *SimDevice {
	t := st.track(a)
	if t == nil {
		return nil
	}
	i, ok := osc.Int(a, 1)
	if !ok || i < 0 || i >= len(t.Devices) {
		return nil
	}
	return &t.Devices[i]
}

// command mutates state and sends nothing back.
func (s *LiveSim) command(address string, fn func(st *SimState, args []any)) {
	s.Respond(address, func(args []any) []osc.Message {
		s.mu.Lock()
		fn(&s.state, args)
		s.mu.Unlock()
		return nil
	})
}

// query answers on the request address.
func (s *LiveSim) query(address string, fn func(st *SimState, args []any) []any) {
	s.Respond(address, func(args []any) []osc.Message {
		s.mu.Lock()
		out := fn(&s.state, args)
		s.mu.Unlock()
		return []osc.Message{osc.NewMessage(address, out...)}
	})
}

// trackQuery answers with the track index echoed first.
func (s *LiveSim) trackQuery(address string, fn func(st *SimState, t *SimTrack, args []any) []any) {
	s.Respond(address, func(args []any) []osc.Message {
		s.mu.Lock()
		defer s.mu.Unlock()
		t := s.state.track(args)
		if t == nil {
			return nil
		}
		i, _ := osc.Int(args, 0)
		out := append([]any{int32(i)}, fn(&s.state, t, args)...)
		return []osc.Message{osc.NewMessage(address, out...)}
	})
}

func (s *LiveSim) trackCommand(address string, fn func(t *SimTrack, args []any)) {
	s.command(address, func(st *SimState, args []any) {
		if t := st.track(args); t != nil {
			fn(t, args)
		}
	})
}

// clipQuery answers with track and clip indices echoed first.
func (s *LiveSim) clipQuery(address string, fn func(c *SimClip, args []any) []any) {
	s.Respond(address, func(args []any) []osc.Message {
		s.mu.Lock()
		defer s.mu.Unlock()
		c := s.state.clip(args)
		if c == nil {
			return nil
		}
		ti, _ := osc.Int(args, 0)
		ci, _ := osc.Int(args, 1)
		out := append([]any{int32(ti), int32(ci)}, fn(c, args)...)
		return []osc.Message{osc.NewMessage(address, out...)}
	})
}

func (s *LiveSim) clipCommand(address string, fn func(c *SimClip, args []any)) {
	s.command(address, func(st *SimState, args []any) {
		if c := st.clip(args); c != nil {
			fn(c, args)
		}
	})
}

// deviceQuery answers with track and device indices echoed first, then
// one value per parameter.
func (s *LiveSim) deviceQuery(address string, field func(p SimParam) any) {
	s.Respond(address, func(args []any) []osc.Message {
		s.mu.Lock()
		defer s.mu.Unlock()
		d := s.state.device(args)
		if d == nil {
			return nil
		}
		ti, _ := osc.Int(args, 0)
		di, _ := osc.Int(args, 1)
		out := []any{int32(ti), int32(di)}
		for _, p := range d.Params {
			out = append(out, field(p))
		}
		return []osc.Message{osc.NewMessage(address, out...)}
	})
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
