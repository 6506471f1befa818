package ui

import (
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
)

const (
	fps = 60

	// FrameInterval is the tick period while an animation is running.
	FrameInterval = time.Second / fps
)

// Step moves one element through keyframes over duration. Keyframes are
// spread evenly across the duration; a spring chases the current one.
type Step struct {
	Element   string
	Keyframes []float64
	Duration  time.Duration
}

// Timeline is a set of steps played together, one per element.
type Timeline []Step

// FrameMsg advances running animations by one frame.
type FrameMsg struct{}

// Frame schedules the next FrameMsg.
func Frame() tea.Cmd {
	return tea.Tick(FrameInterval, func(time.Time) tea.Msg { return FrameMsg{} })
}

type track struct {
	step    Step
	elapsed time.Duration
	pos     float64
	vel     float64
	done    bool
}

// Player interpolates Timeline elements with a harmonica spring.
type Player struct {
	spring harmonica.Spring
	tracks map[string]*track
}

// NewPlayer returns a player with a slightly underdamped spring, which
// gives the highlight a small overshoot.
func NewPlayer() *Player {
	return &Player{
		spring: harmonica.NewSpring(harmonica.FPS(fps), 8.0, 0.6),
		tracks: make(map[string]*track),
	}
}

// Play starts tl. Elements already animating continue from their current
// position and velocity.
func (p *Player) Play(tl Timeline) {
	for _, s := range tl {
		if len(s.Keyframes) == 0 {
			continue
		}
		t, ok := p.tracks[s.Element]
		if !ok {
			t = &track{pos: s.Keyframes[0]}
			p.tracks[s.Element] = t
		}
		t.step = s
		t.elapsed = 0
		t.done = false
	}
}

// Set places element at v with no animation.
func (p *Player) Set(element string, v float64) {
	p.tracks[element] = &track{
		step: Step{Element: element, Keyframes: []float64{v}},
		pos:  v,
		done: true,
	}
}

// Value returns the current position of element.
func (p *Player) Value(element string) float64 {
	if t, ok := p.tracks[element]; ok {
		return t.pos
	}
	return 0
}

// Running reports whether any element is still moving.
func (p *Player) Running() bool {
	for _, t := range p.tracks {
		if !t.done {
			return true
		}
	}
	return false
}

// Advance steps every running track by dt. Once a step's duration has
// elapsed its element snaps to the final keyframe.
func (p *Player) Advance(dt time.Duration) {
	for _, t := range p.tracks {
		if t.done {
			continue
		}
		t.elapsed += dt
		kf := t.step.Keyframes
		if t.elapsed >= t.step.Duration {
			t.pos, t.vel, t.done = kf[len(kf)-1], 0, true
			continue
		}
		idx := int(int64(len(kf)) * int64(t.elapsed) / int64(t.step.Duration))
		if idx >= len(kf) {
			idx = len(kf) - 1
		}
		// The spring is tuned per frame; replay it for longer dt.
		for n := int(math.Max(1, math.Round(float64(dt)/float64(FrameInterval)))); n > 0; n-- {
			t.pos, t.vel = p.spring.Update(t.pos, t.vel, kf[idx])
		}
	}
}
