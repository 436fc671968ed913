package preview

import (
	"log"
	"sync/atomic"
	"time"

	"quel-shorts-studio/modules/common/model"
)

// DefaultDwell - 오디오 없는 장면 표시 시간
const DefaultDwell = 3 * time.Second

type state int

const (
	stateIdle state = iota
	statePlaying
	stateDwelling
)

type eventKind int

const (
	evStart eventKind = iota
	evClipFinished
	evDwellElapsed
	evStop
)

type event struct {
	kind      eventKind
	gen       uint64
	index     int
	fragments []model.Fragment
}

// Player steps through one post's fragments. All state lives in the loop
// goroutine; callbacks from outputs and timers are posted back as events
// tagged with the generation they belong to, and stale ones are dropped.
type Player struct {
	out   AudioOutput
	obs   Observer
	dwell time.Duration

	events chan event
	quit   chan struct{}
	closed atomic.Bool
	active atomic.Bool

	// loop-owned
	gen       uint64
	state     state
	index     int
	fragments []model.Fragment
	handle    Handle
	timer     *time.Timer
}

// NewPlayer starts the player loop. Close releases it.
func NewPlayer(out AudioOutput, obs Observer, dwell time.Duration) *Player {
	if dwell <= 0 {
		dwell = DefaultDwell
	}
	p := &Player{
		out:    out,
		obs:    obs,
		dwell:  dwell,
		events: make(chan event, 16),
		quit:   make(chan struct{}),
	}
	go p.loop()
	return p
}

// Play starts from the first fragment, stopping any current playback.
func (p *Player) Play(fragments []model.Fragment) {
	p.post(event{kind: evStart, fragments: append([]model.Fragment(nil), fragments...)})
}

// Stop halts playback and releases the active audio handle.
func (p *Player) Stop() {
	p.post(event{kind: evStop})
}

// Playing - 재생 중 여부
func (p *Player) Playing() bool {
	return p.active.Load()
}

func (p *Player) Close() {
	if p.closed.CompareAndSwap(false, true) {
		close(p.quit)
	}
}

func (p *Player) post(ev event) {
	select {
	case p.events <- ev:
	case <-p.quit:
	}
}

func (p *Player) loop() {
	for {
		select {
		case ev := <-p.events:
			p.dispatch(ev)
		case <-p.quit:
			p.halt(false)
			return
		}
	}
}

func (p *Player) dispatch(ev event) {
	switch ev.kind {
	case evStart:
		p.halt(false)
		p.fragments = ev.fragments
		log.Printf("▶️  [Preview] Playing %d fragments", len(p.fragments))
		p.enter(0)

	case evClipFinished:
		if ev.gen != p.gen || ev.index != p.index || p.state != statePlaying {
			return
		}
		p.handle = nil
		p.enter(ev.index + 1)

	case evDwellElapsed:
		if ev.gen != p.gen || ev.index != p.index || p.state != stateDwelling {
			return
		}
		p.timer = nil
		p.enter(ev.index + 1)

	case evStop:
		p.halt(true)
	}
}

// enter shows fragment i and starts its clip or dwell; past the end the
// player stops.
func (p *Player) enter(i int) {
	if i >= len(p.fragments) {
		p.halt(true)
		return
	}

	p.index = i
	p.active.Store(true)
	fragment := p.fragments[i]
	if p.obs != nil {
		p.obs.OnFragment(i, fragment)
	}

	gen := p.gen
	if clip, ok := decodeClip(i, fragment); ok {
		h, err := p.out.Play(clip, func() {
			go p.post(event{kind: evClipFinished, gen: gen, index: i})
		})
		if err == nil {
			p.state = statePlaying
			p.handle = h
			return
		}
		log.Printf("⚠️  [Preview] Fragment %d playback failed, using dwell: %v", i, err)
	}

	p.state = stateDwelling
	p.timer = time.AfterFunc(p.dwell, func() {
		p.post(event{kind: evDwellElapsed, gen: gen, index: i})
	})
}

// halt releases the handle and timer and invalidates outstanding callbacks.
func (p *Player) halt(notify bool) {
	wasActive := p.state != stateIdle || p.active.Load()

	if p.handle != nil {
		p.handle.Stop()
		p.handle = nil
	}
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.gen++
	p.state = stateIdle
	p.index = 0
	p.active.Store(false)

	if notify && wasActive {
		log.Printf("⏹️  [Preview] Stopped")
		if p.obs != nil {
			p.obs.OnStopped()
		}
	}
}
