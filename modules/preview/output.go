package preview

import (
	"fmt"
	"log"
	"sync"
	"time"

	"quel-shorts-studio/modules/common/audio"
	"quel-shorts-studio/modules/common/model"
)

// Clip - 재생할 장면 오디오
type Clip struct {
	Index      int
	Data       string // base64 PCM16LE, as stored on the fragment
	Samples    []float32
	SampleRate int
	Duration   time.Duration
}

// Handle controls one playing clip.
type Handle interface {
	Stop()
}

// AudioOutput plays one clip and calls done when it finishes on its own.
// done must not be called after Stop returns for the same handle.
type AudioOutput interface {
	Play(clip Clip, done func()) (Handle, error)
}

// Observer - 재생 위치 알림
type Observer interface {
	OnFragment(index int, fragment model.Fragment)
	OnStopped()
}

// decodeClip returns false when the fragment has no playable audio.
func decodeClip(index int, f model.Fragment) (Clip, bool) {
	if !f.HasAudio() {
		return Clip{}, false
	}
	samples, err := audio.DecodePCM16(f.AudioData)
	if err != nil {
		log.Printf("⚠️  [Preview] Fragment %d audio undecodable, using dwell: %v", index, err)
		return Clip{}, false
	}
	if len(samples) == 0 {
		return Clip{}, false
	}
	return Clip{
		Index:      index,
		Data:       f.AudioData,
		Samples:    samples,
		SampleRate: audio.SampleRate,
		Duration:   audio.Duration(len(samples)),
	}, true
}

// TimedOutput completes each clip after its decoded duration. Used for
// headless playback where no device is attached.
type TimedOutput struct {
	mu     sync.Mutex
	active int
}

func NewTimedOutput() *TimedOutput {
	return &TimedOutput{}
}

type timedHandle struct {
	out   *TimedOutput
	timer *time.Timer
	once  sync.Once
}

func (h *timedHandle) release() {
	h.once.Do(func() {
		h.out.mu.Lock()
		h.out.active--
		h.out.mu.Unlock()
	})
}

func (h *timedHandle) Stop() {
	h.timer.Stop()
	h.release()
}

func (o *TimedOutput) Play(clip Clip, done func()) (Handle, error) {
	o.mu.Lock()
	o.active++
	o.mu.Unlock()

	h := &timedHandle{out: o}
	h.timer = time.AfterFunc(clip.Duration, func() {
		h.release()
		done()
	})
	return h, nil
}

// Active - 재생 중인 핸들 수
func (o *TimedOutput) Active() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// Sender delivers a message to one websocket client.
type Sender interface {
	Send(msgType string, payload interface{}) error
}

// SocketOutput streams clips to a browser client; the client reports the
// end of each clip, which is passed to Finished.
type SocketOutput struct {
	send Sender

	mu      sync.Mutex
	seq     int
	pending map[int]pendingClip
}

type pendingClip struct {
	id   int
	done func()
}

func NewSocketOutput(send Sender) *SocketOutput {
	return &SocketOutput{send: send, pending: make(map[int]pendingClip)}
}

type clipMessage struct {
	ClipID     int    `json:"clipId"`
	Index      int    `json:"index"`
	AudioData  string `json:"audioData"`
	SampleRate int    `json:"sampleRate"`
	DurationMs int64  `json:"durationMs"`
}

type clipStopMessage struct {
	ClipID int `json:"clipId"`
	Index  int `json:"index"`
}

type socketHandle struct {
	out   *SocketOutput
	index int
	id    int
}

func (h *socketHandle) Stop() {
	if !h.out.take(h.index, h.id) {
		return
	}
	if err := h.out.send.Send("preview_clip_stop", clipStopMessage{ClipID: h.id, Index: h.index}); err != nil {
		log.Printf("⚠️  [Preview] Failed to send clip stop: %v", err)
	}
}

// Play registers the clip under a fresh id; the client must echo that id
// in clip_finished.
func (o *SocketOutput) Play(clip Clip, done func()) (Handle, error) {
	o.mu.Lock()
	o.seq++
	id := o.seq
	o.pending[clip.Index] = pendingClip{id: id, done: done}
	o.mu.Unlock()

	err := o.send.Send("preview_clip", clipMessage{
		ClipID:     id,
		Index:      clip.Index,
		AudioData:  clip.Data,
		SampleRate: clip.SampleRate,
		DurationMs: clip.Duration.Milliseconds(),
	})
	if err != nil {
		o.take(clip.Index, id)
		return nil, fmt.Errorf("failed to send clip %d: %w", clip.Index, err)
	}
	return &socketHandle{out: o, index: clip.Index, id: id}, nil
}

// Finished - 클라이언트의 clip_finished 처리. index와 clipId가 현재 대기 중인
// clip과 다르면 (중지된 이전 clip) 무시하고 false
func (o *SocketOutput) Finished(index, clipID int) bool {
	o.mu.Lock()
	p, ok := o.pending[index]
	if !ok || p.id != clipID {
		o.mu.Unlock()
		return false
	}
	delete(o.pending, index)
	o.mu.Unlock()

	p.done()
	return true
}

// take removes the pending clip if it is still the one with id.
func (o *SocketOutput) take(index, id int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.pending[index]
	if !ok || p.id != id {
		return false
	}
	delete(o.pending, index)
	return true
}
