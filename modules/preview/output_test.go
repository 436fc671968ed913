package preview

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"quel-shorts-studio/modules/common/model"
)

type sentMessage struct {
	Type    string
	Payload interface{}
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []sentMessage
	err  error
}

func (f *fakeSender) Send(msgType string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, sentMessage{Type: msgType, Payload: payload})
	return nil
}

func (f *fakeSender) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.msgs))
	for i, m := range f.msgs {
		out[i] = m.Type
	}
	return out
}

// waitClip blocks until the n-th preview_clip (1-based) has been sent.
func (f *fakeSender) waitClip(t *testing.T, n int) clipMessage {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		f.mu.Lock()
		seen := 0
		for _, m := range f.msgs {
			if m.Type != "preview_clip" {
				continue
			}
			seen++
			if seen == n {
				f.mu.Unlock()
				return m.Payload.(clipMessage)
			}
		}
		f.mu.Unlock()
		if time.Now().After(deadline) {
			t.Fatalf("clip %d never sent", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSocketOutput_FinishedCompletesClip(t *testing.T) {
	sender := &fakeSender{}
	out := NewSocketOutput(sender)

	finished := 0
	if _, err := out.Play(Clip{Index: 2, Data: shortClip}, func() { finished++ }); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	if types := sender.types(); len(types) != 1 || types[0] != "preview_clip" {
		t.Fatalf("expected preview_clip message, got %v", types)
	}
	clip := sender.waitClip(t, 1)

	if out.Finished(1, clip.ClipID) {
		t.Fatalf("unknown index must not complete anything")
	}
	if out.Finished(2, clip.ClipID+1) {
		t.Fatalf("mismatched clip id must not complete anything")
	}
	if !out.Finished(2, clip.ClipID) || finished != 1 {
		t.Fatalf("expected clip 2 completed once")
	}
	if out.Finished(2, clip.ClipID) {
		t.Fatalf("a clip completes at most once")
	}
}

func TestSocketOutput_StopDropsPending(t *testing.T) {
	sender := &fakeSender{}
	out := NewSocketOutput(sender)

	h, _ := out.Play(Clip{Index: 0}, func() { t.Fatal("stopped clip must not complete") })
	clip := sender.waitClip(t, 1)
	h.Stop()

	if out.Finished(0, clip.ClipID) {
		t.Fatalf("stopped clip still pending")
	}
	last := sender.msgs[len(sender.msgs)-1]
	stop, ok := last.Payload.(clipStopMessage)
	if last.Type != "preview_clip_stop" || !ok || stop.ClipID != clip.ClipID {
		t.Fatalf("expected stop message for clip %d, got %+v", clip.ClipID, last)
	}
}

func TestSocketOutput_IdsAreUniquePerPlay(t *testing.T) {
	sender := &fakeSender{}
	out := NewSocketOutput(sender)

	first, _ := out.Play(Clip{Index: 0}, func() { t.Fatal("replaced clip must not complete") })
	firstClip := sender.waitClip(t, 1)
	first.Stop()

	done := 0
	out.Play(Clip{Index: 0}, func() { done++ })
	second := sender.waitClip(t, 2)
	if second.ClipID == firstClip.ClipID {
		t.Fatalf("replayed index reused clip id %d", second.ClipID)
	}

	// stopping the old handle again must not drop the new clip
	first.Stop()
	if out.Finished(0, firstClip.ClipID) {
		t.Fatalf("completion of the replaced clip was accepted")
	}
	if !out.Finished(0, second.ClipID) || done != 1 {
		t.Fatalf("expected the current clip to complete")
	}
}

func TestSocketOutput_SendFailure(t *testing.T) {
	out := NewSocketOutput(&fakeSender{err: errors.New("closed")})
	if _, err := out.Play(Clip{Index: 0}, func() {}); err == nil {
		t.Fatalf("expected send error")
	}
	if out.Finished(0, 1) {
		t.Fatalf("failed clip must not stay pending")
	}
}

// Play, then Play again while the first clip is out: the client's late
// clip_finished for the first clip must not advance the new playback.
func TestSocketOutput_RestartIgnoresCompletionOfStoppedClip(t *testing.T) {
	sender := &fakeSender{}
	out := NewSocketOutput(sender)
	obs := newRecordingObserver()
	player := NewPlayer(out, obs, time.Second)
	defer player.Close()

	player.Play(fragments(3, shortClip))
	obs.waitVisit(t, 0)
	first := sender.waitClip(t, 1)

	player.Play(fragments(3, shortClip))
	obs.waitVisit(t, 0)
	second := sender.waitClip(t, 2)

	if out.Finished(0, first.ClipID) {
		t.Fatalf("stale clip_finished was accepted")
	}
	select {
	case i := <-obs.visit:
		t.Fatalf("stale completion advanced to fragment %d", i)
	case <-time.After(100 * time.Millisecond):
	}

	if !out.Finished(0, second.ClipID) {
		t.Fatalf("current clip_finished was rejected")
	}
	obs.waitVisit(t, 1)
}

func TestTimeline(t *testing.T) {
	frags := []model.Fragment{
		{Text: "a", AudioData: shortClip},
		{Text: "b"},
	}
	cues, total := Timeline(frags, 3*time.Second)

	if len(cues) != 2 || !cues[0].HasAudio || cues[1].HasAudio {
		t.Fatalf("unexpected cues %+v", cues)
	}
	if cues[0].DurationMs != 10 || cues[1].DurationMs != 3000 {
		t.Fatalf("unexpected durations %+v", cues)
	}
	if total != 3010*time.Millisecond {
		t.Fatalf("expected 3.01s total, got %v", total)
	}
}

var errMissing = errors.New("post not found")

type mapSource map[string]*model.Post

func (m mapSource) Get(id string) (*model.Post, error) {
	if p, ok := m[id]; ok {
		return p, nil
	}
	return nil, errMissing
}

func TestPreviewHandler(t *testing.T) {
	src := mapSource{"p1": {ID: "p1", Headline: "h", Fragments: fragments(4, "")}}
	r := mux.NewRouter()
	NewPreviewHandler(src, time.Second, errMissing).RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts/p1/preview", nil))
	var resp TimelineResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode failed: %v (%s)", err, rec.Body.String())
	}
	if len(resp.Cues) != 4 || resp.DurationMs != 4000 {
		t.Fatalf("unexpected timeline %+v", resp)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts/nope/preview", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
