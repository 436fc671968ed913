package preview

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"quel-shorts-studio/modules/common/model"
)

// PostSource - 게시물 조회 (dashboard.Store)
type PostSource interface {
	Get(id string) (*model.Post, error)
}

// PreviewHandler serves playback timelines for generated posts.
type PreviewHandler struct {
	posts    PostSource
	dwell    time.Duration
	notFound error
}

// Cue - 장면 하나의 재생 정보
type Cue struct {
	Index      int    `json:"index"`
	Text       string `json:"text"`
	ImageURL   string `json:"imageUrl,omitempty"`
	HasAudio   bool   `json:"hasAudio"`
	DurationMs int64  `json:"durationMs"`
}

type TimelineResponse struct {
	PostID     string `json:"postId"`
	Headline   string `json:"headline"`
	Cues       []Cue  `json:"cues"`
	DurationMs int64  `json:"durationMs"`
}

// NewPreviewHandler creates a handler instance. notFound is the error the
// source returns for unknown ids.
func NewPreviewHandler(posts PostSource, dwell time.Duration, notFound error) *PreviewHandler {
	if dwell <= 0 {
		dwell = DefaultDwell
	}
	return &PreviewHandler{posts: posts, dwell: dwell, notFound: notFound}
}

// RegisterRoutes wires preview endpoints.
func (h *PreviewHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/posts/{id}/preview", h.handleTimeline).Methods("GET")
}

// Timeline lists each fragment with the time the player will spend on it:
// the decoded clip length, or the dwell when there is no playable audio.
func Timeline(fragments []model.Fragment, dwell time.Duration) ([]Cue, time.Duration) {
	cues := make([]Cue, 0, len(fragments))
	var total time.Duration
	for i, f := range fragments {
		d := dwell
		clip, ok := decodeClip(i, f)
		if ok {
			d = clip.Duration
		}
		total += d
		cues = append(cues, Cue{
			Index:      i,
			Text:       f.Text,
			ImageURL:   f.ImageURL,
			HasAudio:   ok,
			DurationMs: d.Milliseconds(),
		})
	}
	return cues, total
}

func (h *PreviewHandler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	post, err := h.posts.Get(mux.Vars(r)["id"])
	if err != nil {
		status := http.StatusInternalServerError
		if h.notFound != nil && errors.Is(err, h.notFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	cues, total := Timeline(post.Fragments, h.dwell)
	resp := TimelineResponse{
		PostID:     post.ID,
		Headline:   post.Headline,
		Cues:       cues,
		DurationMs: total.Milliseconds(),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}
