package generator

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"

	"google.golang.org/genai"

	"quel-shorts-studio/modules/common/cache"
	"quel-shorts-studio/modules/common/model"
)

const fourSceneStoryboard = `{
  "headline": "Q4 is here",
  "caption": "Meet the feature.",
  "hashtags": ["#launch", "product", " "],
  "storyboard": [
    {"text": "One", "visualPrompt": "office at dawn"},
    {"text": "Two", "visualPrompt": "team huddle"},
    {"text": "Three", "visualPrompt": "product closeup"},
    {"text": "Four", "visualPrompt": "skyline"}
  ]
}`

// fakeModels answers by request shape: schema → storyboard, image config →
// image, speech config → audio.
type fakeModels struct {
	mu         sync.Mutex
	storyboard string
	err        error
	noInline   bool
	requests   []fakeRequest
}

type fakeRequest struct {
	model  string
	prompt string
	config *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, modelName string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prompt := ""
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		prompt = contents[0].Parts[0].Text
	}
	f.requests = append(f.requests, fakeRequest{model: modelName, prompt: prompt, config: cfg})

	if f.err != nil {
		return nil, f.err
	}

	var part *genai.Part
	switch {
	case cfg.ResponseSchema != nil:
		part = &genai.Part{Text: f.storyboard}
	case f.noInline:
		part = &genai.Part{Text: "sorry, I can only describe it"}
	case cfg.ImageConfig != nil:
		part = &genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("png:" + prompt)}}
	case cfg.SpeechConfig != nil:
		part = &genai.Part{InlineData: &genai.Blob{MIMEType: "audio/pcm", Data: []byte{0x00, 0x40, 0x00, 0xc0}}}
	}

	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{part}}}},
	}, nil
}

func (f *fakeModels) count(modelName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.model == modelName {
			n++
		}
	}
	return n
}

func testOptions() Options {
	return Options{
		TextModel:   "text-model",
		ImageModel:  "image-model",
		TTSModel:    "tts-model",
		Voice:       "Kore",
		AspectRatio: "16:9",
		ImageFormat: "png",
	}
}

func testBrief() model.Brief {
	return model.Brief{
		Title:        "Q4 Launch",
		Description:  "announce feature",
		Tone:         model.ToneProfessional,
		Platform:     model.PlatformLinkedIn,
		TargetLength: model.LengthMedium,
	}
}

func TestGenerateStoryboard(t *testing.T) {
	fake := &fakeModels{storyboard: fourSceneStoryboard}
	svc := NewService(fake, nil, testOptions())

	board, err := svc.GenerateStoryboard(context.Background(), testBrief())
	if err != nil {
		t.Fatalf("GenerateStoryboard returned error: %v", err)
	}

	if board.Headline != "Q4 is here" || board.Caption != "Meet the feature." {
		t.Fatalf("unexpected headline/caption: %+v", board)
	}
	if len(board.Hashtags) != 2 || board.Hashtags[0] != "launch" || board.Hashtags[1] != "product" {
		t.Fatalf("unexpected hashtags %v", board.Hashtags)
	}
	if len(board.Fragments) != 4 {
		t.Fatalf("expected 4 fragments, got %d", len(board.Fragments))
	}
	for i, f := range board.Fragments {
		if f.ImageURL != "" || f.AudioData != "" {
			t.Fatalf("fragment %d should start without assets", i)
		}
	}

	req := fake.requests[0]
	if req.config.ResponseMIMEType != "application/json" {
		t.Fatalf("expected JSON response type, got %q", req.config.ResponseMIMEType)
	}
	items := req.config.ResponseSchema.Properties["storyboard"]
	if items.MinItems == nil || *items.MinItems != 4 || items.MaxItems == nil || *items.MaxItems != 4 {
		t.Fatalf("schema must demand exactly four scenes")
	}
	for _, want := range []string{"linkedin", "Q4 Launch - announce feature", "professional", "medium video storyboard"} {
		if !strings.Contains(req.prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}

func TestGenerateStoryboard_DefaultsMissingFields(t *testing.T) {
	fake := &fakeModels{storyboard: `{"storyboard": [{"text": "only", "visualPrompt": "one"}]}`}
	svc := NewService(fake, nil, testOptions())

	board, err := svc.GenerateStoryboard(context.Background(), testBrief())
	if err != nil {
		t.Fatalf("lenient mode should default missing fields, got %v", err)
	}
	if board.Headline != "Untitled Post" {
		t.Fatalf("expected placeholder headline, got %q", board.Headline)
	}
	if board.Caption != "" || board.Hashtags == nil || len(board.Hashtags) != 0 {
		t.Fatalf("expected empty caption and hashtags, got %+v", board)
	}
	if len(board.Fragments) != 1 {
		t.Fatalf("expected the single returned fragment, got %d", len(board.Fragments))
	}
}

func TestGenerateStoryboard_StrictRejectsIncomplete(t *testing.T) {
	opts := testOptions()
	opts.Strict = true
	fake := &fakeModels{storyboard: `{"headline": "h", "caption": "c", "hashtags": []}`}
	svc := NewService(fake, nil, opts)

	_, err := svc.GenerateStoryboard(context.Background(), testBrief())
	if !errors.Is(err, ErrIncompleteStoryboard) {
		t.Fatalf("expected ErrIncompleteStoryboard, got %v", err)
	}
}

func TestGenerateStoryboard_ParseFailure(t *testing.T) {
	for _, body := range []string{"", "not json", `{"headline": 7}`} {
		svc := NewService(&fakeModels{storyboard: body}, nil, testOptions())
		if _, err := svc.GenerateStoryboard(context.Background(), testBrief()); !errors.Is(err, ErrStoryboardParse) {
			t.Fatalf("body %q: expected ErrStoryboardParse, got %v", body, err)
		}
	}
}

func TestGenerateVisual_CachesByPromptText(t *testing.T) {
	fake := &fakeModels{}
	svc := NewService(fake, nil, testOptions())
	ctx := context.Background()

	first, err := svc.GenerateVisual(ctx, "office at dawn")
	if err != nil {
		t.Fatalf("GenerateVisual returned error: %v", err)
	}
	second, err := svc.GenerateVisual(ctx, "office at dawn")
	if err != nil {
		t.Fatalf("second GenerateVisual returned error: %v", err)
	}

	if fake.count("image-model") != 1 {
		t.Fatalf("expected exactly one image request, got %d", fake.count("image-model"))
	}
	if first != second {
		t.Fatalf("expected identical reference on cache hit")
	}
	if !strings.HasPrefix(first, "data:image/png;base64,") {
		t.Fatalf("expected png data URI, got %q", first)
	}

	req := fake.requests[0]
	if req.config.ImageConfig.AspectRatio != "16:9" {
		t.Fatalf("expected 16:9, got %q", req.config.ImageConfig.AspectRatio)
	}
	if req.prompt != "High quality commercial photography, 8k, professional lighting: office at dawn" {
		t.Fatalf("unexpected image prompt %q", req.prompt)
	}
}

func TestGenerateAudio_CacheKeyIsTextOnly(t *testing.T) {
	fake := &fakeModels{storyboard: fourSceneStoryboard}
	shared := cache.New(nil)
	svc := NewService(fake, shared, testOptions())
	ctx := context.Background()

	brief := testBrief()
	board, _ := svc.GenerateStoryboard(ctx, brief)
	for _, f := range board.Fragments {
		if _, err := svc.GenerateAudio(ctx, f.Text); err != nil {
			t.Fatalf("GenerateAudio failed: %v", err)
		}
	}

	// same narration, different platform: no new speech requests
	brief.Platform = model.PlatformTikTok
	board, _ = svc.GenerateStoryboard(ctx, brief)
	for _, f := range board.Fragments {
		if _, err := svc.GenerateAudio(ctx, f.Text); err != nil {
			t.Fatalf("GenerateAudio failed: %v", err)
		}
	}

	if n := fake.count("tts-model"); n != 4 {
		t.Fatalf("expected 4 speech requests, got %d", n)
	}
}

func TestGenerateAudio_ReturnsBase64PCMAndVoice(t *testing.T) {
	fake := &fakeModels{}
	svc := NewService(fake, nil, testOptions())

	payload, err := svc.GenerateAudio(context.Background(), "hello")
	if err != nil {
		t.Fatalf("GenerateAudio returned error: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(raw) != 4 {
		t.Fatalf("expected 4 raw PCM bytes, got %v (%v)", raw, err)
	}

	cfg := fake.requests[0].config
	if len(cfg.ResponseModalities) != 1 || cfg.ResponseModalities[0] != "AUDIO" {
		t.Fatalf("expected AUDIO modality, got %v", cfg.ResponseModalities)
	}
	if cfg.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName != "Kore" {
		t.Fatalf("expected Kore voice")
	}
}

func TestMissingAssetErrors(t *testing.T) {
	svc := NewService(&fakeModels{noInline: true}, nil, testOptions())
	ctx := context.Background()

	if _, err := svc.GenerateVisual(ctx, "p"); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
	if _, err := svc.GenerateAudio(ctx, "t"); !errors.Is(err, ErrNoAudio) {
		t.Fatalf("expected ErrNoAudio, got %v", err)
	}
}

func TestServiceErrorPropagates(t *testing.T) {
	boom := errors.New("503 unavailable")
	svc := NewService(&fakeModels{err: boom}, nil, testOptions())

	if _, err := svc.GenerateStoryboard(context.Background(), testBrief()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped service error, got %v", err)
	}
	if _, err := svc.GenerateVisual(context.Background(), "p"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped service error, got %v", err)
	}
}
