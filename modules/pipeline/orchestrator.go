package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"quel-shorts-studio/modules/common/config"
	"quel-shorts-studio/modules/common/credit"
	"quel-shorts-studio/modules/common/model"
	"quel-shorts-studio/modules/generator"
)

// Generator - 스토리보드/이미지/음성 생성기
type Generator interface {
	GenerateStoryboard(ctx context.Context, brief model.Brief) (*generator.Storyboard, error)
	GenerateVisual(ctx context.Context, prompt string) (string, error)
	GenerateAudio(ctx context.Context, text string) (string, error)
}

// PostSink - 완성된 게시물을 받는 컬렉션 (대시보드)
type PostSink interface {
	Prepend(post *model.Post)
}

// Options - 파이프라인 타이밍/단가
type Options struct {
	BakeDuration time.Duration
	ResetDelay   time.Duration
	Prices       credit.PriceTable
}

// OptionsFromConfig - 환경변수 설정에서 Options 생성
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BakeDuration: cfg.BakeDuration,
		ResetDelay:   cfg.ResetDelay,
		Prices:       credit.PricesFromConfig(cfg),
	}
}

// Orchestrator runs storyboarding, the asset pipeline, the simulated bake
// and finalize strictly in order. Only one run may be active at a time; the
// orchestrator owns the draft post until it is handed to the PostSink.
type Orchestrator struct {
	gen   Generator
	posts PostSink
	opts  Options

	mu         sync.Mutex
	generating bool
	runID      string
	phase      model.Phase
	step       string
	cost       float64
	lastError  string
	started    int
	completed  int
	failed     int
	sinks      []ProgressSink

	now func() time.Time
}

// NewOrchestrator - 오케스트레이터 생성
func NewOrchestrator(gen Generator, posts PostSink, opts Options) *Orchestrator {
	return &Orchestrator{
		gen:   gen,
		posts: posts,
		opts:  opts,
		phase: model.PhaseIdle,
		now:   time.Now,
	}
}

// Subscribe - 진행 이벤트 수신자 등록
func (o *Orchestrator) Subscribe(sink ProgressSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sinks = append(o.sinks, sink)
}

// Prices - 단가표
func (o *Orchestrator) Prices() credit.PriceTable {
	return o.opts.Prices
}

// Status - 현재 상태 스냅샷
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Status{
		RunID:         o.runID,
		Phase:         o.phase,
		Label:         o.phase.Label(),
		Step:          o.step,
		Progress:      o.phase.Progress(),
		Generating:    o.generating,
		Cost:          o.cost,
		LastError:     o.lastError,
		RunsStarted:   o.started,
		RunsCompleted: o.completed,
		RunsFailed:    o.failed,
	}
}

// Run executes the pipeline synchronously and returns the finalized post.
func (o *Orchestrator) Run(ctx context.Context, brief model.Brief) (*model.Post, error) {
	runID, err := o.acquire()
	if err != nil {
		return nil, err
	}
	return o.execute(ctx, runID, brief)
}

// Submit starts a run in the background and returns its id. It fails with
// ErrPipelineBusy while another run holds the pipeline.
func (o *Orchestrator) Submit(brief model.Brief) (string, error) {
	runID, err := o.acquire()
	if err != nil {
		return "", err
	}
	go func() {
		if _, err := o.execute(context.Background(), runID, brief); err != nil {
			log.Printf("❌ [Pipeline] Background run %s ended with error: %v", runID, err)
		}
	}()
	return runID, nil
}

func (o *Orchestrator) acquire() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.generating {
		log.Printf("⚠️  [Pipeline] Rejecting submission, run %s still active", o.runID)
		return "", ErrPipelineBusy
	}

	o.generating = true
	o.runID = uuid.NewString()[:8]
	o.phase = model.PhaseIdle
	o.step = ""
	o.cost = 0
	o.lastError = ""
	o.started++
	return o.runID, nil
}

func (o *Orchestrator) execute(ctx context.Context, runID string, brief model.Brief) (*model.Post, error) {
	started := o.now()
	log.Printf("🎬 [Pipeline] Run %s starting: %q (%s/%s/%s)", runID, brief.Title, brief.Platform, brief.Tone, brief.TargetLength)

	meter := credit.NewMeter(o.opts.Prices)

	// ━━━ 1. Storyboarding ━━━
	o.enter(model.PhaseStoryboarding, stepStoryboarding, 0)
	board, err := o.gen.GenerateStoryboard(ctx, brief)
	if err != nil {
		return nil, o.fail(runID, model.PhaseStoryboarding, -1, err)
	}

	post := &model.Post{
		ID:            uuid.NewString(),
		Brief:         brief,
		Headline:      board.Headline,
		Caption:       board.Caption,
		Hashtags:      append([]string{}, board.Hashtags...),
		Fragments:     append([]model.Fragment{}, board.Fragments...),
		Status:        model.StatusDraft,
		CreatedAt:     o.now().UnixMilli(),
		EstimatedCost: meter.Charge(credit.ItemText),
	}
	o.setCost(post.EstimatedCost)
	log.Printf("📝 [Pipeline] Run %s draft %s: %d fragments, cost %.2f", runID, post.ID, len(post.Fragments), post.EstimatedCost)

	// ━━━ 2. Asset pipeline ━━━
	total := len(post.Fragments)
	for i := range post.Fragments {
		if err := ctx.Err(); err != nil {
			return nil, o.fail(runID, model.PhaseAssets, i, err)
		}
		fragment := &post.Fragments[i]

		o.enter(model.PhaseAssets, fmt.Sprintf(stepRenderFrame, i+1, total), post.EstimatedCost)
		imageURL, err := o.gen.GenerateVisual(ctx, fragment.VisualPrompt)
		if err != nil {
			return nil, o.fail(runID, model.PhaseAssets, i, err)
		}
		fragment.ImageURL = imageURL
		post.EstimatedCost = meter.Charge(credit.ItemImage)
		o.setCost(post.EstimatedCost)

		o.enter(model.PhaseAssets, fmt.Sprintf(stepSynthesize, i+1, total), post.EstimatedCost)
		audioData, err := o.gen.GenerateAudio(ctx, fragment.Text)
		if err != nil {
			return nil, o.fail(runID, model.PhaseAssets, i, err)
		}
		fragment.AudioData = audioData
		post.EstimatedCost = meter.Charge(credit.ItemAudio)
		o.setCost(post.EstimatedCost)
	}

	// ━━━ 3. Bake (simulated assembly) ━━━
	o.enter(model.PhaseBaking, stepBaking, post.EstimatedCost)
	if err := sleepContext(ctx, o.opts.BakeDuration); err != nil {
		return nil, o.fail(runID, model.PhaseBaking, -1, err)
	}
	post.EstimatedCost = meter.Charge(credit.ItemCompute)
	o.setCost(post.EstimatedCost)

	// ━━━ 4. Finalize ━━━
	o.enter(model.PhaseFinalizing, stepFinalizing, post.EstimatedCost)
	post.Status = model.StatusScheduled
	o.posts.Prepend(post.Clone())

	o.mu.Lock()
	o.completed++
	o.mu.Unlock()

	o.emit(Event{
		Type:     EventCompleted,
		RunID:    runID,
		Phase:    model.PhaseFinalizing,
		Progress: 1,
		Cost:     post.EstimatedCost,
		PostID:   post.ID,
	})
	log.Printf("✅ [Pipeline] Run %s complete: post %s scheduled, cost %.2f, took %v",
		runID, post.ID, post.EstimatedCost, o.now().Sub(started).Round(time.Millisecond))

	o.scheduleReset(runID)
	return post, nil
}

// enter - 단계/진행 문구 갱신 후 이벤트 발행
func (o *Orchestrator) enter(phase model.Phase, step string, cost float64) {
	o.mu.Lock()
	prev := o.phase
	o.phase = phase
	o.step = step
	runID := o.runID
	o.mu.Unlock()

	if prev != phase {
		log.Printf("🔀 [Pipeline] Run %s phase: %s → %s", runID, prev, phase)
	}
	log.Printf("   ⏳ %s", step)

	o.emit(Event{
		Type:     EventProgress,
		RunID:    runID,
		Phase:    phase,
		Label:    phase.Label(),
		Step:     step,
		Progress: phase.Progress(),
		Cost:     cost,
	})
}

func (o *Orchestrator) setCost(cost float64) {
	o.mu.Lock()
	o.cost = cost
	o.mu.Unlock()
}

// fail discards the draft wholesale and resets transient state to idle.
func (o *Orchestrator) fail(runID string, phase model.Phase, fragment int, err error) error {
	runErr := &RunError{
		RunID:    runID,
		Phase:    phase,
		Kind:     classify(err),
		Fragment: fragment,
		Err:      err,
	}
	log.Printf("❌ [Pipeline] %v", runErr)

	o.mu.Lock()
	o.generating = false
	o.phase = model.PhaseIdle
	o.step = ""
	o.cost = 0
	o.lastError = FailureMessage
	o.failed++
	o.mu.Unlock()

	o.emit(Event{
		Type:    EventFailed,
		RunID:   runID,
		Phase:   model.PhaseIdle,
		Message: FailureMessage,
	})
	return runErr
}

func (o *Orchestrator) scheduleReset(runID string) {
	if o.opts.ResetDelay <= 0 {
		o.reset(runID)
		return
	}
	time.AfterFunc(o.opts.ResetDelay, func() { o.reset(runID) })
}

// reset - 완료 후 idle 복귀, 클라이언트에 대시보드 전환과 폼 초기화 알림
func (o *Orchestrator) reset(runID string) {
	o.mu.Lock()
	if o.runID != runID || !o.generating {
		o.mu.Unlock()
		return
	}
	o.generating = false
	o.phase = model.PhaseIdle
	o.step = ""
	o.cost = 0
	o.mu.Unlock()

	brief := model.DefaultBrief()
	o.emit(Event{
		Type:  EventReset,
		RunID: runID,
		Phase: model.PhaseIdle,
		View:  "dashboard",
		Brief: &brief,
	})
	log.Printf("🔄 [Pipeline] Run %s reset to idle", runID)
}

func (o *Orchestrator) emit(ev Event) {
	o.mu.Lock()
	sinks := append([]ProgressSink(nil), o.sinks...)
	o.mu.Unlock()

	for _, s := range sinks {
		s.Publish(ev)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
