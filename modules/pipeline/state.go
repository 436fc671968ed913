package pipeline

import "quel-shorts-studio/modules/common/model"

// EventType - 진행 이벤트 종류 (웹소켓 메시지 타입으로 그대로 사용)
type EventType string

const (
	EventProgress  EventType = "pipeline_progress"
	EventCompleted EventType = "pipeline_completed"
	EventFailed    EventType = "pipeline_failed"
	EventReset     EventType = "pipeline_reset"
)

// Event - 진행 상황 알림
type Event struct {
	Type     EventType    `json:"type"`
	RunID    string       `json:"runId"`
	Phase    model.Phase  `json:"phase"`
	Label    string       `json:"label,omitempty"`
	Step     string       `json:"step,omitempty"`
	Progress float64      `json:"progress"`
	Cost     float64      `json:"cost"`
	PostID   string       `json:"postId,omitempty"`
	Message  string       `json:"message,omitempty"`
	View     string       `json:"view,omitempty"`
	Brief    *model.Brief `json:"brief,omitempty"`
}

// ProgressSink receives pipeline events. Implementations must not block.
type ProgressSink interface {
	Publish(ev Event)
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(ev Event)

func (f SinkFunc) Publish(ev Event) { f(ev) }

// Status - 현재 파이프라인 상태 스냅샷
type Status struct {
	RunID         string      `json:"runId,omitempty"`
	Phase         model.Phase `json:"phase"`
	Label         string      `json:"label,omitempty"`
	Step          string      `json:"step"`
	Progress      float64     `json:"progress"`
	Generating    bool        `json:"isGenerating"`
	Cost          float64     `json:"cost"`
	LastError     string      `json:"lastError,omitempty"`
	RunsStarted   int         `json:"runsStarted"`
	RunsCompleted int         `json:"runsCompleted"`
	RunsFailed    int         `json:"runsFailed"`
}

// progress step texts
const (
	stepStoryboarding = "Agentic Storyboarding..."
	stepRenderFrame   = "Asset Pipeline: Rendering Frame %d/%d..."
	stepSynthesize    = "Asset Pipeline: Synthesizing Voice %d/%d..."
	stepBaking        = "FFmpeg Engine: Baking MP4 Container..."
	stepFinalizing    = "Validation & Finalizing..."
)
