package generator

import (
	"errors"

	"quel-shorts-studio/modules/common/model"
)

var (
	// ErrStoryboardParse - 스토리보드 응답이 JSON으로 파싱되지 않음
	ErrStoryboardParse = errors.New("storyboard response could not be parsed")
	// ErrIncompleteStoryboard - strict 모드에서 필수 필드 누락
	ErrIncompleteStoryboard = errors.New("storyboard response is missing required fields")
	// ErrNoImage - 이미지 응답에 inline 데이터 없음
	ErrNoImage = errors.New("no image generated")
	// ErrNoAudio - 음성 응답에 inline 데이터 없음
	ErrNoAudio = errors.New("no audio generated")
)

// StoryboardScenes - 스토리보드 장면 수 (스키마로 강제)
const StoryboardScenes = 4

// Storyboard - 스토리보드 생성 결과
type Storyboard struct {
	Headline  string           `json:"headline"`
	Caption   string           `json:"caption"`
	Hashtags  []string         `json:"hashtags"`
	Fragments []model.Fragment `json:"storyboard"`
}

// storyboardResponse mirrors the response schema. Pointer and nil-able
// fields let us tell a missing field from an empty one.
type storyboardResponse struct {
	Headline   *string         `json:"headline"`
	Caption    *string         `json:"caption"`
	Hashtags   []string        `json:"hashtags"`
	Storyboard []sceneResponse `json:"storyboard"`
}

type sceneResponse struct {
	Text         string `json:"text"`
	VisualPrompt string `json:"visualPrompt"`
}
