package model

import (
	"fmt"
	"strings"
)

// Tone - 브리프 톤
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneCasual       Tone = "casual"
	ToneWitty        Tone = "witty"
	ToneEnthusiastic Tone = "enthusiastic"
	ToneInformative  Tone = "informative"
)

// Platform - 게시 대상 플랫폼
type Platform string

const (
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
)

// TargetLength - 영상 길이
type TargetLength string

const (
	LengthShort  TargetLength = "short"
	LengthMedium TargetLength = "medium"
	LengthLong   TargetLength = "long"
)

var validTones = map[Tone]bool{
	ToneProfessional: true,
	ToneCasual:       true,
	ToneWitty:        true,
	ToneEnthusiastic: true,
	ToneInformative:  true,
}

var validPlatforms = map[Platform]bool{
	PlatformLinkedIn:  true,
	PlatformTwitter:   true,
	PlatformInstagram: true,
	PlatformTikTok:    true,
}

var validLengths = map[TargetLength]bool{
	LengthShort:  true,
	LengthMedium: true,
	LengthLong:   true,
}

// Brief - 사용자가 입력한 캠페인 파라미터
type Brief struct {
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Tone         Tone         `json:"tone"`
	Platform     Platform     `json:"platform"`
	TargetLength TargetLength `json:"targetLength"`
}

// DefaultBrief - 폼 초기값 (생성 완료 후 리셋 값)
func DefaultBrief() Brief {
	return Brief{
		Tone:         ToneProfessional,
		Platform:     PlatformLinkedIn,
		TargetLength: LengthMedium,
	}
}

// Normalize fills empty enum fields with the form defaults.
func (b Brief) Normalize() Brief {
	def := DefaultBrief()
	b.Title = strings.TrimSpace(b.Title)
	b.Description = strings.TrimSpace(b.Description)
	if b.Tone == "" {
		b.Tone = def.Tone
	}
	if b.Platform == "" {
		b.Platform = def.Platform
	}
	if b.TargetLength == "" {
		b.TargetLength = def.TargetLength
	}
	return b
}

// Validate - 필수 필드 및 enum 검증
func (b Brief) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(b.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if !validTones[b.Tone] {
		return fmt.Errorf("invalid tone: %s", b.Tone)
	}
	if !validPlatforms[b.Platform] {
		return fmt.Errorf("invalid platform: %s", b.Platform)
	}
	if !validLengths[b.TargetLength] {
		return fmt.Errorf("invalid targetLength: %s", b.TargetLength)
	}
	return nil
}

// Fragment - 스토리보드 한 장면
type Fragment struct {
	Text         string `json:"text"`
	VisualPrompt string `json:"visualPrompt"`
	ImageURL     string `json:"imageUrl,omitempty"`
	AudioData    string `json:"audioData,omitempty"` // base64 PCM16LE mono 24kHz
}

func (f Fragment) HasAudio() bool {
	return f.AudioData != ""
}

// PostStatus - 게시물 상태
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusScheduled PostStatus = "scheduled"
	StatusPublished PostStatus = "published"
)

// Post - 생성된 게시물
type Post struct {
	ID            string     `json:"id"`
	Brief         Brief      `json:"brief"`
	Headline      string     `json:"headline"`
	Caption       string     `json:"caption"`
	Hashtags      []string   `json:"hashtags"`
	Fragments     []Fragment `json:"chunks"`
	Status        PostStatus `json:"status"`
	CreatedAt     int64      `json:"createdAt"` // unix ms
	EstimatedCost float64    `json:"estimatedCost"`
}

// Clone - 슬라이스까지 복사
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	out := *p
	out.Hashtags = append([]string(nil), p.Hashtags...)
	out.Fragments = append([]Fragment(nil), p.Fragments...)
	return &out
}

// Phase - 파이프라인 단계
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseStoryboarding Phase = "storyboarding"
	PhaseAssets        Phase = "assets"
	PhaseBaking        Phase = "baking"
	PhaseFinalizing    Phase = "finalizing"
)

// Progress - 진행 바 비율
func (p Phase) Progress() float64 {
	switch p {
	case PhaseStoryboarding:
		return 0.25
	case PhaseAssets:
		return 0.5
	case PhaseBaking:
		return 0.75
	case PhaseFinalizing:
		return 1
	default:
		return 0
	}
}

// Label - 오버레이 제목
func (p Phase) Label() string {
	switch p {
	case PhaseStoryboarding:
		return "Drafting Beats"
	case PhaseAssets:
		return "Cooking Assets"
	case PhaseBaking:
		return "Assembly Engine"
	case PhaseFinalizing:
		return "Post Production"
	default:
		return ""
	}
}
