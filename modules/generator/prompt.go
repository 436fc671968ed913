package generator

import (
	"fmt"

	"google.golang.org/genai"

	"quel-shorts-studio/modules/common/model"
)

// imageQualityPrefix is prepended to every visual prompt.
const imageQualityPrefix = "High quality commercial photography, 8k, professional lighting: "

// BuildStoryboardPrompt - 브리프 기반 스토리보드 지시문
func BuildStoryboardPrompt(brief model.Brief) string {
	return fmt.Sprintf(`You are a commercial director. Create a high-converting social media post and a %s video storyboard.
Platform: %s
Brief: %s - %s
Tone: %s

STRICT JSON OUTPUT REQUIRED:
{
  "headline": "Short punchy title",
  "caption": "Platform optimized text",
  "hashtags": ["tag1", "tag2"],
  "storyboard": [
    {
      "text": "The narration script for this scene (max 12 words)",
      "visualPrompt": "Detailed cinematic description for an image generator"
    }
  ]
}
Produce exactly %d storyboard scenes.`,
		brief.TargetLength, brief.Platform, brief.Title, brief.Description, brief.Tone, StoryboardScenes)
}

// StoryboardSchema - 응답 스키마 (headline, caption, hashtags, 4개 장면)
func StoryboardSchema() *genai.Schema {
	scenes := int64(StoryboardScenes)
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"headline": {Type: genai.TypeString},
			"caption":  {Type: genai.TypeString},
			"hashtags": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"storyboard": {
				Type:     genai.TypeArray,
				MinItems: &scenes,
				MaxItems: &scenes,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"text":         {Type: genai.TypeString},
						"visualPrompt": {Type: genai.TypeString},
					},
					Required: []string{"text", "visualPrompt"},
				},
			},
		},
		Required: []string{"headline", "caption", "hashtags", "storyboard"},
	}
}

// ImagePrompt - 품질 prefix 추가
func ImagePrompt(visualPrompt string) string {
	return imageQualityPrefix + visualPrompt
}
