package generator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"quel-shorts-studio/modules/common/cache"
	"quel-shorts-studio/modules/common/config"
	"quel-shorts-studio/modules/common/fallback"
	"quel-shorts-studio/modules/common/gemini"
	"quel-shorts-studio/modules/common/model"
	"quel-shorts-studio/modules/common/utils"
)

// contentModel is the slice of *genai.Models the service needs.
type contentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options - 모델/음성/이미지 설정
type Options struct {
	TextModel   string
	ImageModel  string
	TTSModel    string
	Voice       string
	AspectRatio string
	ImageFormat string // "png" or "webp"
	Strict      bool
}

// OptionsFromConfig - 환경변수 설정에서 Options 생성
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		TextModel:   cfg.GeminiTextModel,
		ImageModel:  cfg.GeminiImageModel,
		TTSModel:    cfg.GeminiTTSModel,
		Voice:       cfg.GeminiVoice,
		AspectRatio: cfg.ImageAspectRatio,
		ImageFormat: cfg.ImageFormat,
		Strict:      cfg.StoryboardStrict,
	}
}

// Service issues storyboard, image and speech requests. Images and audio
// are memoized in one text-keyed asset cache shared by every post.
type Service struct {
	models contentModel
	assets *cache.AssetCache
	opts   Options
}

// NewService - models는 보통 genai.Client.Models
func NewService(models contentModel, assets *cache.AssetCache, opts Options) *Service {
	if assets == nil {
		assets = cache.New(nil)
	}
	log.Printf("✅ [Generator] Service initialized (text=%s, image=%s, tts=%s)", opts.TextModel, opts.ImageModel, opts.TTSModel)
	return &Service{models: models, assets: assets, opts: opts}
}

// Assets - 캐시 접근 (통계 노출용)
func (s *Service) Assets() *cache.AssetCache {
	return s.assets
}

// GenerateStoryboard - 브리프로 headline/caption/hashtags/장면 생성
func (s *Service) GenerateStoryboard(ctx context.Context, brief model.Brief) (*Storyboard, error) {
	log.Printf("📝 [Generator] Storyboarding: %q (%s, %s, %s)", fallback.Truncate(brief.Title, 40), brief.Platform, brief.Tone, brief.TargetLength)

	result, err := s.models.GenerateContent(
		ctx,
		s.opts.TextModel,
		genai.Text(BuildStoryboardPrompt(brief)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   StoryboardSchema(),
		},
	)
	if err != nil {
		logServiceError("storyboard", err)
		return nil, fmt.Errorf("storyboard request failed: %w", err)
	}

	text := gemini.ResponseText(result)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty response", ErrStoryboardParse)
	}

	var raw storyboardResponse
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		log.Printf("❌ [Generator] Storyboard parse failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrStoryboardParse, err)
	}

	board, err := s.normalizeStoryboard(raw)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ [Generator] Storyboard ready: %q, %d scenes, %d hashtags", board.Headline, len(board.Fragments), len(board.Hashtags))
	return board, nil
}

// normalizeStoryboard applies the field defaults, or rejects incomplete
// responses in strict mode.
func (s *Service) normalizeStoryboard(raw storyboardResponse) (*Storyboard, error) {
	var missing []string
	if raw.Headline == nil || strings.TrimSpace(*raw.Headline) == "" {
		missing = append(missing, "headline")
	}
	if raw.Caption == nil {
		missing = append(missing, "caption")
	}
	if raw.Hashtags == nil {
		missing = append(missing, "hashtags")
	}
	if len(raw.Storyboard) != StoryboardScenes {
		missing = append(missing, fmt.Sprintf("storyboard (got %d scenes)", len(raw.Storyboard)))
	}

	if len(missing) > 0 {
		if s.opts.Strict {
			return nil, fmt.Errorf("%w: %s", ErrIncompleteStoryboard, strings.Join(missing, ", "))
		}
		log.Printf("⚠️  [Generator] Storyboard incomplete, applying defaults for: %s", strings.Join(missing, ", "))
	}

	hashtags := make([]string, 0, len(raw.Hashtags))
	for _, tag := range fallback.SafeStrings(raw.Hashtags) {
		if t := fallback.Hashtag(tag); t != "" {
			hashtags = append(hashtags, t)
		}
	}

	fragments := make([]model.Fragment, 0, len(raw.Storyboard))
	for _, scene := range raw.Storyboard {
		fragments = append(fragments, model.Fragment{
			Text:         strings.TrimSpace(scene.Text),
			VisualPrompt: strings.TrimSpace(scene.VisualPrompt),
		})
	}

	return &Storyboard{
		Headline:  fallback.SafeString(raw.Headline, fallback.DefaultHeadline),
		Caption:   fallback.SafeString(raw.Caption, ""),
		Hashtags:  hashtags,
		Fragments: fragments,
	}, nil
}

// GenerateVisual - 장면 이미지 생성 (프롬프트 텍스트 기준 캐시)
func (s *Service) GenerateVisual(ctx context.Context, prompt string) (string, error) {
	return s.assets.GetOrCreate(ctx, "image:"+prompt, func(ctx context.Context) (string, error) {
		log.Printf("🎨 [Generator] Generating image - model: %s, ratio: %s, prompt: %s",
			s.opts.ImageModel, s.opts.AspectRatio, fallback.Truncate(prompt, 50))

		result, err := s.models.GenerateContent(
			ctx,
			s.opts.ImageModel,
			genai.Text(ImagePrompt(prompt)),
			&genai.GenerateContentConfig{
				ImageConfig: &genai.ImageConfig{
					AspectRatio: s.opts.AspectRatio,
				},
			},
		)
		if err != nil {
			logServiceError("image", err)
			return "", fmt.Errorf("image request failed: %w", err)
		}

		blob := gemini.FirstInlineData(result)
		if blob == nil {
			log.Printf("❌ [Generator] Image response had no inline data")
			return "", ErrNoImage
		}

		data, mimeType := blob.Data, blob.MIMEType
		if s.opts.ImageFormat == "webp" {
			if converted, err := utils.ConvertToWebP(data, 90); err != nil {
				log.Printf("⚠️  [Generator] WebP conversion failed, keeping original: %v", err)
			} else {
				data, mimeType = converted, "image/webp"
			}
		}

		log.Printf("✅ [Generator] Image generated: %d bytes (%s)", len(data), mimeType)
		return utils.DataURI(mimeType, data), nil
	})
}

// GenerateAudio - 내레이션 음성 합성 (텍스트 기준 캐시), base64 PCM 반환
func (s *Service) GenerateAudio(ctx context.Context, text string) (string, error) {
	return s.assets.GetOrCreate(ctx, "audio:"+text, func(ctx context.Context) (string, error) {
		log.Printf("🎙️  [Generator] Synthesizing speech - model: %s, voice: %s, text: %s",
			s.opts.TTSModel, s.opts.Voice, fallback.Truncate(text, 50))

		result, err := s.models.GenerateContent(
			ctx,
			s.opts.TTSModel,
			genai.Text(text),
			&genai.GenerateContentConfig{
				ResponseModalities: []string{string(genai.ModalityAudio)},
				SpeechConfig: &genai.SpeechConfig{
					VoiceConfig: &genai.VoiceConfig{
						PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
							VoiceName: s.opts.Voice,
						},
					},
				},
			},
		)
		if err != nil {
			logServiceError("speech", err)
			return "", fmt.Errorf("speech request failed: %w", err)
		}

		blob := gemini.FirstInlineData(result)
		if blob == nil {
			log.Printf("❌ [Generator] Speech response had no inline data")
			return "", ErrNoAudio
		}

		log.Printf("✅ [Generator] Speech generated: %d bytes", len(blob.Data))
		return base64.StdEncoding.EncodeToString(blob.Data), nil
	})
}

func logServiceError(kind string, err error) {
	if gemini.IsRateLimited(err) {
		log.Printf("⚠️  [Generator] %s request hit rate limit: %v", kind, err)
		return
	}
	log.Printf("❌ [Generator] %s request failed: %v", kind, err)
}

