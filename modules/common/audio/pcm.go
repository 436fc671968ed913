package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"
)

// SampleRate - TTS 응답 PCM 샘플레이트 (mono, 16-bit LE)
const SampleRate = 24000

// DecodePCM16 decodes a base64 PCM16LE mono payload into samples in [-1, 1).
func DecodePCM16(b64 string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio base64: %w", err)
	}
	// trailing odd byte cannot form a sample
	n := len(raw) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = float32(v) / 32768.0
	}
	return samples, nil
}

// Duration - 샘플 수 기준 재생 시간
func Duration(samples int) time.Duration {
	return time.Duration(samples) * time.Second / SampleRate
}
