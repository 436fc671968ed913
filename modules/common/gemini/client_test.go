package gemini

import (
	"errors"
	"testing"

	"google.golang.org/genai"
)

func TestIsRateLimited(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("Error 429: Resource has been exhausted"), true},
		{errors.New("Quota exceeded for metric"), true},
		{errors.New("rate limit hit"), true},
		{errors.New("invalid argument"), false},
	}
	for _, tc := range cases {
		if got := IsRateLimited(tc.err); got != tc.want {
			t.Fatalf("IsRateLimited(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestFirstInlineData(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "here is your image"},
				{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{1, 2, 3}}},
				{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{9}}},
			}},
		}},
	}

	blob := FirstInlineData(resp)
	if blob == nil || len(blob.Data) != 3 {
		t.Fatalf("expected first inline part, got %+v", blob)
	}

	if FirstInlineData(&genai.GenerateContentResponse{}) != nil {
		t.Fatalf("expected nil for empty response")
	}
	if FirstInlineData(nil) != nil {
		t.Fatalf("expected nil for nil response")
	}
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: `{"headline":`},
				{Text: `"x"}`},
			}},
		}},
	}
	if got := ResponseText(resp); got != `{"headline":"x"}` {
		t.Fatalf("unexpected text %q", got)
	}
}
