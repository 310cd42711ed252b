package gemini

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestResponseText(t *testing.T) {
	t.Parallel()

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{
				genai.Text(`{"title":`),
				genai.Text(`"Renew contract"}`),
			}}},
		},
	}

	got, err := responseText(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := `{"title":"Renew contract"}`; got != want {
		t.Errorf("responseText: got %q, want %q", got, want)
	}
}

func TestResponseText_Empty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{"nil response", nil},
		{"no candidates", &genai.GenerateContentResponse{}},
		{"nil content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}},
		{"no text parts", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}}}},
		}}},
	}

	for _, tt := range tests {
		if _, err := responseText(tt.resp); err == nil {
			t.Errorf("%s: expected error, got nil", tt.name)
		}
	}
}

func TestRateLimitError(t *testing.T) {
	t.Parallel()

	quota := status.Error(codes.ResourceExhausted, "Quota exceeded, retry in 12s")
	got := rateLimitError(quota)
	if !strings.Contains(got.Error(), "429") {
		t.Errorf("ResourceExhausted: got %q, want 429 marker", got)
	}
	if !errors.Is(got, quota) {
		t.Error("original error should be wrapped")
	}

	other := status.Error(codes.InvalidArgument, "bad request")
	if got := rateLimitError(other); got != other {
		t.Errorf("InvalidArgument: got %v, want unchanged", got)
	}
}
