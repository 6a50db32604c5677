package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockContentGenerator struct {
	mock.Mock
}

func (m *MockContentGenerator) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, parts)
	resp, _ := args.Get(0).(*genai.GenerateContentResponse)
	return resp, args.Error(1)
}

func textResponse(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestGeminiSummarizer_ReturnsRawReply(t *testing.T) {
	gen := new(MockContentGenerator)
	gen.On("GenerateContent", mock.Anything, mock.MatchedBy(func(parts []genai.Part) bool {
		if len(parts) != 1 {
			return false
		}
		prompt, ok := parts[0].(genai.Text)
		return ok && strings.Contains(string(prompt), "TEXT:\nDeep learning")
	})).Return(textResponse(genai.Text("```json\n"), genai.Text(`{"summary":"s"}`), genai.Text("\n```")), nil).Once()

	reply, err := NewGeminiSummarizerWithGenerator(gen, time.Second).Summarize(context.Background(), "Deep learning")
	require.NoError(t, err)
	assert.Equal(t, "```json\n{\"summary\":\"s\"}\n```", reply)
	gen.AssertExpectations(t)
}

func TestGeminiSummarizer_PropagatesTransportError(t *testing.T) {
	gen := new(MockContentGenerator)
	gen.On("GenerateContent", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded")).Once()

	_, err := NewGeminiSummarizerWithGenerator(gen, time.Second).Summarize(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	gen.AssertNumberOfCalls(t, "GenerateContent", 1)
}

func TestGeminiSummarizer_EmptyCandidates(t *testing.T) {
	gen := new(MockContentGenerator)
	gen.On("GenerateContent", mock.Anything, mock.Anything).Return(&genai.GenerateContentResponse{}, nil).Once()

	_, err := NewGeminiSummarizerWithGenerator(gen, time.Second).Summarize(context.Background(), "text")
	assert.Error(t, err)
}

func TestGeminiSummarizer_AppliesTimeout(t *testing.T) {
	gen := new(MockContentGenerator)
	gen.On("GenerateContent", mock.MatchedBy(func(ctx context.Context) bool {
		_, hasDeadline := ctx.Deadline()
		return hasDeadline
	}), mock.Anything).Return(textResponse(genai.Text(`{"summary":"s"}`)), nil).Once()

	_, err := NewGeminiSummarizerWithGenerator(gen, 50*time.Millisecond).Summarize(context.Background(), "text")
	require.NoError(t, err)
	gen.AssertExpectations(t)
}
