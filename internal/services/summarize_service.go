package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
)

const summaryPromptTemplate = `Analyze the following research paper text and provide a comprehensive summary with key citations.
Return the response in valid JSON format with the following structure:
{
  "summary": "A detailed summary of the paper's main findings, methodology, and conclusions",
  "citations": ["Key quote or finding 1", "Key quote or finding 2", "Key quote or finding 3"],
  "keywords": ["keyword1", "keyword2", "keyword3"],
  "methodology": "Brief description of the research methodology used"
}

TEXT:
%s`

// GeminiSummarizer asks a Gemini model for a JSON summary. It makes exactly
// one call per Summarize and never retries.
type GeminiSummarizer struct {
	generator ContentGenerator
	timeout   time.Duration
}

func NewGeminiSummarizer(client *genai.Client, modelName string, timeout time.Duration) *GeminiSummarizer {
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.2)
	model.ResponseMIMEType = "application/json"
	return NewGeminiSummarizerWithGenerator(model, timeout)
}

func NewGeminiSummarizerWithGenerator(generator ContentGenerator, timeout time.Duration) *GeminiSummarizer {
	return &GeminiSummarizer{generator: generator, timeout: timeout}
}

func BuildSummaryPrompt(text string) string {
	return fmt.Sprintf(summaryPromptTemplate, text)
}

func (s *GeminiSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := s.generator.GenerateContent(ctx, genai.Text(BuildSummaryPrompt(text)))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	log.Debug().Dur("latency", time.Since(start)).Int("input_chars", len(text)).Msg("Gemini reply received")

	reply := responseText(resp)
	if strings.TrimSpace(reply) == "" {
		return "", fmt.Errorf("model returned no text candidates")
	}
	return reply, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			sb.WriteString(string(p))
		case *genai.Text:
			sb.WriteString(string(*p))
		}
	}
	return sb.String()
}
