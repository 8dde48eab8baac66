package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

const (
	baseMaxOutputTokens  int64 = 256
	limitMaxOutputTokens int64 = 1024

	systemPrompt = `Condense the social network post into a caption for a tiny text display.

Rules:
- Stay within the character limit given with the post.
- Plain ASCII only: no emojis, no curly quotes, no markup.
- Keep the core idea, names and numbers; drop hashtags and links.
- Neutral tone, same language as the post.
- Output exactly one line.`
)

// OpenAISummarizer calls OpenAI's Responses API to produce captions.
type OpenAISummarizer struct {
	client openai.Client
}

// NewOpenAISummarizer builds a new summarizer instance.
func NewOpenAISummarizer(apiKey string) (*OpenAISummarizer, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("API key is empty")
	}

	return &OpenAISummarizer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
	}, nil
}

// Summarize produces a single caption. The output token budget doubles while
// the model runs out of it, up to a hard limit.
func (s *OpenAISummarizer) Summarize(
	ctx context.Context,
	input Input,
) (string, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return "", errors.New("input is empty")
	}

	userPromptBuilder := strings.Builder{}
	if input.MaxChars > 0 {
		userPromptBuilder.WriteString("Character limit: ")
		userPromptBuilder.WriteString(strconv.Itoa(input.MaxChars))
		userPromptBuilder.WriteString("\n")
	}
	if author := strings.TrimSpace(input.Author); author != "" {
		userPromptBuilder.WriteString("Author: ")
		userPromptBuilder.WriteString(author)
		userPromptBuilder.WriteString("\n")
	}
	userPromptBuilder.WriteString("Post:\n")
	userPromptBuilder.WriteString(text)

	maxOutputTokens := baseMaxOutputTokens
	for {
		resp, err := s.client.Responses.New(ctx, responses.ResponseNewParams{
			Model:           openai.ChatModelGPT5Mini2025_08_07,
			ServiceTier:     responses.ResponseNewParamsServiceTierFlex,
			MaxOutputTokens: openai.Int(maxOutputTokens),
			Reasoning: responses.ReasoningParam{
				Effort: openai.ReasoningEffortLow,
			},
			Instructions: openai.String(systemPrompt),
			Input: responses.ResponseNewParamsInputUnion{
				OfString: openai.String(userPromptBuilder.String()),
			},
		})
		if err != nil {
			return "", fmt.Errorf("do request: %w", err)
		}

		if resp.Status == "incomplete" {
			if resp.IncompleteDetails.Reason == "max_output_tokens" && maxOutputTokens < limitMaxOutputTokens {
				maxOutputTokens = min(maxOutputTokens*2, limitMaxOutputTokens)
				continue
			}
			return "", fmt.Errorf(
				"response is incomplete (reason = %s, maxOutputTokens = %d)",
				resp.IncompleteDetails.Reason,
				maxOutputTokens,
			)
		}

		caption := strings.TrimSpace(resp.OutputText())
		if caption == "" {
			return "", fmt.Errorf("output text is missing (status = %s)", resp.Status)
		}
		return caption, nil
	}
}
