package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ContextClient wraps the narrative search provider. Responses are free
// text that may or may not embed a JSON object; callers use
// ExtractJSONObject and fall back to the raw text when parsing fails.
type ContextClient struct {
	t     *transport
	model string
}

// NewContextClient creates a narrative search client authenticated with
// a bearer token
func NewContextClient(baseURL, apiKey string, timeout time.Duration) *ContextClient {
	t := newTransport("context", baseURL, timeout)
	t.headers["Authorization"] = "Bearer " + apiKey
	return &ContextClient{t: t, model: "sonar"}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NarrativeSearch runs a structured prompt through the search provider
// and returns the free-text response. An empty response is "", not an
// error.
func (c *ContextClient) NarrativeSearch(ctx context.Context, structuredPrompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: structuredPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal search request: %w", err)
	}

	body, err := c.t.postJSON(ctx, "narrative-search", "chat/completions", payload)
	if err != nil {
		log.Error().Err(err).Msg("Narrative search request failed")
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal narrative search response")
		return "", err
	}

	if len(resp.Choices) == 0 {
		log.Debug().Msg("Narrative search returned no choices")
		return "", nil
	}

	return resp.Choices[0].Message.Content, nil
}

// ExtractJSONObject finds and parses the first balanced {...} block in
// free text. Returns ok=false when no parseable object exists; callers
// then use the raw text as an unstructured note.
func ExtractJSONObject(text string) (map[string]interface{}, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				var obj map[string]interface{}
				if err := json.Unmarshal([]byte(text[start:i+1]), &obj); err != nil {
					return nil, false
				}
				return obj, true
			}
		}
	}

	return nil, false
}
