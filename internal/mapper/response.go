package mapper

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

var (
	ErrNoResponse        = errors.New("model returned no text")
	ErrMalformedResponse = errors.New("model response is not a JSON list")
	ErrLengthMismatch    = errors.New("model returned the wrong number of items")
)

var fenceRegex = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)\\s*```")

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrNoResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", ErrNoResponse
	}
	return sb.String(), nil
}

// unfence returns the content of the first fenced code block, or text itself when it
// carries no fence.
func unfence(text string) string {
	if m := fenceRegex.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return strings.TrimSpace(text)
}

// parseList decodes a JSON array of strings from a model response. Fences and prose around
// the array are ignored. Nested string lists are joined with ", " and nulls become "".
func parseList(text string) ([]string, error) {
	body := unfence(text)

	start := strings.Index(body, "[")
	end := strings.LastIndex(body, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: %q", ErrMalformedResponse, truncate(text, 200))
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(body[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	out := make([]string, len(raw))
	for i, item := range raw {
		var s *string
		if err := json.Unmarshal(item, &s); err == nil {
			if s != nil {
				out[i] = *s
			}
			continue
		}

		var list []string
		if err := json.Unmarshal(item, &list); err != nil {
			return nil, fmt.Errorf("%w: item %d is %s", ErrMalformedResponse, i, item)
		}
		out[i] = strings.Join(list, ", ")
	}

	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
