package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edtechlab/homework-controller/internal/grader"
)

// Evaluate implements grader.Grader over chat/completions. A reply that
// fails strict schema validation is recovered leniently (fenced or embedded
// JSON, then the clamp table) rather than failing the item: any response at
// all must yield an Evaluation.
func (c *Client) Evaluate(ctx context.Context, text, displayName string) (grader.Evaluation, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.evaluate.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(text),
		"display_name", displayName,
	)

	schema := grader.BuildEvaluationJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": grader.BuildSystemPrompt()},
			{"role": "user", "content": grader.BuildUserPrompt(text, displayName)},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.logger.Error("llm.evaluate.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return grader.Evaluation{}, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.evaluate.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return grader.Evaluation{}, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.evaluate.no_choices", "req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds())
		return grader.Evaluation{}, fmt.Errorf("no choices in openai response")
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)

	doc := []byte(content)
	if grader.ValidateJSONAgainstSchema(schema, doc) != nil {
		// Lenient recovery: fenced block or embedded object.
		if rec := grader.RecoverJSON(content); rec != nil {
			doc = rec
		} else {
			c.logger.Warn("llm.evaluate.unparseable_reply",
				"req_id", rid, "content_len", len(content),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			// No JSON at all: the raw reply becomes the feedback.
			return grader.Coerce(map[string]any{}, content), nil
		}
	}

	var obj map[string]any
	if err := json.Unmarshal(doc, &obj); err != nil {
		return grader.Coerce(map[string]any{}, content), nil
	}
	ev := grader.Coerce(obj, content)

	c.logger.Info("llm.evaluate.ok",
		"req_id", rid,
		"total", ev.Total,
		"content", ev.Breakdown.Content,
		"structure", ev.Breakdown.Structure,
		"language", ev.Breakdown.Language,
		"originality", ev.Breakdown.Originality,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return ev, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Warn("openai response body close error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
