package grader

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Clamp table for the numeric fields of an evaluation. A reply that grading
// returned at all must always coerce into a usable Evaluation, so every
// field has a valid range and a default.
var scoreRanges = map[string][2]int{
	"total":       {0, 100},
	"content":     {0, 40},
	"structure":   {0, 20},
	"language":    {0, 20},
	"originality": {0, 20},
}

const maxRawFeedbackLen = 1500

var (
	reFencedJSON = regexp.MustCompile("(?is)```json\\s*(\\{.*?\\})\\s*```")
	reBareObject = regexp.MustCompile(`(?s)\{.*\}`)
)

// RecoverJSON pulls a JSON object out of a model reply that is not pure
// JSON: a ```json fenced block first, then the widest braced span. Returns
// nil when no parseable object is found.
func RecoverJSON(reply string) []byte {
	if m := reFencedJSON.FindStringSubmatch(reply); m != nil {
		if json.Valid([]byte(m[1])) {
			return []byte(m[1])
		}
	}
	if m := reBareObject.FindString(reply); m != "" {
		if json.Valid([]byte(m)) {
			return []byte(m)
		}
	}
	return nil
}

// Coerce turns an arbitrary decoded reply object into a complete
// Evaluation: numeric fields are clamped into range (missing or malformed
// values become 0), list fields default to empty, feedback defaults to the
// truncated raw reply so the row is never silent about what came back.
func Coerce(obj map[string]any, rawReply string) Evaluation {
	ev := Evaluation{
		Total:       clampScore("total", obj["total"]),
		Strengths:   asStringList(obj["strengths"]),
		Weaknesses:  asStringList(obj["weaknesses"]),
		Suggestions: asStringList(obj["suggestions"]),
	}

	if bd, ok := obj["breakdown"].(map[string]any); ok {
		ev.Breakdown = Breakdown{
			Content:     clampScore("content", bd["content"]),
			Structure:   clampScore("structure", bd["structure"]),
			Language:    clampScore("language", bd["language"]),
			Originality: clampScore("originality", bd["originality"]),
		}
	}

	if fb, ok := obj["feedback"].(string); ok && strings.TrimSpace(fb) != "" {
		ev.Feedback = fb
	} else {
		ev.Feedback = truncate(strings.TrimSpace(rawReply), maxRawFeedbackLen)
	}
	return ev
}

// clampScore converts v to an int and clamps it into the field's range.
// Anything unconvertible becomes the range minimum.
func clampScore(field string, v any) int {
	r := scoreRanges[field]
	n, ok := asInt(v)
	if !ok {
		return r[0]
	}
	if n < r[0] {
		return r[0]
	}
	if n > r[1] {
		return r[1]
	}
	return n
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int(math.Round(t)), true
	case int:
		return t, true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return int(math.Round(f)), true
		}
	}
	return 0, false
}

func asStringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
