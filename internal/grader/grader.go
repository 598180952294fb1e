// Package grader defines the grading-call contract and the tolerant
// validation/coercion applied to the model's reply.
package grader

import "context"

// Breakdown is the per-criterion score split of one evaluation.
type Breakdown struct {
	Content     int `json:"content"`
	Structure   int `json:"structure"`
	Language    int `json:"language"`
	Originality int `json:"originality"`
}

// Evaluation is the structured grading result for one submission.
type Evaluation struct {
	Total       int       `json:"total"`
	Breakdown   Breakdown `json:"breakdown"`
	Strengths   []string  `json:"strengths"`
	Weaknesses  []string  `json:"weaknesses"`
	Suggestions []string  `json:"suggestions"`
	Feedback    string    `json:"feedback"`
}

// Grader evaluates a submission's text. displayName is shown to the model
// as context (usually the file name).
type Grader interface {
	Evaluate(ctx context.Context, text, displayName string) (Evaluation, error)
}
