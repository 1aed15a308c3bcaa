// Package scoring wraps the external content-quality oracle. The relay only
// needs a qualification signal and a rationale string; the oracle's internal
// behavior, including graceful degradation when the model is unavailable, is
// contained here.
package scoring

import "context"

// QualifyingScore is the minimum score that gates a disbursement.
const QualifyingScore = 7

// Evaluation is the oracle's verdict on one piece of content.
type Evaluation struct {
	// Score is the quality score, clamped to 1-10.
	Score int `json:"score"`

	// Summary is a brief description of the content.
	Summary string `json:"summary"`

	// Reason is a one-sentence rationale for the score.
	Reason string `json:"reason"`

	// Qualified is true when Score >= QualifyingScore.
	Qualified bool `json:"qualified"`
}

// Status reports oracle availability for the status probe.
type Status struct {
	Available bool   `json:"available"`
	Model     string `json:"model,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Scorer evaluates content quality. Implementations must degrade gracefully:
// a scoring failure yields a conservative non-qualifying evaluation, never an
// error that blocks the caller.
type Scorer interface {
	Score(ctx context.Context, content string) *Evaluation
	Status(ctx context.Context) *Status
}
