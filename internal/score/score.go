// Package score turns a graded attempt into the numbers the result view
// renders. Everything here is a pure function of its input; grading itself
// already happened upstream.
package score

import (
	"github.com/shopspring/decimal"

	"github.com/buzzrhq/buzzr/internal/domain"
)

// PointsPerCorrect is the fixed mark per correct answer. A product decision,
// not derived data.
const PointsPerCorrect = 5

type Summary struct {
	Total      int
	Correct    int
	Wrong      int
	Percentage int
	Mark       int
	MaxMark    int
}

// Summarize computes the aggregate counts for an attempt. A correct question
// is one whose submitted answer equals the recorded correct answer by value.
// An empty attempt yields a zero percentage rather than a division error.
func Summarize(a domain.AttemptResult) Summary {
	total := a.TotalQuestions
	if total == 0 {
		total = len(a.Questions)
	}

	correct := 0
	for id, want := range a.CorrectAnswers {
		if got, ok := a.SubmittedAnswers[id]; ok && got == want {
			correct++
		}
	}

	percentage := 0
	if total > 0 {
		percentage = int(decimal.NewFromInt(int64(100 * correct)).
			Div(decimal.NewFromInt(int64(total))).
			Round(0).
			IntPart())
	}

	return Summary{
		Total:      total,
		Correct:    correct,
		Wrong:      total - correct,
		Percentage: percentage,
		Mark:       correct * PointsPerCorrect,
		MaxMark:    total * PointsPerCorrect,
	}
}

// Verdict tags a single option for rendering.
type Verdict string

const (
	VerdictCorrectOption Verdict = "correct-option"
	VerdictSelectedWrong Verdict = "selected-wrong"
	VerdictNeutral       Verdict = "neutral"
)

// ClassifyOption tags one option of a question given the learner's submitted
// answer for that question (empty when unanswered).
func ClassifyOption(option, correct, submitted string) Verdict {
	switch {
	case option == correct:
		return VerdictCorrectOption
	case option == submitted && submitted != correct:
		return VerdictSelectedWrong
	default:
		return VerdictNeutral
	}
}
