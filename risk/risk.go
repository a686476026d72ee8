// Package risk implements the questionnaire scoring engine.
//
// Scoring is a pure function over an ordered answer list: each answer maps to
// a weight fixed by the questionnaire version, the weighted sum is normalized
// to the 0–100 range, and the score is classified into a [Level]. The mapping
// never varies at runtime; changing weights requires a new version.
package risk

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrMissingAnswer is returned when a required questionnaire answer is absent.
	ErrMissingAnswer = errors.New("questionnaire answer missing")
	// ErrAnswerOutOfRange is returned when an answer falls outside the questionnaire scale.
	ErrAnswerOutOfRange = errors.New("questionnaire answer out of range")
	// ErrUnknownVersion is returned when no questionnaire exists for the requested version.
	ErrUnknownVersion = errors.New("unknown questionnaire version")
)

// Level is the qualitative classification of a risk score.
type Level string

const (
	// LevelLow covers scores below 34.
	LevelLow Level = "Low"
	// LevelMedium covers scores from 34 through 66 inclusive.
	LevelMedium Level = "Medium"
	// LevelHigh covers scores above 66.
	LevelHigh Level = "High"
)

// Question is a single questionnaire item with its scoring weight.
type Question struct {
	Text   string
	Weight int
}

// Questionnaire is a versioned, immutable question set. Answers are integers
// on the inclusive scale [1, Scale], 1 being the most conservative choice.
type Questionnaire struct {
	Version   string
	Scale     int
	Questions []Question
}

// Result is the derived risk classification. Score is always an integer in
// [0,100] when returned without error.
type Result struct {
	Score int   `json:"score"`
	Level Level `json:"level"`
}

// V1 returns version "v1" of the questionnaire: five questions on a 1–4
// scale with weights summing to 100.
func V1() Questionnaire {
	return Questionnaire{
		Version: "v1",
		Scale:   4,
		Questions: []Question{
			{Text: "What is your primary investment objective?", Weight: 25},
			{Text: "What is your investment horizon?", Weight: 20},
			{Text: "How would you react to a 20% drop in your portfolio value?", Weight: 30},
			{Text: "Which best describes your knowledge of investments?", Weight: 15},
			{Text: "How much of your income are you willing to risk for higher returns?", Weight: 10},
		},
	}
}

// ByVersion resolves a questionnaire by version string.
func ByVersion(version string) (Questionnaire, error) {
	switch version {
	case "", "v1":
		return V1(), nil
	default:
		return Questionnaire{}, fmt.Errorf("%w: %q", ErrUnknownVersion, version)
	}
}

// Score computes the risk result for an ordered answer list. Every question
// must be answered: a short, empty, or zero-valued answer list fails with
// ErrMissingAnswer, and values outside [1, Scale] fail with
// ErrAnswerOutOfRange. A successful result is always a valid integer score
// in [0,100] with an assigned level; partial scores are never produced.
func (q Questionnaire) Score(answers []int) (Result, error) {
	if len(answers) < len(q.Questions) {
		return Result{}, fmt.Errorf("%w: got %d of %d answers", ErrMissingAnswer, len(answers), len(q.Questions))
	}
	if len(answers) > len(q.Questions) {
		return Result{}, fmt.Errorf("%w: got %d answers for %d questions", ErrAnswerOutOfRange, len(answers), len(q.Questions))
	}

	totalWeight := 0
	for _, question := range q.Questions {
		totalWeight += question.Weight
	}
	if totalWeight <= 0 || q.Scale < 2 {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownVersion, q.Version)
	}

	var sum float64
	for i, answer := range answers {
		if answer == 0 {
			return Result{}, fmt.Errorf("%w: question %d unanswered", ErrMissingAnswer, i+1)
		}
		if answer < 1 || answer > q.Scale {
			return Result{}, fmt.Errorf("%w: question %d answer %d not in [1,%d]", ErrAnswerOutOfRange, i+1, answer, q.Scale)
		}
		normalized := float64(answer-1) / float64(q.Scale-1)
		sum += normalized * float64(q.Questions[i].Weight)
	}

	score := int(math.Round(sum / float64(totalWeight) * 100))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Result{Score: score, Level: Classify(score)}, nil
}

// Classify maps a 0–100 score onto a [Level] using the fixed 34/66 cut points.
func Classify(score int) Level {
	switch {
	case score < 34:
		return LevelLow
	case score <= 66:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// Description returns a short investor profile blurb for the result's level.
func (r Result) Description() string {
	switch r.Level {
	case LevelLow:
		return "Conservative investor: prefers stable, predictable returns"
	case LevelMedium:
		return "Balanced investor: comfortable with balanced risk and return"
	case LevelHigh:
		return "Aggressive investor: willing to take risks for higher returns"
	default:
		return "Unclassified"
	}
}
