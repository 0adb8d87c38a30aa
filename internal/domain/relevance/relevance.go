// Package relevance defines how a finished answer is scored against the
// context it was generated from.
package relevance

import (
	"errors"
	"fmt"
	"strings"
)

// Method selects the scoring algorithm.
type Method int

const (
	MethodNone Method = iota
	MethodWordRelevance
	MethodTokenIntersection
)

// Configuration spellings.
const (
	WordRelevanceName     = "WORD_RELEVANCE"
	TokenIntersectionName = "TOKEN_INTERSECTION"

	// misspelledWordRelevance appears in older configurations and is never
	// treated as WORD_RELEVANCE.
	misspelledWordRelevance = "WORLD_RELEVANCE"
)

// DefaultLengthCutoff is the minimum term count below which a text is too
// short to be scored.
const DefaultLengthCutoff = 3

var (
	// ErrUnknownMethod is returned for unrecognized method names.
	ErrUnknownMethod = errors.New("unknown relevance method")
	// ErrMisspelledMethod is returned for WORLD_RELEVANCE.
	ErrMisspelledMethod = errors.New("relevance method WORLD_RELEVANCE is not recognized, use WORD_RELEVANCE")
)

// String returns the configuration spelling.
func (m Method) String() string {
	switch m {
	case MethodWordRelevance:
		return WordRelevanceName
	case MethodTokenIntersection:
		return TokenIntersectionName
	default:
		return "NONE"
	}
}

// ParseMethod maps a configuration value to a Method. Empty and NONE map to
// MethodNone. Any unrecognized value also yields MethodNone together with an
// error, so callers that ignore the error fail open.
func ParseMethod(s string) (Method, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NONE":
		return MethodNone, nil
	case WordRelevanceName:
		return MethodWordRelevance, nil
	case TokenIntersectionName:
		return MethodTokenIntersection, nil
	case misspelledWordRelevance:
		return MethodNone, ErrMisspelledMethod
	default:
		return MethodNone, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// Result is the outcome of scoring one answer. Only the fields of the method
// that produced it are meaningful; Score is always set.
type Result struct {
	Method            Method  `json:"-"`
	MethodName        string  `json:"method"`
	QuestionCoverage  float64 `json:"question_coverage,omitempty"`
	AnswerCoverage    float64 `json:"answer_coverage,omitempty"`
	IntersectionScore float64 `json:"intersection_score,omitempty"`
	Score             float64 `json:"score"`
}

// Unscored is the fail-open result used when no method is configured.
func Unscored() Result {
	return Result{Method: MethodNone, MethodName: MethodNone.String(), Score: 1.0}
}

// Coverage builds a word-relevance result. The score is the lower of the
// two coverages.
func Coverage(question, answer float64) Result {
	return Result{
		Method:           MethodWordRelevance,
		MethodName:       MethodWordRelevance.String(),
		QuestionCoverage: question,
		AnswerCoverage:   answer,
		Score:            min(question, answer),
	}
}

// Intersection builds a token-intersection result.
func Intersection(score float64) Result {
	return Result{
		Method:            MethodTokenIntersection,
		MethodName:        MethodTokenIntersection.String(),
		IntersectionScore: score,
		Score:             score,
	}
}
