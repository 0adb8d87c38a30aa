// Package relevance scores how well a generated answer is grounded in the
// retrieved context it was produced from.
package relevance

import (
	"strings"
	"unicode"

	"github.com/jbctechsolutions/answerstream/internal/application/ports"
	domain "github.com/jbctechsolutions/answerstream/internal/domain/relevance"
)

// Scorer computes relevance scores. It is stateless after construction and
// safe for concurrent use. Scores are always in [0, 1] and no method fails.
type Scorer struct {
	tokenizer    ports.TokenizerPort
	lengthCutoff int
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithTokenizer sets the tokenizer used for n-gram scoring.
func WithTokenizer(t ports.TokenizerPort) Option {
	return func(s *Scorer) {
		if t != nil {
			s.tokenizer = t
		}
	}
}

// WithLengthCutoff sets the cutoff used by CalculateRelevanceScore and Evaluate.
func WithLengthCutoff(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.lengthCutoff = n
		}
	}
}

// NewScorer creates a Scorer. Without a tokenizer, text is split on whitespace.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		tokenizer:    fieldsTokenizer{},
		lengthCutoff: domain.DefaultLengthCutoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LengthCutoff returns the configured cutoff.
func (s *Scorer) LengthCutoff() int {
	return s.lengthCutoff
}

// CheckRelevance returns the fraction of the question's and the answer's
// content words that occur in the context. A side with fewer than
// lengthCutoff content words scores 1.0.
func (s *Scorer) CheckRelevance(context, question, answer string, lengthCutoff int) (questionCoverage, answerCoverage float64) {
	context = normalize(context)
	questionTerms := contentTerms(normalize(question))
	answerTerms := contentTerms(normalize(answer))

	return coverage(questionTerms, context, lengthCutoff), coverage(answerTerms, context, lengthCutoff)
}

// CheckTokenIntersection returns the mean BLEU n-gram precision of the answer
// against the context. A context shorter than lengthCutoff words scores 0.0;
// an answer shorter than lengthCutoff words scores 1.0.
func (s *Scorer) CheckTokenIntersection(context, answer string, lengthCutoff int) float64 {
	context = normalize(context)
	answer = normalize(answer)

	if len(strings.Fields(context)) < lengthCutoff {
		return 0.0
	}
	if len(strings.Fields(answer)) < lengthCutoff {
		return 1.0
	}

	refs := [][][]string{{withoutStopwords(s.tokenizer.Tokenize(context))}}
	hyps := [][]string{withoutStopwords(s.tokenizer.Tokenize(answer))}

	return ComputeBLEU(refs, hyps, DefaultMaxOrder, false).MeanPrecision()
}

// CalculateRelevanceScore dispatches on method. Unconfigured or unknown
// methods score 1.0 so scoring never blocks delivery.
func (s *Scorer) CalculateRelevanceScore(answer, context, question string, method domain.Method) float64 {
	return s.Evaluate(method, context, question, answer).Score
}

// Evaluate scores answer with method and returns the tagged result.
func (s *Scorer) Evaluate(method domain.Method, context, question, answer string) domain.Result {
	switch method {
	case domain.MethodWordRelevance:
		return domain.Coverage(s.CheckRelevance(context, question, answer, s.lengthCutoff))
	case domain.MethodTokenIntersection:
		return domain.Intersection(s.CheckTokenIntersection(context, answer, s.lengthCutoff))
	default:
		return domain.Unscored()
	}
}

// normalize removes every rune that is neither a word character nor
// whitespace and lowercases the rest.
func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isWordRune(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.ToLower(b.String())
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// contentTerms returns the distinct non-stopword words of text.
func contentTerms(text string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(text, func(r rune) bool { return !isWordRune(r) }) {
		if !IsStopword(w) {
			terms[w] = struct{}{}
		}
	}
	return terms
}

func coverage(terms map[string]struct{}, context string, lengthCutoff int) float64 {
	if len(terms) < lengthCutoff || len(terms) == 0 {
		return 1.0
	}
	found := 0
	for term := range terms {
		if strings.Contains(context, term) {
			found++
		}
	}
	return float64(found) / float64(len(terms))
}

func withoutStopwords(tokens []string) []string {
	out := tokens[:0:0]
	for _, tok := range tokens {
		if !IsStopword(tok) {
			out = append(out, tok)
		}
	}
	return out
}

type fieldsTokenizer struct{}

func (fieldsTokenizer) Tokenize(text string) []string {
	return strings.Fields(text)
}
