package relevance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/jbctechsolutions/answerstream/internal/domain/relevance"
)

const goContext = "Go is a compiled programming language designed at Google."

func TestCheckRelevance(t *testing.T) {
	s := NewScorer()

	tests := []struct {
		name         string
		context      string
		question     string
		answer       string
		wantQuestion float64
		wantAnswer   float64
	}{
		{
			name:         "short answer passes vacuously",
			context:      "the cat sat",
			question:     "where did the cat sit",
			answer:       "on the mat",
			wantQuestion: 1.0,
			wantAnswer:   1.0,
		},
		{
			name:         "partial answer coverage",
			context:      goContext,
			question:     "Which programming language was designed at Google?",
			answer:       "Rust is a systems programming language from Mozilla.",
			wantQuestion: 1.0,
			wantAnswer:   0.4,
		},
		{
			name:         "nothing covered",
			context:      "completely unrelated words here",
			question:     "quantum entanglement teleportation experiments",
			answer:       "photons particles spin measurement",
			wantQuestion: 0.0,
			wantAnswer:   0.0,
		},
		{
			name:         "punctuation and case ignored",
			context:      "GOOGLE designs LANGUAGES",
			question:     "Google, languages & designs?!",
			answer:       "",
			wantQuestion: 1.0,
			wantAnswer:   1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, a := s.CheckRelevance(tt.context, tt.question, tt.answer, domain.DefaultLengthCutoff)
			assert.InDelta(t, tt.wantQuestion, q, 1e-9)
			assert.InDelta(t, tt.wantAnswer, a, 1e-9)
		})
	}
}

func TestCheckTokenIntersection(t *testing.T) {
	s := NewScorer()

	tests := []struct {
		name    string
		context string
		answer  string
		want    float64
	}{
		{"empty context", "", "anything at all here", 0.0},
		{"short context", "two words", "anything at all here", 0.0},
		{"short answer", "a context with plenty of words in it", "two words", 1.0},
		{"identical", "paris capital france largest city country", "paris capital france largest city country", 1.0},
		{"disjoint", "apples oranges bananas grapes", "cars trucks buses trains", 0.0},
		{"partial overlap", "alpha beta gamma delta", "alpha beta omega sigma", (0.5 + 1.0/3.0) / 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.CheckTokenIntersection(tt.context, tt.answer, domain.DefaultLengthCutoff), 1e-9)
		})
	}
}

func TestCheckTokenIntersection_UsesTokenizer(t *testing.T) {
	var seen []string
	tok := tokenizerFunc(func(text string) []string {
		seen = append(seen, text)
		return strings.Fields(text)
	})
	s := NewScorer(WithTokenizer(tok))

	s.CheckTokenIntersection("Alpha, beta gamma!", "alpha beta gamma", 3)

	require.Len(t, seen, 2)
	assert.Equal(t, "alpha beta gamma", seen[0])
	assert.Equal(t, "alpha beta gamma", seen[1])
}

func TestCalculateRelevanceScore(t *testing.T) {
	s := NewScorer()
	question := "Which programming language was designed at Google?"
	answer := "Rust is a systems programming language from Mozilla."

	tests := []struct {
		name   string
		method domain.Method
		want   float64
	}{
		{"none fails open", domain.MethodNone, 1.0},
		{"word relevance is the lower coverage", domain.MethodWordRelevance, 0.4},
		{"unknown fails open", domain.Method(99), 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.CalculateRelevanceScore(answer, goContext, question, tt.method), 1e-9)
		})
	}

	intersection := s.CalculateRelevanceScore(answer, goContext, question, domain.MethodTokenIntersection)
	assert.InDelta(t, s.CheckTokenIntersection(goContext, answer, 3), intersection, 1e-9)
}

func TestEvaluate(t *testing.T) {
	s := NewScorer(WithLengthCutoff(2))
	assert.Equal(t, 2, s.LengthCutoff())

	r := s.Evaluate(domain.MethodWordRelevance, "red green blue", "red green", "green purple")
	assert.Equal(t, domain.MethodWordRelevance, r.Method)
	assert.Equal(t, "WORD_RELEVANCE", r.MethodName)
	assert.InDelta(t, 1.0, r.QuestionCoverage, 1e-9)
	assert.InDelta(t, 0.5, r.AnswerCoverage, 1e-9)
	assert.InDelta(t, 0.5, r.Score, 1e-9)

	r = s.Evaluate(domain.MethodTokenIntersection, "red green blue", "", "red green")
	assert.Equal(t, domain.MethodTokenIntersection, r.Method)
	assert.InDelta(t, r.IntersectionScore, r.Score, 1e-9)

	r = s.Evaluate(domain.MethodNone, "", "", "")
	assert.Equal(t, domain.Unscored(), r)
}

func TestScoresStayInUnitInterval(t *testing.T) {
	s := NewScorer()
	texts := []string{
		"",
		"!!!",
		"the the the the",
		"repeat repeat repeat repeat repeat",
		"Mixed CASE words, with punctuation; and numbers 42 7.",
		"日本語 のテキスト も 大丈夫 です",
		goContext,
	}

	for _, c := range texts {
		for _, a := range texts {
			q, cov := s.CheckRelevance(c, a, a, 3)
			ti := s.CheckTokenIntersection(c, a, 3)
			for _, v := range []float64{q, cov, ti} {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
			}
		}
	}
}

func TestStopwords(t *testing.T) {
	assert.Equal(t, 179, StopwordCount())
	assert.True(t, IsStopword("the"))
	assert.True(t, IsStopword("wouldn't"))
	assert.False(t, IsStopword("The"))
	assert.False(t, IsStopword("google"))
}

type tokenizerFunc func(string) []string

func (f tokenizerFunc) Tokenize(text string) []string { return f(text) }
