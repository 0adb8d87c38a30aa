package relevance

import (
	"math"
	"strings"
)

// DefaultMaxOrder is the longest n-gram BLEU considers.
const DefaultMaxOrder = 4

// BLEUScore holds the corpus BLEU score and its components.
type BLEUScore struct {
	BLEU              float64
	Precisions        []float64
	BrevityPenalty    float64
	LengthRatio       float64
	TranslationLength int
	ReferenceLength   int
}

// MeanPrecision returns the arithmetic mean of the n-gram precisions.
func (s BLEUScore) MeanPrecision() float64 {
	if len(s.Precisions) == 0 {
		return 0
	}
	var sum float64
	for _, p := range s.Precisions {
		sum += p
	}
	return sum / float64(len(s.Precisions))
}

// ComputeBLEU computes corpus-level BLEU of translations against references.
// references[i] holds the reference token sequences for translations[i].
// With smooth set, add-one smoothing is applied to every precision.
func ComputeBLEU(references [][][]string, translations [][]string, maxOrder int, smooth bool) BLEUScore {
	if maxOrder <= 0 {
		maxOrder = DefaultMaxOrder
	}

	matches := make([]int, maxOrder)
	possible := make([]int, maxOrder)
	var refLength, transLength int

	for i := 0; i < len(references) && i < len(translations); i++ {
		refs, translation := references[i], translations[i]

		refLength += shortest(refs)
		transLength += len(translation)

		merged := make(ngramCounts)
		for _, ref := range refs {
			merged.union(countNgrams(ref, maxOrder))
		}

		for key, c := range countNgrams(translation, maxOrder) {
			if overlap := min(c, merged[key]); overlap > 0 {
				matches[key.order-1] += overlap
			}
		}

		for order := 1; order <= maxOrder; order++ {
			if n := len(translation) - order + 1; n > 0 {
				possible[order-1] += n
			}
		}
	}

	precisions := make([]float64, maxOrder)
	for i := range precisions {
		switch {
		case smooth:
			precisions[i] = (float64(matches[i]) + 1) / (float64(possible[i]) + 1)
		case possible[i] > 0:
			precisions[i] = float64(matches[i]) / float64(possible[i])
		}
	}

	geoMean := 0.0
	if minOf(precisions) > 0 {
		var logSum float64
		for _, p := range precisions {
			logSum += math.Log(p) / float64(maxOrder)
		}
		geoMean = math.Exp(logSum)
	}

	ratio := 0.0
	if refLength > 0 {
		ratio = float64(transLength) / float64(refLength)
	}

	bp := 1.0
	switch {
	case ratio <= 0:
		bp = 0
	case ratio < 1:
		bp = math.Exp(1 - 1/ratio)
	}

	return BLEUScore{
		BLEU:              geoMean * bp,
		Precisions:        precisions,
		BrevityPenalty:    bp,
		LengthRatio:       ratio,
		TranslationLength: transLength,
		ReferenceLength:   refLength,
	}
}

type ngramKey struct {
	order int
	gram  string
}

type ngramCounts map[ngramKey]int

// union keeps the larger count of every n-gram.
func (c ngramCounts) union(other ngramCounts) {
	for k, v := range other {
		if v > c[k] {
			c[k] = v
		}
	}
}

func countNgrams(tokens []string, maxOrder int) ngramCounts {
	counts := make(ngramCounts)
	for order := 1; order <= maxOrder; order++ {
		for i := 0; i+order <= len(tokens); i++ {
			counts[ngramKey{order: order, gram: strings.Join(tokens[i:i+order], "\x00")}]++
		}
	}
	return counts
}

func shortest(refs [][]string) int {
	if len(refs) == 0 {
		return 0
	}
	n := len(refs[0])
	for _, r := range refs[1:] {
		n = min(n, len(r))
	}
	return n
}

func minOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		m = min(m, x)
	}
	return m
}
