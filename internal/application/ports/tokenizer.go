package ports

// TokenizerPort splits text into the word tokens used for n-gram scoring.
type TokenizerPort interface {
	Tokenize(text string) []string
}

// TokenEstimator estimates model token counts for usage statistics.
type TokenEstimator interface {
	CountTokens(text string) int
}
