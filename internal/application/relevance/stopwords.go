package relevance

// stopwords are English function words excluded from coverage and
// intersection scoring.
var stopwords = map[string]struct{}{
	"wouldn't": {}, "both": {}, "about": {}, "me": {}, "its": {}, "out": {},
	"hasn": {}, "itself": {}, "been": {}, "ain": {}, "myself": {}, "below": {},
	"down": {}, "any": {}, "d": {}, "herself": {}, "up": {}, "whom": {},
	"these": {}, "by": {}, "isn't": {}, "very": {}, "am": {}, "ours": {},
	"has": {}, "a": {}, "than": {}, "yourself": {}, "not": {}, "i": {},
	"his": {}, "if": {}, "couldn't": {}, "too": {}, "should": {}, "doing": {},
	"mightn't": {}, "you'll": {}, "my": {}, "those": {}, "hers": {}, "then": {},
	"other": {}, "being": {}, "you've": {}, "he": {}, "above": {}, "had": {},
	"how": {}, "once": {}, "only": {}, "she": {}, "wouldn": {}, "doesn't": {},
	"haven't": {}, "mustn": {}, "same": {}, "hadn't": {}, "our": {}, "more": {},
	"shouldn": {}, "there": {}, "when": {}, "hasn't": {}, "just": {},
	"wasn": {}, "at": {}, "each": {}, "do": {}, "over": {}, "most": {},
	"while": {}, "she's": {}, "and": {}, "ma": {}, "they": {}, "himself": {},
	"nor": {}, "the": {}, "further": {}, "having": {}, "off": {}, "you'd": {},
	"as": {}, "them": {}, "aren": {}, "it": {}, "such": {}, "all": {},
	"who": {}, "this": {}, "their": {}, "her": {}, "with": {}, "will": {},
	"couldn": {}, "where": {}, "of": {}, "didn't": {}, "or": {}, "here": {},
	"won't": {}, "before": {}, "isn": {}, "that'll": {}, "needn": {},
	"have": {}, "did": {}, "into": {}, "we": {}, "yourselves": {}, "in": {},
	"few": {}, "after": {}, "so": {}, "s": {}, "t": {}, "ve": {}, "haven": {},
	"needn't": {}, "yours": {}, "don": {}, "theirs": {}, "again": {},
	"during": {}, "are": {}, "weren": {}, "o": {}, "is": {}, "but": {},
	"can": {}, "should've": {}, "were": {}, "from": {}, "didn": {}, "m": {},
	"don't": {}, "it's": {}, "re": {}, "until": {}, "because": {}, "under": {},
	"between": {}, "through": {}, "ll": {}, "some": {}, "aren't": {}, "y": {},
	"won": {}, "was": {}, "you're": {}, "wasn't": {}, "own": {}, "him": {},
	"what": {}, "which": {}, "on": {}, "shan't": {}, "that": {}, "be": {},
	"against": {}, "mightn": {}, "shan": {}, "you": {}, "no": {}, "doesn": {},
	"does": {}, "ourselves": {}, "weren't": {}, "mustn't": {}, "shouldn't": {},
	"to": {}, "themselves": {}, "why": {}, "for": {}, "now": {}, "hadn": {},
	"an": {}, "your": {},
}

// IsStopword reports whether word is in the stopword list. Words are
// compared as given; callers lowercase first.
func IsStopword(word string) bool {
	_, ok := stopwords[word]
	return ok
}

// StopwordCount returns the size of the stopword list.
func StopwordCount() int {
	return len(stopwords)
}
