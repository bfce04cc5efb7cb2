package search

// stopWords are dropped during tokenization. Beyond common English filler it
// removes query phrasing ("what can I use to"), generic workflow vocabulary
// ("analyse my data") and vague modifiers, none of which discriminate between
// tools.
var stopWords = buildStopWords(
	// general English
	"a", "an", "the",
	"and", "or", "but",
	"if", "then", "else",
	"when", "while",
	"of", "in", "on", "at", "by", "for", "to", "from", "with", "without",
	"about", "into", "over", "under", "between",
	"as", "is", "are", "was", "were", "be", "been", "being",
	"this", "that", "these", "those",
	"it", "its", "their", "there",
	"which", "what", "who", "whom", "whose",
	"can", "could", "should", "would", "may", "might",
	"will", "shall",
	"do", "does", "did", "done",
	"have", "has", "had",
	"i", "you", "he", "she", "we", "they",
	"my", "your", "our", "his", "her",
	"me", "him", "them",
	"also", "just", "only", "even",
	"more", "most", "some", "any", "all",
	"no", "not",
	"very", "too",
	"than",

	// query phrasing
	"where", "how", "why",
	"find", "search", "show", "list", "give", "tell",
	"explain", "describe", "recommend", "suggest",
	"available", "installed", "version", "latest",
	"use", "using", "used",
	"tool", "tools", "software", "program", "package", "application",

	// workflow filler
	"data", "dataset", "datasets",
	"analyse", "analysis", "analyze", "analysing",
	"processing", "process",
	"method", "approach", "technique",
	"step", "steps",
	"run", "execute", "build", "make", "create", "generate", "perform",
	"obtain", "produce", "based",
	"result", "results", "output", "input", "file", "files",

	// vague modifiers
	"high", "low", "large", "small", "big", "fast", "slow",
	"better", "best",
	"efficient", "efficiently", "accurate", "accurately",
	"robust", "robustly",
)

func buildStopWords(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, word := range words {
		set[word] = true
	}
	return set
}
