package keywords

// English stopwords plus common web and social junk tokens.
var stopwords = map[string]bool{}

func init() {
	words := []string{
		// English function words
		"the", "and", "for", "are", "but", "not", "you", "all", "any",
		"can", "had", "has", "have", "her", "him", "his", "how", "its",
		"may", "new", "now", "off", "one", "our", "out", "own", "she",
		"too", "use", "was", "who", "why", "will", "with", "this", "that",
		"these", "those", "them", "then", "there", "their", "they", "from",
		"into", "over", "under", "about", "after", "before", "between",
		"both", "each", "few", "more", "most", "other", "some", "such",
		"only", "same", "than", "very", "just", "should", "could", "would",
		"been", "being", "because", "while", "where", "when", "what",
		"which", "whom", "your", "yours", "ours", "here", "also", "does",
		"did", "doing", "down", "during", "further", "again", "once",
		"against", "above", "below", "itself", "himself", "herself",
		"themselves", "until", "through", "were", "says", "said",
		// web/social junk
		"com", "www", "http", "https", "amp", "via",
	}
	for _, w := range words {
		stopwords[w] = true
	}
}
