package terms

// stopWords are common English words never reported as terms.
var stopWords = []string{
	"about", "above", "after", "again", "against", "all", "also", "although",
	"always", "among", "and", "another", "any", "anyone", "anything", "are",
	"around", "because", "been", "before", "being", "below", "between", "both",
	"but", "can", "cannot", "could", "did", "does", "doing", "done", "down",
	"during", "each", "either", "else", "enough", "etc", "even", "ever", "every",
	"few", "for", "from", "further", "get", "gets", "had", "has", "have",
	"having", "her", "here", "hers", "herself", "him", "himself", "his", "how",
	"however", "into", "its", "itself", "just", "least", "less", "many", "may",
	"more", "most", "much", "must", "myself", "neither", "never", "nor", "not",
	"now", "off", "often", "once", "one", "only", "other", "others", "our",
	"ours", "ourselves", "out", "over", "own", "per", "please", "same", "she",
	"should", "since", "some", "still", "such", "than", "that", "the", "their",
	"theirs", "them", "themselves", "then", "there", "these", "they", "this",
	"those", "though", "through", "thus", "too", "under", "until", "upon",
	"very", "was", "were", "what", "when", "where", "whether", "which", "while",
	"who", "whom", "whose", "why", "will", "with", "within", "without", "would",
	"yet", "you", "your", "yours", "yourself", "yourselves",
}
