package recommend

// stopWords are excluded from interest-keyword mining; they carry no topical
// signal.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "he": true,
	"in": true, "is": true, "it": true, "its": true, "of": true, "on": true,
	"that": true, "the": true, "to": true, "was": true, "will": true,
	"with": true, "i": true, "me": true, "my": true, "you": true, "your": true,
	"this": true, "but": true, "what": true, "when": true, "where": true,
	"who": true, "we": true, "they": true, "she": true, "her": true,
	"him": true, "them": true, "their": true, "or": true, "if": true,
	"so": true, "there": true, "have": true, "had": true, "can": true,
	"do": true, "does": true, "am": true, "been": true, "being": true,
	"not": true, "just": true, "like": true, "get": true, "got": true,
	"very": true, "much": true, "more": true, "about": true,
}
