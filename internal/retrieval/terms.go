package retrieval

import (
	"sort"
	"strings"
	"unicode"
)

const RoleUser = "user"

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const minTermLength = 3

var stopwords = toSet(
	"a", "about", "above", "after", "again", "all", "also", "am", "an", "and", "any", "are", "as", "at",
	"be", "because", "been", "before", "being", "below", "between", "both", "but", "by",
	"can", "could", "did", "do", "does", "doing", "down", "during",
	"each", "few", "for", "from", "further", "get", "got", "had", "has", "have", "having", "he", "her",
	"here", "hers", "him", "his", "how", "i", "if", "in", "into", "is", "it", "its", "just",
	"know", "let", "like", "make", "me", "more", "most", "my", "need", "needs", "no", "nor", "not", "now",
	"of", "off", "on", "once", "only", "or", "other", "our", "ours", "out", "over", "own",
	"please", "same", "she", "should", "so", "some", "such", "than", "that", "the", "their", "theirs",
	"them", "then", "there", "these", "they", "thing", "things", "this", "those", "through", "to", "too",
	"under", "until", "up", "use", "very", "want", "was", "we", "were", "what", "when", "where",
	"which", "while", "who", "whom", "why", "will", "with", "would", "you", "your", "yours",
)

func toSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

// ExtractSearchTerms returns up to maxTerms keywords from the last two user
// turns plus extraText, ordered by frequency, then length, then first
// appearance. The result is deterministic for a given input.
func ExtractSearchTerms(messages []Message, maxTerms int, extraText string) []string {
	if maxTerms <= 0 {
		return nil
	}

	var parts []string
	for i := len(messages) - 1; i >= 0 && len(parts) < 2; i-- {
		if messages[i].Role == RoleUser {
			parts = append(parts, messages[i].Content)
		}
	}
	// Restore chronological order so first appearance is meaningful.
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	if extraText != "" {
		parts = append(parts, extraText)
	}

	type term struct {
		token string
		count int
		first int
	}
	seen := make(map[string]*term)
	var order []*term

	tokens := strings.FieldsFunc(strings.ToLower(strings.Join(parts, " ")), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		if len([]rune(tok)) < minTermLength {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if t, ok := seen[tok]; ok {
			t.count++
			continue
		}
		t := &term{token: tok, count: 1, first: len(order)}
		seen[tok] = t
		order = append(order, t)
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.count != b.count {
			return a.count > b.count
		}
		if la, lb := len([]rune(a.token)), len([]rune(b.token)); la != lb {
			return la > lb
		}
		return a.first < b.first
	})

	if len(order) > maxTerms {
		order = order[:maxTerms]
	}
	out := make([]string, len(order))
	for i, t := range order {
		out[i] = t.token
	}
	return out
}
