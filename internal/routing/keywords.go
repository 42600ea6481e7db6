package routing

import (
	"strings"
	"unicode"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/types"
)

// KeywordResult is the classifier's verdict for a piece of free text
type KeywordResult struct {
	Keywords   []string       `json:"keywords"`
	Department string         `json:"department,omitempty"`
	Priority   types.Priority `json:"priority"`
	Confidence float64        `json:"confidence"`
}

type keywordEntry struct {
	keyword    string
	department string
	priority   types.Priority
}

// keywordTable maps trigger words to a department and priority. Entries
// are kept in alphabetical order; ties on confidence resolve to the
// earlier entry, which keeps classification deterministic.
var keywordTable = []keywordEntry{
	{"appointment", "scheduling", types.PriorityNormal},
	{"billing", "billing", types.PriorityNormal},
	{"broken", "support", types.PriorityHigh},
	{"cancel", "scheduling", types.PriorityHigh},
	{"complaint", "support", types.PriorityHigh},
	{"emergency", "emergency", types.PriorityUrgent},
	{"estimate", "sales", types.PriorityNormal},
	{"gas", "utilities", types.PriorityUrgent},
	{"help", "support", types.PriorityNormal},
	{"invoice", "billing", types.PriorityNormal},
	{"leak", "utilities", types.PriorityHigh},
	{"outage", "utilities", types.PriorityHigh},
	{"payment", "billing", types.PriorityNormal},
	{"power", "utilities", types.PriorityHigh},
	{"price", "sales", types.PriorityNormal},
	{"quote", "sales", types.PriorityNormal},
	{"refund", "billing", types.PriorityHigh},
	{"reschedule", "scheduling", types.PriorityNormal},
	{"schedule", "scheduling", types.PriorityNormal},
	{"support", "support", types.PriorityNormal},
	{"urgent", "support", types.PriorityUrgent},
	{"water", "utilities", types.PriorityNormal},
}

// Confidence scoring: every match starts at the base, whole-word matches
// and high/urgent mappings score above bare substrings.
const (
	confidenceBase      = 0.5
	confidenceWholeWord = 0.3
	confidencePriority  = 0.2
)

// ClassifyText maps free text to a best-guess department and priority.
// Pure function: no I/O, deterministic for a given input.
func ClassifyText(text string) KeywordResult {
	result := KeywordResult{Priority: types.PriorityNormal}
	if text == "" {
		return result
	}

	lower := strings.ToLower(text)
	best := 0.0

	for _, entry := range keywordTable {
		if !strings.Contains(lower, entry.keyword) {
			continue
		}

		confidence := confidenceBase
		if isWholeWord(lower, entry.keyword) {
			confidence += confidenceWholeWord
		}
		if entry.priority == types.PriorityHigh || entry.priority == types.PriorityUrgent {
			confidence += confidencePriority
		}
		if confidence > 1.0 {
			confidence = 1.0
		}

		result.Keywords = append(result.Keywords, entry.keyword)
		if confidence > best {
			best = confidence
			result.Department = entry.department
			result.Priority = entry.priority
			result.Confidence = confidence
		}
	}

	return result
}

// isWholeWord reports whether keyword appears in text bounded by
// non-letter characters or the string boundaries
func isWholeWord(text, keyword string) bool {
	for idx := 0; ; {
		i := strings.Index(text[idx:], keyword)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(keyword)

		beforeOK := start == 0 || !isWordRune(rune(text[start-1]))
		afterOK := end == len(text) || !isWordRune(rune(text[end]))
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
