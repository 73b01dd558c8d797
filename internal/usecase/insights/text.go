package insights

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Policy holds the tunable numbers of the extraction pipeline
type Policy struct {
	ContextBefore           int
	ContextAfter            int
	DescriptionMaxLength    int
	SymptomModerateMentions int
	MinQuoteWords           int
}

// DefaultPolicy returns the calibrated defaults
func DefaultPolicy() Policy {
	return Policy{
		ContextBefore:           60,
		ContextAfter:            140,
		DescriptionMaxLength:    350,
		SymptomModerateMentions: 3,
		MinQuoteWords:           5,
	}
}

// termMatcher finds any term of one keyword class on word boundaries
type termMatcher struct {
	class string
	re    *regexp.Regexp
}

func compileClass(kc KeywordClass) (termMatcher, bool) {
	re := compileTerms(kc.Terms)
	if re == nil {
		return termMatcher{}, false
	}
	return termMatcher{class: strings.ToLower(kc.Class), re: re}, true
}

func compileClasses(classes []KeywordClass) []termMatcher {
	out := make([]termMatcher, 0, len(classes))
	for _, kc := range classes {
		if m, ok := compileClass(kc); ok {
			out = append(out, m)
		}
	}
	return out
}

// compileTerms builds one alternation, longest terms first so multi-word
// terms win over their prefixes.
func compileTerms(terms []string) *regexp.Regexp {
	cleaned := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	sort.SliceStable(cleaned, func(i, j int) bool { return len(cleaned[i]) > len(cleaned[j]) })

	quoted := make([]string, len(cleaned))
	for i, t := range cleaned {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

type span struct{ start, end int }

// spansOf returns every match of re in text
func spansOf(re *regexp.Regexp, text string) []span {
	if re == nil {
		return nil
	}
	locs := re.FindAllStringIndex(text, -1)
	out := make([]span, len(locs))
	for i, loc := range locs {
		out[i] = span{loc[0], loc[1]}
	}
	return out
}

func covered(spans []span, start, end int) bool {
	for _, s := range spans {
		if start >= s.start && end <= s.end {
			return true
		}
	}
	return false
}

var typographic = strings.NewReplacer(
	"’", "'", "‘", "'", "“", `"`, "”", `"`,
	"—", " - ", "–", " - ", " ", " ",
)

// normalizeText folds typographic punctuation to ASCII
func normalizeText(s string) string {
	return typographic.Replace(s)
}

var (
	quotedKey   = regexp.MustCompile(`"[A-Za-z_]+"\s*:\s*`)
	snakeKey    = regexp.MustCompile(`\b[a-z]+(?:_[a-z]+)+:\s*`)
	escapes     = strings.NewReplacer(`\n`, " ", `\t`, " ", `\"`, "", `\\`, "")
	jsonResidue = strings.NewReplacer("{", " ", "}", " ", "[", " ", "]", " ", `"`, "")
	whitespace  = regexp.MustCompile(`\s+`)
)

// cleanContext strips JSON residue left over from serialized analyses
func cleanContext(s string) string {
	s = escapes.Replace(s)
	s = quotedKey.ReplaceAllString(s, "")
	s = snakeKey.ReplaceAllString(s, "")
	s = jsonResidue.Replace(s)
	s = whitespace.ReplaceAllString(s, " ")
	return strings.Trim(s, " ,;:-")
}

func isSentenceEnd(b byte) bool {
	return b == '.' || b == '!' || b == '?' || b == '\n'
}

// contextWindow returns the text around [start,end) widened by before/after
// and snapped to sentence or word boundaries.
func contextWindow(text string, start, end, before, after int) (int, int) {
	lo := start - before
	if lo < 0 {
		lo = 0
	}
	hi := end + after
	if hi > len(text) {
		hi = len(text)
	}

	if lo > 0 {
		snapped := -1
		for i := start - 1; i >= lo; i-- {
			if isSentenceEnd(text[i]) {
				snapped = i + 1
				break
			}
		}
		if snapped >= 0 {
			lo = snapped
		} else if sp := strings.IndexByte(text[lo:start], ' '); sp >= 0 {
			lo += sp + 1
		}
	}

	if hi < len(text) {
		snapped := -1
		for i := hi - 1; i >= end; i-- {
			if isSentenceEnd(text[i]) {
				snapped = i + 1
				break
			}
		}
		if snapped >= 0 {
			hi = snapped
		} else if sp := strings.LastIndexByte(text[end:hi], ' '); sp >= 0 {
			hi = end + sp
		}
	}

	for lo < start && !utf8.RuneStart(text[lo]) {
		lo++
	}
	for hi > end && hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi--
	}
	return lo, hi
}

// clauseAt returns the clause containing pos. Clauses end at punctuation,
// newlines and the conjunction "but".
func clauseAt(text string, pos int) (int, int) {
	lo := 0
	for i := pos - 1; i >= 0; i-- {
		if isClauseBreak(text[i]) {
			lo = i + 1
			break
		}
	}
	hi := len(text)
	for i := pos; i < len(text); i++ {
		if isClauseBreak(text[i]) {
			hi = i
			break
		}
	}
	if idx := strings.LastIndex(text[lo:pos], " but "); idx >= 0 {
		lo += idx + len(" but ")
	}
	if idx := strings.Index(text[pos:hi], " but "); idx >= 0 {
		hi = pos + idx
	}
	return lo, hi
}

func isClauseBreak(b byte) bool {
	return b == ',' || b == ';' || b == '.' || b == '!' || b == '?' || b == '\n'
}

// truncateAtSentence shortens s to at most max bytes, preferring a sentence
// end and falling back to a word boundary with an ellipsis.
func truncateAtSentence(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	head := s[:cut]

	if idx := strings.LastIndexAny(head, ".!?"); idx >= max/3 {
		return strings.TrimSpace(head[:idx+1])
	}
	if idx := strings.LastIndexByte(head, ' '); idx > 0 {
		head = head[:idx]
	}
	return strings.TrimRight(head, " ,;:-") + "..."
}

// minorWords stay lower-case inside a title
var minorWords = map[string]bool{
	"a": true, "an": true, "and": true, "at": true, "for": true, "in": true,
	"of": true, "on": true, "or": true, "the": true, "to": true,
}

// titleCase capitalizes each word except minor words after the first. A
// Caser is not safe for concurrent use, so one is created per call.
func titleCase(s string) string {
	words := strings.Split(cases.Title(language.English).String(strings.TrimSpace(s)), " ")
	for i := 1; i < len(words); i++ {
		if lower := strings.ToLower(words[i]); minorWords[lower] {
			words[i] = lower
		}
	}
	return strings.Join(words, " ")
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// slugify turns free text into an identifier such as "road_trips"
func slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "_"), "_")
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
