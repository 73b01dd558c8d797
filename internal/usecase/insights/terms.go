package insights

// TermSet matches any of a list of terms on word boundaries, ignoring case
type TermSet struct {
	class string
	m     *termMatcher
}

// NewTermSet compiles terms into one matcher. An empty list matches nothing.
func NewTermSet(class string, terms []string) TermSet {
	m, ok := compileClass(KeywordClass{Class: class, Terms: terms})
	if !ok {
		return TermSet{class: class}
	}
	return TermSet{class: class, m: &m}
}

// Class returns the name the set was built with
func (s TermSet) Class() string {
	return s.class
}

// Match reports whether text contains any term
func (s TermSet) Match(text string) bool {
	return s.Count(text) > 0
}

// Count returns how many term occurrences text contains
func (s TermSet) Count(text string) int {
	if s.m == nil || text == "" {
		return 0
	}
	return len(s.m.re.FindAllStringIndex(lowerInPlace(normalizeText(text)), -1))
}

// TermSets compiles one TermSet per keyword class, in order
func TermSets(classes []KeywordClass) []TermSet {
	out := make([]TermSet, 0, len(classes))
	for _, kc := range classes {
		out = append(out, NewTermSet(kc.Class, kc.Terms))
	}
	return out
}
