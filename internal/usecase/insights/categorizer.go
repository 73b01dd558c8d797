package insights

import (
	"fmt"
	"regexp"
	"strings"
)

// GeneralThemeID is the catch-all theme. Quotes that land there are dropped.
const GeneralThemeID = "general"

const adHocThemeIcon = "💬"

type phraseMatcher struct {
	re    *regexp.Regexp
	theme string
}

type themeMatcher struct {
	theme Theme
	re    *regexp.Regexp
}

// Categorizer assigns memorable quotes to a single theme
type Categorizer struct {
	minWords int
	meta     []*regexp.Regexp
	phrases  []phraseMatcher
	themes   []themeMatcher
	byID     map[string]int
	byName   map[string]int
	moods    *MoodReader
}

// NewCategorizer compiles the theme and filter tables. It fails only when a
// configured meta pattern is not a valid regular expression.
func NewCategorizer(kw Keywords, policy Policy) (*Categorizer, error) {
	c := &Categorizer{
		minWords: policy.MinQuoteWords,
		byID:     make(map[string]int, len(kw.Themes)),
		byName:   make(map[string]int, len(kw.Themes)),
		moods:    NewMoodReader(kw),
	}

	for _, pattern := range kw.MetaPatterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid meta pattern %q: %w", pattern, err)
		}
		c.meta = append(c.meta, re)
	}

	for _, t := range kw.Themes {
		c.byID[strings.ToLower(t.ID)] = len(c.themes)
		c.byName[strings.ToLower(t.Name)] = len(c.themes)
		c.themes = append(c.themes, themeMatcher{theme: t, re: compileTerms(t.Keywords)})
	}

	for _, p := range kw.SpecificPhrases {
		phrase := strings.ToLower(strings.TrimSpace(p.Phrase))
		if phrase == "" {
			continue
		}
		if _, ok := c.byID[strings.ToLower(p.ThemeID)]; !ok {
			return nil, fmt.Errorf("phrase %q points at unknown theme %q", p.Phrase, p.ThemeID)
		}
		c.phrases = append(c.phrases, phraseMatcher{
			re:    regexp.MustCompile(`\b` + regexp.QuoteMeta(phrase)),
			theme: strings.ToLower(p.ThemeID),
		})
	}
	return c, nil
}

// Themes returns the configured themes in declared order
func (c *Categorizer) Themes() []Theme {
	out := make([]Theme, len(c.themes))
	for i, t := range c.themes {
		out[i] = t.theme
	}
	return out
}

// ThemeOrder returns the declared position of a theme; ad-hoc themes sort last
func (c *Categorizer) ThemeOrder(id string) int {
	if i, ok := c.byID[strings.ToLower(id)]; ok {
		return i
	}
	return len(c.themes)
}

// CleanQuote trims whitespace and surrounding quotation marks
func CleanQuote(quote string) string {
	q := strings.TrimSpace(normalizeText(quote))
	for len(q) >= 2 && (q[0] == '"' || q[0] == '\'') && q[len(q)-1] == q[0] {
		q = strings.TrimSpace(q[1 : len(q)-1])
	}
	return q
}

// IsMeta reports whether a quote talks about the companion or the call
// itself, is vague filler, or is too short to be worth showing.
func (c *Categorizer) IsMeta(quote string) bool {
	q := CleanQuote(quote)
	if wordCount(q) < c.minWords {
		return true
	}
	for _, re := range c.meta {
		if re.MatchString(q) {
			return true
		}
	}
	return false
}

// Categorize returns the single theme for a quote. The second result is false
// when the quote is filtered out or only fits the general theme.
func (c *Categorizer) Categorize(quote string, topics []string) (Theme, bool) {
	if c.IsMeta(quote) {
		return Theme{}, false
	}
	text := lowerInPlace(CleanQuote(quote))

	for _, p := range c.phrases {
		if p.re.MatchString(text) {
			return c.themes[c.byID[p.theme]].theme, true
		}
	}

	if t, ok := c.bestKeywordTheme(text); ok {
		return t, true
	}

	for _, topic := range topics {
		if t, ok := c.topicTheme(topic); ok {
			return t, true
		}
	}
	return Theme{}, false
}

// bestKeywordTheme picks the theme with the most keyword hits; ties go to the
// theme declared first.
func (c *Categorizer) bestKeywordTheme(text string) (Theme, bool) {
	best, bestHits := -1, 0
	for i, t := range c.themes {
		if t.re == nil {
			continue
		}
		hits := len(t.re.FindAllStringIndex(text, -1))
		if hits > bestHits {
			best, bestHits = i, hits
		}
	}
	if best < 0 {
		return Theme{}, false
	}
	return c.themes[best].theme, true
}

func (c *Categorizer) topicTheme(topic string) (Theme, bool) {
	topic = strings.TrimSpace(topic)
	lower := strings.ToLower(topic)
	if lower == "" || lower == GeneralThemeID {
		return Theme{}, false
	}
	if i, ok := c.byID[lower]; ok {
		return c.themes[i].theme, true
	}
	if i, ok := c.byName[lower]; ok {
		return c.themes[i].theme, true
	}
	if t, ok := c.bestKeywordTheme(lowerInPlace(normalizeText(topic))); ok {
		return t, true
	}

	slug := slugify(topic)
	if slug == "" || slug == GeneralThemeID {
		return Theme{}, false
	}
	return Theme{ID: slug, Name: titleCase(topic), Icon: adHocThemeIcon}, true
}

// Sentiment returns the quote's own emotional register, falling back to the
// conversation mood when its wording carries none.
func (c *Categorizer) Sentiment(quote, conversationMood string) Sentiment {
	return c.moods.QuoteSentiment(quote, conversationMood)
}
