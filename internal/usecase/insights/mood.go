package insights

import (
	"regexp"
	"strings"
)

// Sentiment is an emotional register shown next to a quote
type Sentiment struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Emoji    string `json:"emoji"`
}

// Mood scores on the 1..3 scale used by the trend timelines
const (
	MoodScoreNegative = 1
	MoodScoreNeutral  = 2
	MoodScorePositive = 3
)

var (
	sentimentHappy      = Sentiment{Category: "joy", Label: "Happy", Emoji: "😊"}
	sentimentDown       = Sentiment{Category: "sadness", Label: "Down", Emoji: "😔"}
	sentimentConcerned  = Sentiment{Category: "worry", Label: "Concerned", Emoji: "😟"}
	sentimentReflective = Sentiment{Category: "reflection", Label: "Reflective", Emoji: "💭"}
	sentimentCalm       = Sentiment{Category: "calm", Label: "Calm", Emoji: "😌"}
)

var (
	anxiousMood    = regexp.MustCompile(`\b(?:anxious|worried|concerned|nervous|scared)\b`)
	reflectiveMood = regexp.MustCompile(`\b(?:reflective|nostalgic|thoughtful|pensive|wistful)\b`)
)

type sentimentMatcher struct {
	sentiment Sentiment
	re        *regexp.Regexp
}

// MoodReader scores conversation moods and quote sentiment
type MoodReader struct {
	positive    *regexp.Regexp
	negative    *regexp.Regexp
	improvement *regexp.Regexp
	worsening   *regexp.Regexp
	sentiments  []sentimentMatcher
}

// NewMoodReader compiles the mood tables
func NewMoodReader(kw Keywords) *MoodReader {
	r := &MoodReader{
		positive:    compileTerms(kw.PositiveMoods),
		negative:    compileTerms(kw.NegativeMoods),
		improvement: compileTerms(kw.ImprovementTerms),
		worsening:   compileTerms(kw.WorseningTerms),
	}
	for _, s := range kw.Sentiments {
		re := compileTerms(s.Terms)
		if re == nil {
			continue
		}
		r.sentiments = append(r.sentiments, sentimentMatcher{
			sentiment: Sentiment{Category: s.Category, Label: s.Label, Emoji: s.Emoji},
			re:        re,
		})
	}
	return r
}

func countMatches(re *regexp.Regexp, text string) int {
	if re == nil {
		return 0
	}
	return len(re.FindAllStringIndex(text, -1))
}

// Score maps a free-text mood onto 1 (negative), 2 (neutral) or 3 (positive)
func (r *MoodReader) Score(mood string) int {
	text := strings.ToLower(mood)
	pos, neg := countMatches(r.positive, text), countMatches(r.negative, text)
	switch {
	case pos > neg:
		return MoodScorePositive
	case neg > pos:
		return MoodScoreNegative
	default:
		return MoodScoreNeutral
	}
}

// Label names the mood bucket of a free-text mood
func (r *MoodReader) Label(mood string) string {
	switch r.Score(mood) {
	case MoodScorePositive:
		return "positive"
	case MoodScoreNegative:
		return "negative"
	default:
		return "neutral"
	}
}

// HealthScore scores a health mention: the mood score nudged up by words of
// improvement and down by words of decline in the summary.
func (r *MoodReader) HealthScore(summary, mood string) int {
	text := lowerInPlace(normalizeText(summary))
	score := r.Score(mood)
	if countMatches(r.improvement, text) > 0 {
		score++
	}
	if countMatches(r.worsening, text) > 0 {
		score--
	}
	return score
}

// QuoteSentiment returns the first sentiment table the quote matches, else
// the register implied by the conversation mood.
func (r *MoodReader) QuoteSentiment(quote, conversationMood string) Sentiment {
	text := lowerInPlace(normalizeText(quote))
	for _, s := range r.sentiments {
		if s.re.MatchString(text) {
			return s.sentiment
		}
	}
	return r.MoodSentiment(conversationMood)
}

// MoodSentiment turns a conversation mood into a display sentiment
func (r *MoodReader) MoodSentiment(mood string) Sentiment {
	text := strings.ToLower(mood)
	switch {
	case anxiousMood.MatchString(text):
		return sentimentConcerned
	case r.Score(text) == MoodScorePositive:
		return sentimentHappy
	case r.Score(text) == MoodScoreNegative:
		return sentimentDown
	case reflectiveMood.MatchString(text):
		return sentimentReflective
	default:
		return sentimentCalm
	}
}
