package insights

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// KeywordClass maps several surface terms onto one normalized class
type KeywordClass struct {
	Class string   `yaml:"class"`
	Terms []string `yaml:"terms"`
}

// Theme is a quote category
type Theme struct {
	ID       string   `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	Icon     string   `yaml:"icon" json:"icon"`
	Keywords []string `yaml:"keywords" json:"-"`
}

// PhraseRule sends quotes containing a specific phrase straight to a theme
type PhraseRule struct {
	Phrase  string `yaml:"phrase"`
	ThemeID string `yaml:"theme"`
}

// SentimentRule is a quote-level emotional register
type SentimentRule struct {
	Category string   `yaml:"category"`
	Label    string   `yaml:"label"`
	Emoji    string   `yaml:"emoji"`
	Terms    []string `yaml:"terms"`
}

// Chapter is one of the life chapters tracked for biography progress
type Chapter struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Keywords is the immutable vocabulary of the pipeline. Components copy what
// they need at construction, so a Keywords value can be shared freely.
type Keywords struct {
	Fall           KeywordClass   `yaml:"fall"`
	FallExclusions []string       `yaml:"fall_exclusions"`
	Injuries       []KeywordClass `yaml:"injuries"`
	Symptoms       []KeywordClass `yaml:"symptoms"`
	BodyParts      []KeywordClass `yaml:"body_parts"`
	BodyPartIdioms []string       `yaml:"body_part_idioms"`

	AgentSpeakers []string `yaml:"agent_speakers"`

	Themes          []Theme         `yaml:"themes"`
	SpecificPhrases []PhraseRule    `yaml:"specific_phrases"`
	Sentiments      []SentimentRule `yaml:"sentiments"`
	MetaPatterns    []string        `yaml:"meta_patterns"`

	PositiveMoods    []string       `yaml:"positive_moods"`
	NegativeMoods    []string       `yaml:"negative_moods"`
	ImprovementTerms []string       `yaml:"improvement_terms"`
	WorseningTerms   []string       `yaml:"worsening_terms"`
	HealthPatterns   []KeywordClass `yaml:"health_patterns"`
	FalseAlarmTerms  []string       `yaml:"false_alarm_terms"`
	LonelinessTerms  []string       `yaml:"loneliness_terms"`
	LifeChapters     []Chapter      `yaml:"life_chapters"`
}

// LoadKeywords reads a YAML vocabulary. Tables missing from the file keep
// their default values.
func LoadKeywords(path string) (Keywords, error) {
	kw := DefaultKeywords()
	if path == "" {
		return kw, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Keywords{}, fmt.Errorf("failed to read keywords file: %w", err)
	}
	if err := yaml.Unmarshal(data, &kw); err != nil {
		return Keywords{}, fmt.Errorf("failed to parse keywords file: %w", err)
	}
	if kw.Fall.Class == "" {
		kw.Fall.Class = FallClass
	}
	return kw, nil
}

// WithAgentSpeaker returns a copy whose agent speaker tags include name.
func (k Keywords) WithAgentSpeaker(name string) Keywords {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return k
	}
	for _, s := range k.AgentSpeakers {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return k
		}
	}
	speakers := make([]string, 0, len(k.AgentSpeakers)+1)
	speakers = append(speakers, k.AgentSpeakers...)
	k.AgentSpeakers = append(speakers, name)
	return k
}

// FallClass is the keyword class every fall phrasing resolves to
const FallClass = "fall"

// DefaultKeywords returns the built-in vocabulary
func DefaultKeywords() Keywords {
	return Keywords{
		Fall: KeywordClass{
			Class: FallClass,
			Terms: []string{"fell", "fall", "falls", "fallen", "falling", "tripped", "slipped", "took a tumble"},
		},
		FallExclusions: []string{
			"fall asleep", "fell asleep", "falling asleep", "fallen asleep",
			"fell in love", "fall in love", "falling in love",
			"this fall", "last fall", "next fall", "in the fall", "fall season",
			"fell apart", "fall apart", "fell through", "fall behind", "fell behind",
		},
		Injuries: []KeywordClass{
			{Class: "hurt", Terms: []string{"hurt", "hurts", "hurting"}},
			{Class: "injury", Terms: []string{"injured", "injury", "injuries"}},
			{Class: "broken", Terms: []string{"broke", "broken"}},
			{Class: "fracture", Terms: []string{"fracture", "fractured"}},
			{Class: "sprain", Terms: []string{"sprain", "sprained"}},
			{Class: "twisted", Terms: []string{"twisted"}},
			{Class: "bruise", Terms: []string{"bruise", "bruised", "bruises"}},
			{Class: "burn", Terms: []string{"burned", "burnt"}},
		},
		Symptoms: []KeywordClass{
			{Class: "pain", Terms: []string{"pain", "pains", "painful"}},
			{Class: "ache", Terms: []string{"ache", "aches", "aching", "achy"}},
			{Class: "sore", Terms: []string{"sore", "soreness"}},
			{Class: "stiff", Terms: []string{"stiff", "stiffness"}},
			{Class: "tired", Terms: []string{"tired", "exhausted", "fatigue", "fatigued", "worn out"}},
			{Class: "dizzy", Terms: []string{"dizzy", "dizziness", "lightheaded", "light-headed"}},
			{Class: "trouble sleeping", Terms: []string{"trouble sleeping", "can't sleep", "cannot sleep", "couldn't sleep", "insomnia", "not sleeping well", "poor sleep"}},
			{Class: "swelling", Terms: []string{"swelling", "swollen"}},
			{Class: "nausea", Terms: []string{"nausea", "nauseous", "queasy"}},
			{Class: "headache", Terms: []string{"headache", "headaches", "migraine"}},
			{Class: "shortness of breath", Terms: []string{"short of breath", "shortness of breath", "breathless"}},
			{Class: "numbness", Terms: []string{"numb", "numbness", "tingling"}},
		},
		BodyParts: []KeywordClass{
			{Class: "back", Terms: []string{"back", "lower back", "spine"}},
			{Class: "knee", Terms: []string{"knee", "knees"}},
			{Class: "hip", Terms: []string{"hip", "hips"}},
			{Class: "shoulder", Terms: []string{"shoulder", "shoulders"}},
			{Class: "ankle", Terms: []string{"ankle", "ankles"}},
			{Class: "wrist", Terms: []string{"wrist", "wrists"}},
			{Class: "neck", Terms: []string{"neck"}},
			{Class: "head", Terms: []string{"head"}},
			{Class: "arm", Terms: []string{"arm", "arms"}},
			{Class: "leg", Terms: []string{"leg", "legs"}},
			{Class: "foot", Terms: []string{"foot", "feet"}},
			{Class: "hand", Terms: []string{"hand", "hands"}},
			{Class: "elbow", Terms: []string{"elbow", "elbows"}},
			{Class: "chest", Terms: []string{"chest"}},
			{Class: "stomach", Terms: []string{"stomach", "belly", "tummy"}},
			{Class: "ribs", Terms: []string{"rib", "ribs"}},
			{Class: "toe", Terms: []string{"toe", "toes"}},
			{Class: "finger", Terms: []string{"finger", "fingers"}},
		},
		BodyPartIdioms: []string{
			"back then", "back in", "back when", "back home", "back to", "came back", "come back",
			"coming back", "go back", "going back", "get back", "got back", "be back", "back on my feet",
			"head out", "on hand", "hand in hand", "second hand", "arm in arm",
		},
		AgentSpeakers: []string{"aila", "agent", "ai", "assistant", "companion"},
		Themes: []Theme{
			{ID: "family", Name: "Family", Icon: "👨‍👩‍👧", Keywords: []string{"daughter", "son", "grandson", "granddaughter", "grandchildren", "grandkids", "husband", "wife", "mother", "father", "mom", "dad", "sister", "brother", "family", "children", "kids", "married", "wedding"}},
			{ID: "friends", Name: "Friends & Social Life", Icon: "🃏", Keywords: []string{"friend", "friends", "neighbor", "neighbour", "club", "party", "visit", "visited", "cards", "bingo", "church group", "social"}},
			{ID: "travel", Name: "Travel & Adventures", Icon: "✈️", Keywords: []string{"travel", "traveled", "travelled", "trip", "vacation", "holiday", "cruise", "flight", "abroad", "road trip", "camping"}},
			{ID: "hobbies", Name: "Hobbies & Interests", Icon: "🎨", Keywords: []string{"hobby", "painting", "knitting", "sewing", "reading", "books", "puzzle", "crossword", "woodworking", "golf", "fishing", "baking"}},
			{ID: "health", Name: "Health & Wellbeing", Icon: "🩺", Keywords: []string{"doctor", "hospital", "pain", "medication", "pills", "surgery", "therapy", "nurse", "appointment", "sore", "hurt", "health", "sleep"}},
			{ID: "nature", Name: "Nature & Outdoors", Icon: "🌿", Keywords: []string{"garden", "flowers", "birds", "trees", "ocean", "beach", "mountains", "lake", "walk", "weather", "sunshine", "spring", "snow"}},
			{ID: "career", Name: "Work & Career", Icon: "💼", Keywords: []string{"work", "worked", "job", "career", "office", "retired", "retirement", "business", "teacher", "nurse", "factory", "boss"}},
			{ID: "home", Name: "Home & Daily Life", Icon: "🏡", Keywords: []string{"house", "home", "kitchen", "apartment", "moved", "neighborhood", "chores", "cleaning"}},
			{ID: "food", Name: "Food & Cooking", Icon: "🍲", Keywords: []string{"cook", "cooking", "recipe", "dinner", "lunch", "breakfast", "soup", "pie", "cake", "meal"}},
			{ID: "faith", Name: "Faith & Reflection", Icon: "🕊️", Keywords: []string{"church", "pray", "prayer", "faith", "god", "blessed", "spiritual"}},
			{ID: "music", Name: "Music & Entertainment", Icon: "🎵", Keywords: []string{"music", "song", "songs", "sing", "singing", "dance", "dancing", "piano", "radio", "movie", "television"}},
			{ID: "childhood", Name: "Growing Up", Icon: "🧸", Keywords: []string{"childhood", "growing up", "school", "when i was young", "when i was a girl", "when i was a boy", "parents", "farm"}},
			{ID: "pets", Name: "Pets & Animals", Icon: "🐾", Keywords: []string{"dog", "cat", "puppy", "kitten", "pet", "pets", "horse"}},
		},
		SpecificPhrases: []PhraseRule{
			{Phrase: "snowbird", ThemeID: "travel"},
			{Phrase: "rv trip", ThemeID: "travel"},
			{Phrase: "arizona", ThemeID: "travel"},
			{Phrase: "florida", ThemeID: "travel"},
			{Phrase: "poker", ThemeID: "friends"},
			{Phrase: "bridge club", ThemeID: "friends"},
			{Phrase: "card game", ThemeID: "friends"},
			{Phrase: "my daughter", ThemeID: "family"},
			{Phrase: "my son", ThemeID: "family"},
			{Phrase: "grandkid", ThemeID: "family"},
			{Phrase: "grandchild", ThemeID: "family"},
			{Phrase: "fell off", ThemeID: "health"},
			{Phrase: "physio", ThemeID: "health"},
			{Phrase: "the doctor", ThemeID: "health"},
			{Phrase: "my garden", ThemeID: "nature"},
			{Phrase: "church choir", ThemeID: "music"},
		},
		Sentiments: []SentimentRule{
			{Category: "pain", Label: "Struggling", Emoji: "😣", Terms: []string{"pain", "painful", "hurts", "hurt", "hurting", "ache", "aching", "sore", "agony"}},
			{Category: "struggle", Label: "Persevering", Emoji: "💪", Terms: []string{"tough", "hard time", "difficult", "struggle", "struggling", "deal with", "frustrated", "frustrating", "hard to"}},
			{Category: "worry", Label: "Concerned", Emoji: "😟", Terms: []string{"worried", "worry", "worries", "anxious", "nervous", "scared", "afraid", "fear"}},
			{Category: "recovery", Label: "Recovering", Emoji: "🌱", Terms: []string{"better", "recovering", "healing", "improving", "getting stronger", "back on my feet", "on the mend"}},
			{Category: "gratitude", Label: "Grateful", Emoji: "🙏", Terms: []string{"grateful", "thankful", "blessed", "appreciate", "lucky", "thank god"}},
			{Category: "joy", Label: "Happy", Emoji: "😊", Terms: []string{"fun", "wonderful", "love", "loved", "happy", "great", "laugh", "laughed", "enjoy", "enjoyed", "delightful"}},
			{Category: "nostalgia", Label: "Nostalgic", Emoji: "🕰️", Terms: []string{"remember", "used to", "back then", "back in", "years ago", "those days", "when i was young"}},
			{Category: "reflection", Label: "Reflective", Emoji: "💭", Terms: []string{"think", "thinking", "learned", "realize", "life is", "wonder", "looking back"}},
		},
		MetaPatterns: []string{
			`\b(?:are|r) you (?:real|a robot|a machine|an? ai|a computer|human|a person|alive)\b`,
			`\byou(?:'re| are) (?:just |only |not )?(?:an? )?(?:ai|robot|machine|computer|program|bot|real person)\b`,
			`\b(?:artificial intelligence|chatbot|chat bot|language model|eleven ?labs)\b`,
			`\baila\b`,
			`\b(?:this|our) (?:conversation|call|chat|session)s?\b`,
			`\btalking (?:to|with) (?:you|a computer|a machine)\b`,
			`\b(?:can you hear me|are you there|you already (?:said|asked) that|you keep repeating)\b`,
			`^\s*(?:yes|yeah|yep|no|nope|okay|ok|sure|maybe|i don'?t know|not really|i guess|hmm+|uh+|um+|well|right|i see|that's nice|oh|oh well|good|fine|thank you|thanks)[\s.!?,]*$`,
		},
		PositiveMoods:    []string{"positive", "happy", "cheerful", "upbeat", "content", "joyful", "good", "great", "engaged", "warm", "excited", "optimistic", "grateful", "pleasant", "bright", "animated", "playful"},
		NegativeMoods:    []string{"negative", "sad", "down", "low", "depressed", "lonely", "anxious", "worried", "frustrated", "upset", "irritable", "angry", "confused", "withdrawn", "tearful", "distressed"},
		ImprovementTerms: []string{"better", "improving", "improved", "recovering", "recovered", "healing", "healed", "less pain", "no longer", "feeling good", "stronger"},
		WorseningTerms:   []string{"worse", "worsening", "more pain", "increasing", "can't walk", "getting weaker", "not improving", "severe"},
		HealthPatterns: []KeywordClass{
			{Class: "pain", Terms: []string{"pain", "ache", "sore", "hurt"}},
			{Class: "sleep", Terms: []string{"sleep", "insomnia", "tired", "rest"}},
			{Class: "medication", Terms: []string{"medication", "medicine", "pills", "prescription"}},
			{Class: "mobility", Terms: []string{"walk", "walking", "cane", "walker", "balance", "fall", "fell"}},
			{Class: "appetite", Terms: []string{"appetite", "eating", "meal", "hungry"}},
		},
		FalseAlarmTerms: []string{
			"repetition", "repeating", "repeated", "glitch", "technical", "connection", "connectivity",
			"audio", "system error", "latency", "echo", "ai ", "the agent", "aila", "disconnect",
		},
		LonelinessTerms: []string{"lonely", "loneliness", "isolated", "isolation", "alone", "miss my", "no one visits", "nobody calls"},
		LifeChapters: []Chapter{
			{ID: "childhood", Name: "Childhood & Growing Up", Keywords: []string{"childhood", "growing up", "parents", "school", "young", "born", "farm", "siblings"}},
			{ID: "education", Name: "Education", Keywords: []string{"school", "college", "university", "teacher", "graduated", "studied"}},
			{ID: "career", Name: "Work & Career", Keywords: []string{"work", "job", "career", "retired", "business", "office", "worked"}},
			{ID: "love", Name: "Love & Marriage", Keywords: []string{"married", "wedding", "husband", "wife", "met", "dating", "love"}},
			{ID: "family", Name: "Raising a Family", Keywords: []string{"children", "kids", "daughter", "son", "grandchildren", "grandkids", "baby"}},
			{ID: "places", Name: "Places & Travel", Keywords: []string{"moved", "travel", "trip", "lived", "house", "city", "country", "snowbird"}},
			{ID: "passions", Name: "Hobbies & Passions", Keywords: []string{"hobby", "garden", "music", "painting", "poker", "cards", "golf", "knitting", "reading"}},
			{ID: "wisdom", Name: "Wisdom & Reflections", Keywords: []string{"learned", "advice", "lesson", "proud", "regret", "believe", "faith"}},
		},
	}
}
