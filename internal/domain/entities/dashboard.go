package entities

import "time"

// DashboardReport is the family-facing aggregate for one tester
type DashboardReport struct {
	Tester            TesterProfile     `json:"tester"`
	GeneratedAt       time.Time         `json:"generated_at"`
	Summary           DashboardSummary  `json:"summary"`
	HealthEvents      []HealthEvent     `json:"health_events"`
	HealthInsights    HealthInsights    `json:"health_insights"`
	InTheirWords      []ThemeBucket     `json:"in_their_words"`
	LifeStory         LifeStory         `json:"life_story"`
	WeeklyUpdates     WeeklyUpdates     `json:"weekly_updates"`
	Alerts            []Alert           `json:"alerts"`
	Trends            Trends            `json:"trends"`
	Recommendations   []Recommendation  `json:"recommendations"`
	BiographyProgress BiographyProgress `json:"biography_progress"`
}

// TesterProfile is the public part of a tester record
type TesterProfile struct {
	ID           string       `json:"id"`
	ElderName    string       `json:"elder_name"`
	FamilyName   string       `json:"family_name"`
	Relationship string       `json:"relationship,omitempty"`
	Status       TesterStatus `json:"status"`
}

// DashboardSummary holds the headline numbers
type DashboardSummary struct {
	TotalConversations int     `json:"total_conversations"`
	FirstConversation  string  `json:"first_conversation"`
	LastConversation   string  `json:"last_conversation"`
	DaysSinceLast      *int    `json:"days_since_last"`
	Status             string  `json:"status"`
	AverageEngagement  string  `json:"average_engagement"`
	EngagementScore    float64 `json:"engagement_score"`
	DominantMood       string  `json:"dominant_mood"`
	TotalMinutes       int     `json:"total_minutes"`
	Message            string  `json:"message"`
}

// HealthInsights summarizes health mentions across conversations
type HealthInsights struct {
	CurrentStatus       string          `json:"current_status"`
	TotalHealthMentions int             `json:"total_health_mentions"`
	ActiveConcerns      []string        `json:"active_concerns"`
	Patterns            []HealthPattern `json:"patterns"`
	Trend               string          `json:"trend"`
}

// HealthPattern is a recurring health topic
type HealthPattern struct {
	Type        string `json:"type"`
	Occurrences int    `json:"occurrences"`
	Note        string `json:"note"`
}

// ThemeQuote is a memorable quote assigned to one theme
type ThemeQuote struct {
	Quote     string `json:"quote"`
	Date      string `json:"date"`
	ThemeID   string `json:"theme_id"`
	ThemeName string `json:"theme_name"`
	Icon      string `json:"icon"`
	MoodEmoji string `json:"mood_emoji"`
	MoodLabel string `json:"mood_label"`
}

// ThemeBucket groups the quotes of one theme
type ThemeBucket struct {
	ThemeID   string       `json:"theme_id"`
	ThemeName string       `json:"theme_name"`
	Icon      string       `json:"icon"`
	Quotes    []ThemeQuote `json:"quotes"`
}

// LifeStory is the dashboard's biography preview
type LifeStory struct {
	TotalStories    int            `json:"total_stories"`
	PeopleMentioned int            `json:"people_mentioned"`
	Themes          []string       `json:"themes"`
	RecentStories   []StorySummary `json:"recent_stories"`
}

// StorySummary is a story shown on the dashboard
type StorySummary struct {
	Topic   string `json:"topic"`
	Details string `json:"details"`
	Date    string `json:"date"`
	ThemeID string `json:"theme_id,omitempty"`
}

// WeeklyUpdates holds the per-day digests. Period is last_7_days, or recent
// when nothing happened in the window and older calls are shown instead.
type WeeklyUpdates struct {
	Period string      `json:"period"`
	Days   []DayDigest `json:"days"`
}

// DayDigest summarizes one local calendar day
type DayDigest struct {
	Date          string   `json:"date"`
	Weekday       string   `json:"weekday"`
	Conversations int      `json:"conversations"`
	Mood          string   `json:"mood"`
	MoodEmoji     string   `json:"mood_emoji"`
	Minutes       int      `json:"minutes"`
	Topics        []string `json:"topics"`
	Highlights    []string `json:"highlights"`
}

// Alert is something the family should act on
type Alert struct {
	Severity string `json:"severity"`
	Type     string `json:"type"`
	Message  string `json:"message"`
	Date     string `json:"date"`
	EventID  string `json:"event_id,omitempty"`
}

// Trends holds time series for charts
type Trends struct {
	MoodTimeline       []TimelinePoint `json:"mood_timeline"`
	EngagementTimeline []TimelinePoint `json:"engagement_timeline"`
	WeeklyFrequency    []WeekCount     `json:"weekly_frequency"`
	TopTopics          []TopicCount    `json:"top_topics"`
	DataPoints         int             `json:"data_points"`
}

// TimelinePoint is one conversation on a chart
type TimelinePoint struct {
	Date  string  `json:"date"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// WeekCount is the number of conversations in an ISO week
type WeekCount struct {
	Week          string `json:"week"`
	Conversations int    `json:"conversations"`
}

// TopicCount is how often a topic came up
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// Recommendation is a suggested next step for the family
type Recommendation struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Title    string `json:"title"`
	Message  string `json:"message"`
}

// BiographyProgress tracks which life chapters have been captured
type BiographyProgress struct {
	ChaptersCaptured int               `json:"chapters_captured"`
	TotalChapters    int               `json:"total_chapters"`
	Percent          int               `json:"percent"`
	Chapters         []ChapterProgress `json:"chapters"`
	NextAreas        []string          `json:"next_areas"`
	KnowledgeWords   int               `json:"knowledge_base_words"`
}

// ChapterProgress reports coverage of one life chapter
type ChapterProgress struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Captured bool   `json:"captured"`
	Stories  int    `json:"stories"`
}
