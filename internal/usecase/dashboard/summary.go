package dashboard

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/telaila/companion/internal/domain/entities"
)

const (
	periodLastWeek = "last_7_days"
	periodRecent   = "recent"

	maxTopTopics = 10
	maxHighlight = 2
)

var engagementScores = map[string]float64{"low": 1, "moderate": 2, "high": 3}

// moodBuckets is the tie-break order for the dominant mood
var moodBuckets = []string{"positive", "neutral", "negative"}

func (s *Service) summary(tester *entities.Tester, entries []entry, now time.Time) entities.DashboardSummary {
	sum := entities.DashboardSummary{
		TotalConversations: len(entries),
		FirstConversation:  unknownDate,
		LastConversation:   unknownDate,
		Status:             StatusInactive,
	}

	var first, last *entry
	for i := range entries {
		if !entries[i].dated {
			continue
		}
		if first == nil {
			first = &entries[i]
		}
		last = &entries[i]
	}
	if first != nil {
		sum.FirstConversation = first.date()
		sum.LastConversation = last.date()
		days := int(now.Sub(last.at).Hours() / 24)
		if days < 0 {
			days = 0
		}
		sum.DaysSinceLast = &days
		if days < s.policy.ActiveWithinDays {
			sum.Status = StatusActive
		}
	}

	var total float64
	for _, e := range entries {
		total += engagementScores[e.rec.Analysis.Engagement()]
	}
	avg := total / float64(len(entries))
	sum.EngagementScore = math.Round(avg*100) / 100
	switch {
	case avg >= s.policy.EngagementHighThreshold:
		sum.AverageEngagement = "high"
	case avg >= s.policy.EngagementModerateThreshold:
		sum.AverageEngagement = "moderate"
	default:
		sum.AverageEngagement = "low"
	}

	recent := entries
	if w := s.policy.RecentMoodWindow; w > 0 && len(recent) > w {
		recent = recent[len(recent)-w:]
	}
	counts := map[string]int{}
	for _, e := range recent {
		counts[s.pipeline.Moods.Label(e.rec.Analysis.Mood())]++
	}
	sum.DominantMood = moodBuckets[0]
	for _, bucket := range moodBuckets[1:] {
		if counts[bucket] > counts[sum.DominantMood] {
			sum.DominantMood = bucket
		}
	}

	seconds := 0
	for _, e := range entries {
		seconds += s.durationSeconds(e.rec)
	}
	sum.TotalMinutes = seconds / 60

	noun := "conversations"
	if len(entries) == 1 {
		noun = "conversation"
	}
	sum.Message = fmt.Sprintf("%d %s with %s so far", len(entries), noun, tester.ElderName)
	return sum
}

// durationSeconds uses the recorded call length, else estimates from turns
func (s *Service) durationSeconds(rec entities.ConversationRecord) int {
	if rec.DurationSeconds > 0 {
		return int(math.Round(rec.DurationSeconds))
	}
	return rec.TurnCount() * s.policy.SecondsPerTurn
}

// weeklyUpdates digests the last seven local days, newest first. When the
// window is empty the most recent conversations are digested instead.
func (s *Service) weeklyUpdates(entries []entry, now time.Time) entities.WeeklyUpdates {
	cutoff := now.AddDate(0, 0, -7)
	var window []entry
	for _, e := range entries {
		if e.dated && !e.at.Before(cutoff) && !e.at.After(now) {
			window = append(window, e)
		}
	}

	period := periodLastWeek
	if len(window) == 0 {
		period = periodRecent
		window = entries
		if n := s.policy.WeeklyFallbackCount; n > 0 && len(window) > n {
			window = window[len(window)-n:]
		}
	}

	var order []string
	byDay := map[string]*entities.DayDigest{}
	for i := len(window) - 1; i >= 0; i-- {
		e := window[i]
		key := e.date()
		d, ok := byDay[key]
		if !ok {
			mood := e.rec.Analysis.Mood()
			d = &entities.DayDigest{
				Date:       key,
				Mood:       mood,
				MoodEmoji:  s.pipeline.Moods.MoodSentiment(mood).Emoji,
				Topics:     []string{},
				Highlights: []string{},
			}
			if e.dated {
				d.Weekday = e.at.Weekday().String()
			}
			byDay[key] = d
			order = append(order, key)
		}
		d.Conversations++
		d.Minutes += (s.durationSeconds(e.rec) + 59) / 60
		d.Topics = appendUnique(d.Topics, e.rec.Analysis.Conversation.Topics...)
		for _, h := range highlights(e.rec) {
			if len(d.Highlights) < maxHighlight {
				d.Highlights = appendUnique(d.Highlights, h)
			}
		}
	}

	days := make([]entities.DayDigest, 0, len(order))
	for _, key := range order {
		days = append(days, *byDay[key])
	}
	return entities.WeeklyUpdates{Period: period, Days: days}
}

func highlights(rec entities.ConversationRecord) []string {
	if moments := rec.Analysis.FamilyDashboard.NotableMoments; len(moments) > 0 {
		return moments
	}
	return rec.Analysis.Conversation.FollowUps
}

func (s *Service) trends(entries []entry) entities.Trends {
	t := entities.Trends{
		MoodTimeline:       []entities.TimelinePoint{},
		EngagementTimeline: []entities.TimelinePoint{},
		WeeklyFrequency:    []entities.WeekCount{},
		TopTopics:          []entities.TopicCount{},
		DataPoints:         len(entries),
	}

	weeks := map[string]int{}
	topics := map[string]int{}
	for _, e := range entries {
		for _, topic := range e.rec.Analysis.Conversation.Topics {
			if key := strings.ToLower(strings.TrimSpace(topic)); key != "" {
				topics[key]++
			}
		}
		if !e.dated {
			continue
		}
		day := e.at.Format(dayLayout)
		mood := e.rec.Analysis.Mood()
		t.MoodTimeline = append(t.MoodTimeline, entities.TimelinePoint{
			Date:  day,
			Label: s.pipeline.Moods.Label(mood),
			Score: float64(s.pipeline.Moods.Score(mood)),
		})
		engagement := e.rec.Analysis.Engagement()
		t.EngagementTimeline = append(t.EngagementTimeline, entities.TimelinePoint{
			Date:  day,
			Label: engagement,
			Score: engagementScores[engagement],
		})
		year, week := e.at.ISOWeek()
		weeks[fmt.Sprintf("%d-W%02d", year, week)]++
	}

	for week, n := range weeks {
		t.WeeklyFrequency = append(t.WeeklyFrequency, entities.WeekCount{Week: week, Conversations: n})
	}
	sort.Slice(t.WeeklyFrequency, func(i, j int) bool { return t.WeeklyFrequency[i].Week < t.WeeklyFrequency[j].Week })

	t.TopTopics = topCounts(topics, maxTopTopics)
	return t
}

// topCounts orders by count, then alphabetically
func topCounts(counts map[string]int, limit int) []entities.TopicCount {
	out := make([]entities.TopicCount, 0, len(counts))
	for topic, n := range counts {
		out = append(out, entities.TopicCount{Topic: topic, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Topic < out[j].Topic
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// appendUnique adds values not already present, ignoring case
func appendUnique(list []string, values ...string) []string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		dup := false
		for _, existing := range list {
			if strings.EqualFold(existing, v) {
				dup = true
				break
			}
		}
		if !dup {
			list = append(list, v)
		}
	}
	return list
}
