package dashboard

import (
	"fmt"

	"github.com/telaila/companion/internal/domain/entities"
)

// Recommendation types
const (
	RecommendGettingStarted = "getting_started"
	RecommendHealth         = "health"
	RecommendEngagement     = "engagement"
	RecommendSocial         = "social"
	RecommendConnection     = "connection"
)

const lonelinessWindow = 3

// recommendations applies the rules in order; each rule adds at most one
// recommendation.
func (s *Service) recommendations(tester *entities.Tester, entries []entry, events []entities.HealthEvent) []entities.Recommendation {
	if len(entries) == 0 {
		return []entities.Recommendation{{
			Type:     RecommendGettingStarted,
			Priority: "high",
			Title:    "Schedule the first call",
			Message:  fmt.Sprintf("Share the conversation link so %s can have a first chat", tester.ElderName),
		}}
	}

	recs := []entities.Recommendation{}

	for _, ev := range events {
		if ev.Severity == entities.SeverityHigh {
			recs = append(recs, entities.Recommendation{
				Type:     RecommendHealth,
				Priority: "high",
				Title:    "Follow up on " + ev.Title,
				Message:  "Check in about this and consider a doctor visit if it has not been looked at",
			})
			break
		}
	}

	if len(entries) < s.policy.MinRegularConversations {
		recs = append(recs, entities.Recommendation{
			Type:     RecommendEngagement,
			Priority: "medium",
			Title:    "Encourage regular calls",
			Message:  "Two or three conversations a week help build rapport",
		})
	}

	recent := entries
	if len(recent) > lonelinessWindow {
		recent = recent[len(recent)-lonelinessWindow:]
	}
lonely:
	for _, e := range recent {
		signals := append(append([]string{}, e.rec.Analysis.Conversation.Topics...), e.rec.Analysis.FamilyDashboard.Concerns...)
		for _, text := range signals {
			if s.loneliness.Match(text) {
				recs = append(recs, entities.Recommendation{
					Type:     RecommendSocial,
					Priority: "high",
					Title:    "Plan a visit",
					Message:  fmt.Sprintf("%s mentioned feeling lonely recently", tester.ElderName),
				})
				break lonely
			}
		}
	}

	stories := 0
	for _, e := range entries {
		for _, story := range e.rec.Analysis.Biography.Stories {
			if !story.IsEmpty() {
				stories++
			}
		}
	}
	if stories > 0 {
		noun := "stories"
		if stories == 1 {
			noun = "story"
		}
		recs = append(recs, entities.Recommendation{
			Type:     RecommendConnection,
			Priority: "low",
			Title:    "Read the highlights",
			Message:  fmt.Sprintf("%d meaningful %s shared so far", stories, noun),
		})
	}
	return recs
}
