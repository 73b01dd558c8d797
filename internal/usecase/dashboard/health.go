package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/telaila/companion/internal/domain/entities"
	"github.com/telaila/companion/internal/usecase/insights"
	"github.com/telaila/companion/internal/usecase/memory"
)

// Health trends
const (
	TrendImproving        = "improving"
	TrendDeclining        = "declining"
	TrendStable           = "stable"
	TrendInsufficientData = "insufficient_data"
)

const (
	noHealthInfo = "No recent health information"

	trendWindow    = 3
	trendThreshold = 0.5
	maxConcerns    = 3
	minPattern     = 3
)

// Alert types and severities
const (
	AlertHealthEvent    = "health_event"
	AlertHealthConcern  = "health_concern"
	AlertGeneralConcern = "general_concern"

	alertHigh   = "high"
	alertMedium = "medium"
)

type healthMention struct {
	summary string
	mood    string
}

func (s *Service) healthInsights(entries []entry) entities.HealthInsights {
	hi := entities.HealthInsights{
		CurrentStatus:  noHealthInfo,
		ActiveConcerns: []string{},
		Patterns:       []entities.HealthPattern{},
	}

	var mentions []healthMention
	var flags []string
	patternCounts := make([]int, len(s.patterns))
	for _, e := range entries {
		health := e.rec.Analysis.Health
		summary := strings.TrimSpace(health.Summary.String())
		if summary != "" && summary != memory.FallbackHealthSummary {
			mentions = append(mentions, healthMention{summary: summary, mood: e.rec.Analysis.Mood()})
			hi.CurrentStatus = summary
		}
		for _, flag := range health.RedFlags {
			if !s.falseAlarms.Match(flag) {
				flags = append(flags, flag)
			}
		}

		text := healthText(health)
		for i, p := range s.patterns {
			if p.Match(text) {
				patternCounts[i]++
			}
		}
	}

	hi.TotalHealthMentions = len(mentions)
	if len(flags) > maxConcerns {
		flags = flags[len(flags)-maxConcerns:]
	}
	hi.ActiveConcerns = append(hi.ActiveConcerns, flags...)

	for i, p := range s.patterns {
		if patternCounts[i] >= minPattern {
			hi.Patterns = append(hi.Patterns, entities.HealthPattern{
				Type:        p.Class(),
				Occurrences: patternCounts[i],
				Note:        fmt.Sprintf("%s came up in %d conversations", cases.Title(language.English).String(p.Class()), patternCounts[i]),
			})
		}
	}

	hi.Trend = s.healthTrend(mentions)
	return hi
}

// healthText is everything the analysis said about health, as one string
func healthText(h entities.HealthAnalysis) string {
	parts := []string{h.Summary.String(), string(h.Pain), string(h.Sleep), string(h.Appetite), string(h.Medications), h.Energy.String()}
	parts = append(parts, h.RedFlags...)
	return strings.Join(parts, " ")
}

// healthTrend compares the newest of the last few health mentions against
// the mean of the ones before it.
func (s *Service) healthTrend(mentions []healthMention) string {
	if len(mentions) < 2 {
		return TrendInsufficientData
	}
	if len(mentions) > trendWindow {
		mentions = mentions[len(mentions)-trendWindow:]
	}

	scores := make([]float64, len(mentions))
	for i, m := range mentions {
		scores[i] = float64(s.pipeline.Moods.HealthScore(m.summary, m.mood))
	}
	newest := scores[len(scores)-1]
	var earlier float64
	for _, v := range scores[:len(scores)-1] {
		earlier += v
	}
	earlier /= float64(len(scores) - 1)

	switch diff := newest - earlier; {
	case diff > trendThreshold:
		return TrendImproving
	case diff < -trendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

type pendingAlert struct {
	alert entities.Alert
	at    *time.Time
}

// alerts lists what the family should act on: high-severity events first,
// then red flags no event explains, then analyzer concerns.
func (s *Service) alerts(entries []entry, events []entities.HealthEvent) []entities.Alert {
	var pending []pendingAlert
	seen := map[string]bool{}
	add := func(a entities.Alert, at *time.Time) {
		key := normalizeMessage(a.Message)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		pending = append(pending, pendingAlert{alert: a, at: at})
	}

	for _, ev := range events {
		if ev.Severity != entities.SeverityHigh {
			continue
		}
		at := ev.LastMentioned
		if at == nil {
			at = ev.DetectedOn
		}
		message := ev.Title
		if ev.Description != "" {
			message += ": " + ev.Description
		}
		add(entities.Alert{
			Severity: alertHigh,
			Type:     AlertHealthEvent,
			Message:  message,
			Date:     s.formatDate(at),
			EventID:  ev.EventID,
		}, at)
	}

	for _, e := range entries {
		var at *time.Time
		if e.dated {
			t := e.at
			at = &t
		}
		for _, flag := range e.rec.Analysis.Health.RedFlags {
			if s.falseAlarms.Match(flag) || s.coveredByEvent(flag, events) {
				continue
			}
			add(entities.Alert{Severity: alertHigh, Type: AlertHealthConcern, Message: flag, Date: e.date()}, at)
		}
		for _, concern := range e.rec.Analysis.FamilyDashboard.Concerns {
			if s.falseAlarms.Match(concern) {
				continue
			}
			add(entities.Alert{Severity: alertMedium, Type: AlertGeneralConcern, Message: concern, Date: e.date()}, at)
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		ri, rj := alertRank(pending[i].alert.Severity), alertRank(pending[j].alert.Severity)
		if ri != rj {
			return ri < rj
		}
		a, b := pending[i].at, pending[j].at
		if (a == nil) != (b == nil) {
			return a != nil
		}
		return a != nil && a.After(*b)
	})

	limit := s.policy.MaxAlerts
	out := make([]entities.Alert, 0, limit)
	for _, p := range pending {
		if len(out) == limit {
			break
		}
		out = append(out, p.alert)
	}
	return out
}

// coveredByEvent reports whether a red flag is already alerted through a
// high-severity event of the same keyword class.
func (s *Service) coveredByEvent(flag string, events []entities.HealthEvent) bool {
	mentions := s.pipeline.Extractor.Extract([]insights.TextSource{{Text: flag, Source: insights.SourceRedFlag}})
	for _, m := range mentions {
		for _, ev := range events {
			if ev.Severity == entities.SeverityHigh && ev.Keyword == m.Keyword {
				return true
			}
		}
	}
	return false
}

func alertRank(severity string) int {
	if severity == alertHigh {
		return 0
	}
	return 1
}

func normalizeMessage(s string) string {
	return strings.Trim(strings.Join(strings.Fields(strings.ToLower(s)), " "), ".!?,;: ")
}

func (s *Service) formatDate(t *time.Time) string {
	if t == nil {
		return unknownDate
	}
	return t.In(s.loc).Format(dateLayout)
}
