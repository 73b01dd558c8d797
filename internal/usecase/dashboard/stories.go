package dashboard

import (
	"sort"
	"strings"

	"github.com/telaila/companion/internal/domain/entities"
	"github.com/telaila/companion/internal/usecase/insights"
	"github.com/telaila/companion/internal/usecase/memory"
)

const (
	maxRecentStories = 5
	maxNextAreas     = 3
)

// inTheirWords buckets memorable quotes by theme. A quote lands in at most
// one bucket; meta quotes and quotes with no theme are dropped.
func (s *Service) inTheirWords(entries []entry) []entities.ThemeBucket {
	categorizer := s.pipeline.Categorizer
	buckets := map[string]*entities.ThemeBucket{}
	seen := map[string]bool{}

	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		conv := e.rec.Analysis.Conversation
		for _, raw := range conv.MemorableQuotes {
			quote := insights.CleanQuote(raw)
			key := strings.ToLower(quote)
			if seen[key] {
				continue
			}
			theme, ok := categorizer.Categorize(quote, conv.Topics)
			if !ok {
				continue
			}
			seen[key] = true

			b, exists := buckets[theme.ID]
			if !exists {
				b = &entities.ThemeBucket{ThemeID: theme.ID, ThemeName: theme.Name, Icon: theme.Icon, Quotes: []entities.ThemeQuote{}}
				buckets[theme.ID] = b
			}
			sentiment := categorizer.Sentiment(quote, e.rec.Analysis.Mood())
			b.Quotes = append(b.Quotes, entities.ThemeQuote{
				Quote:     quote,
				Date:      e.date(),
				ThemeID:   theme.ID,
				ThemeName: theme.Name,
				Icon:      theme.Icon,
				MoodEmoji: sentiment.Emoji,
				MoodLabel: sentiment.Label,
			})
		}
	}

	out := make([]entities.ThemeBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Quotes) != len(out[j].Quotes) {
			return len(out[i].Quotes) > len(out[j].Quotes)
		}
		oi, oj := categorizer.ThemeOrder(out[i].ThemeID), categorizer.ThemeOrder(out[j].ThemeID)
		if oi != oj {
			return oi < oj
		}
		return out[i].ThemeID < out[j].ThemeID
	})
	return out
}

func (s *Service) lifeStory(entries []entry) entities.LifeStory {
	ls := entities.LifeStory{Themes: []string{}, RecentStories: []entities.StorySummary{}}
	people := map[string]bool{}

	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		bio := e.rec.Analysis.Biography
		for _, p := range bio.People {
			if name := strings.ToLower(strings.TrimSpace(p.Name)); name != "" {
				people[name] = true
			}
		}
		for _, story := range bio.Stories {
			if story.IsEmpty() {
				continue
			}
			ls.TotalStories++
			for _, name := range story.PeopleInvolved {
				if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
					people[name] = true
				}
			}

			summary := entities.StorySummary{Topic: story.Topic, Details: story.Details, Date: e.date()}
			if theme, ok := s.pipeline.Categorizer.Categorize(storyText(story), e.rec.Analysis.Conversation.Topics); ok {
				summary.ThemeID = theme.ID
				ls.Themes = appendUnique(ls.Themes, theme.Name)
			}
			if len(ls.RecentStories) < maxRecentStories {
				ls.RecentStories = append(ls.RecentStories, summary)
			}
		}
	}
	ls.PeopleMentioned = len(people)
	return ls
}

func storyText(story entities.Story) string {
	return strings.TrimSpace(strings.Join([]string{story.Topic, story.Details, story.TimePeriod}, " "))
}

// biographyProgress reports which life chapters the stories and timeline
// events have touched.
func (s *Service) biographyProgress(entries []entry, kb string) entities.BiographyProgress {
	var texts []string
	for _, e := range entries {
		bio := e.rec.Analysis.Biography
		for _, story := range bio.Stories {
			texts = append(texts, storyText(story))
		}
		for _, ev := range bio.TimelineEvents {
			texts = append(texts, ev.Event)
		}
	}
	if len(texts) == 0 {
		// compressed archives keep their stories only in the knowledge base
		for _, block := range memory.BuildingBlocks(kb) {
			texts = append(texts, block.Text)
		}
	}

	bp := entities.BiographyProgress{
		TotalChapters:  len(s.chapters),
		Chapters:       make([]entities.ChapterProgress, 0, len(s.chapters)),
		NextAreas:      []string{},
		KnowledgeWords: memory.WordCount(kb),
	}
	for _, ch := range s.chapters {
		n := 0
		for _, text := range texts {
			if ch.terms.Match(text) {
				n++
			}
		}
		captured := n > 0
		if captured {
			bp.ChaptersCaptured++
		} else if len(bp.NextAreas) < maxNextAreas {
			bp.NextAreas = append(bp.NextAreas, ch.chapter.Name)
		}
		bp.Chapters = append(bp.Chapters, entities.ChapterProgress{
			ID:       ch.chapter.ID,
			Name:     ch.chapter.Name,
			Captured: captured,
			Stories:  n,
		})
	}
	if bp.TotalChapters > 0 {
		bp.Percent = bp.ChaptersCaptured * 100 / bp.TotalChapters
	}
	return bp
}
