package insights

import (
	"time"

	"github.com/telaila/companion/internal/domain/entities"
)

// Pipeline bundles the extraction stages built from one vocabulary
type Pipeline struct {
	Keywords     Keywords
	Policy       Policy
	Extractor    *Extractor
	Consolidator *Consolidator
	Categorizer  *Categorizer
	Moods        *MoodReader
}

// NewPipeline compiles every stage from the given vocabulary
func NewPipeline(kw Keywords, policy Policy) (*Pipeline, error) {
	categorizer, err := NewCategorizer(kw, policy)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Keywords:     kw,
		Policy:       policy,
		Extractor:    NewExtractor(kw, policy),
		Consolidator: NewConsolidator(policy),
		Categorizer:  categorizer,
		Moods:        NewMoodReader(kw),
	}, nil
}

// Sources collects the text blocks worth scanning from the archive. The
// knowledge base has no date of its own.
func Sources(records []entities.ConversationRecord, knowledgeBase string) []TextSource {
	var sources []TextSource
	for _, rec := range records {
		var ts *time.Time
		if t, ok := rec.Time(); ok {
			ts = &t
		}
		health := rec.Analysis.Health
		if s := health.Summary.String(); s != "" {
			sources = append(sources, TextSource{Text: s, Timestamp: ts, Source: SourceHealthSummary})
		}
		for _, flag := range health.RedFlags {
			sources = append(sources, TextSource{Text: flag, Timestamp: ts, Source: SourceRedFlag})
		}
		for _, concern := range rec.Analysis.FamilyDashboard.Concerns {
			sources = append(sources, TextSource{Text: concern, Timestamp: ts, Source: SourceConcern})
		}
		if rec.Transcript != "" {
			sources = append(sources, TextSource{Text: rec.Transcript, Timestamp: ts, Source: SourceTranscript})
		}
	}
	if knowledgeBase != "" {
		sources = append(sources, TextSource{Text: knowledgeBase, Source: SourceKnowledgeBase})
	}
	return sources
}

// HealthEvents runs extraction, consolidation and linking over the archive
func (p *Pipeline) HealthEvents(records []entities.ConversationRecord, knowledgeBase string) []entities.HealthEvent {
	mentions := p.Extractor.Extract(Sources(records, knowledgeBase))
	return Link(p.Consolidator.Consolidate(mentions))
}
