package insights

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/telaila/companion/internal/domain/entities"
)

// Source tags where a block of text came from
type Source string

const (
	SourceHealthSummary Source = "health_summary"
	SourceRedFlag       Source = "red_flag"
	SourceTranscript    Source = "transcript"
	SourceKnowledgeBase Source = "knowledge_base"
	SourceConcern       Source = "concern"
)

// TextSource is one block of text to scan
type TextSource struct {
	Text      string
	Timestamp *time.Time
	Source    Source
}

// RawMention is a single keyword hit with its surrounding context
type RawMention struct {
	Type      entities.HealthEventType
	Keyword   string
	Matched   string
	BodyPart  string
	Context   string
	Timestamp *time.Time
	Source    Source
}

// Extractor finds injury and symptom mentions in free text
type Extractor struct {
	policy Policy

	fall           *regexp.Regexp
	fallExclusions *regexp.Regexp
	injuries       []termMatcher
	symptoms       []termMatcher
	bodyParts      []termMatcher
	idioms         *regexp.Regexp
	agents         map[string]bool
}

// NewExtractor compiles the keyword tables
func NewExtractor(kw Keywords, policy Policy) *Extractor {
	agents := make(map[string]bool, len(kw.AgentSpeakers))
	for _, name := range kw.AgentSpeakers {
		agents[strings.ToLower(strings.TrimSpace(name))] = true
	}
	return &Extractor{
		policy:         policy,
		fall:           compileTerms(kw.Fall.Terms),
		fallExclusions: compileTerms(kw.FallExclusions),
		injuries:       compileClasses(kw.Injuries),
		symptoms:       compileClasses(kw.Symptoms),
		bodyParts:      compileClasses(kw.BodyParts),
		idioms:         compileTerms(kw.BodyPartIdioms),
		agents:         agents,
	}
}

// Extract scans every source. It never fails; no match yields an empty slice.
func (e *Extractor) Extract(sources []TextSource) []RawMention {
	mentions := make([]RawMention, 0)
	for _, src := range sources {
		text := src.Text
		switch src.Source {
		case SourceTranscript:
			text = e.filterSpeakers(text, true)
		case SourceKnowledgeBase:
			text = e.filterSpeakers(text, false)
		}
		mentions = append(mentions, e.extractBlock(text, src)...)
	}
	return mentions
}

var speakerTag = regexp.MustCompile(`^\s*([A-Za-z][\w .'-]{0,30}?)\s*:\s?(.*)$`)

// UserUtterances drops every line spoken by the companion agent. Untagged
// lines belong to the previous speaker; a transcript starts with the user.
func (e *Extractor) UserUtterances(transcript string) string {
	return e.filterSpeakers(transcript, true)
}

func (e *Extractor) filterSpeakers(text string, inherit bool) string {
	var b strings.Builder
	agent := false
	for _, line := range strings.Split(text, "\n") {
		lineAgent := agent
		if m := speakerTag.FindStringSubmatch(line); m != nil {
			if e.agents[strings.ToLower(strings.TrimSpace(m[1]))] {
				lineAgent = true
			} else {
				lineAgent = false
				line = m[2]
			}
		} else if !inherit {
			lineAgent = false
		}
		if inherit {
			agent = lineAgent
		}
		if lineAgent || strings.TrimSpace(line) == "" {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

type bodyHit struct {
	span
	class string
}

func (e *Extractor) extractBlock(text string, src TextSource) []RawMention {
	norm := strings.ToValidUTF8(normalizeText(text), " ")
	if strings.TrimSpace(norm) == "" {
		return nil
	}
	lower := lowerInPlace(norm)
	bodies := e.bodyHits(lower)

	var out []RawMention
	seen := make(map[string]bool)
	emit := func(typ entities.HealthEventType, class string, s span, bodyPart, context string) {
		key := string(typ) + "|" + class + "|" + bodyPart
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, RawMention{
			Type:      typ,
			Keyword:   class,
			Matched:   lower[s.start:s.end],
			BodyPart:  bodyPart,
			Context:   context,
			Timestamp: src.Timestamp,
			Source:    src.Source,
		})
	}

	var fallWindow *span
	if fs, ok := e.firstFall(lower); ok {
		lo, hi := contextWindow(lower, fs.start, fs.end, e.policy.ContextBefore, e.policy.ContextAfter)
		fallWindow = &span{lo, hi}
		bodyPart := bodyPartInClause(lower, fs.start, bodies)

		// injuries described alongside the fall belong to it
		for _, m := range e.injuries {
			for _, s := range spansOf(m.re, lower) {
				if s.start < lo || s.start >= hi {
					continue
				}
				if bodyPart == "" {
					bodyPart = bodyPartInClause(lower, s.start, bodies)
				}
			}
		}
		emit(entities.HealthEventInjury, FallClass, fs, bodyPart, cleanContext(norm[lo:hi]))
	}

	for _, m := range e.injuries {
		for _, s := range spansOf(m.re, lower) {
			if fallWindow != nil && s.start >= fallWindow.start && s.start < fallWindow.end {
				continue
			}
			e.emitMatch(emit, entities.HealthEventInjury, m.class, s, norm, lower, bodies)
		}
	}
	for _, m := range e.symptoms {
		for _, s := range spansOf(m.re, lower) {
			e.emitMatch(emit, entities.HealthEventSymptom, m.class, s, norm, lower, bodies)
		}
	}
	return out
}

func (e *Extractor) emitMatch(
	emit func(entities.HealthEventType, string, span, string, string),
	typ entities.HealthEventType, class string, s span, norm, lower string, bodies []bodyHit,
) {
	lo, hi := contextWindow(lower, s.start, s.end, e.policy.ContextBefore, e.policy.ContextAfter)
	emit(typ, class, s, bodyPartInClause(lower, s.start, bodies), cleanContext(norm[lo:hi]))
}

// firstFall returns the first fall-family match not covered by an exclusion
// such as "fell asleep" or "last fall".
func (e *Extractor) firstFall(lower string) (span, bool) {
	if e.fall == nil {
		return span{}, false
	}
	excluded := spansOf(e.fallExclusions, lower)
	for _, s := range spansOf(e.fall, lower) {
		if !covered(excluded, s.start, s.end) {
			return s, true
		}
	}
	return span{}, false
}

func (e *Extractor) bodyHits(lower string) []bodyHit {
	idioms := spansOf(e.idioms, lower)
	var hits []bodyHit
	for _, m := range e.bodyParts {
		for _, s := range spansOf(m.re, lower) {
			if covered(idioms, s.start, s.end) {
				continue
			}
			hits = append(hits, bodyHit{span: s, class: m.class})
		}
	}
	return hits
}

// bodyPartInClause returns the first body part appearing in the clause around pos
func bodyPartInClause(lower string, pos int, bodies []bodyHit) string {
	lo, hi := clauseAt(lower, pos)
	best := -1
	class := ""
	for _, h := range bodies {
		if h.start >= lo && h.end <= hi && (best < 0 || h.start < best) {
			best = h.start
			class = h.class
		}
	}
	return class
}

// lowerInPlace lower-cases s without changing byte offsets
func lowerInPlace(s string) string {
	return strings.Map(func(r rune) rune {
		l := unicode.ToLower(r)
		if utf8.RuneLen(l) != utf8.RuneLen(r) {
			return r
		}
		return l
	}, s)
}
