package insights

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/telaila/companion/internal/domain/entities"
)

const generalBodyPart = "general"

// Consolidator groups raw mentions into health events
type Consolidator struct {
	policy Policy
}

// NewConsolidator creates a consolidator
func NewConsolidator(policy Policy) *Consolidator {
	return &Consolidator{policy: policy}
}

// cluster accumulates the mentions behind one event
type cluster struct {
	typ      entities.HealthEventType
	keyword  string
	bodyPart string

	first   *time.Time
	last    *time.Time
	count   int
	context string
	sources map[Source]bool
}

func (c *cluster) add(m RawMention) {
	c.count++
	c.sources[m.Source] = true
	if len(m.Context) > len(c.context) {
		c.context = m.Context
	}
	if m.Timestamp == nil {
		return
	}
	if c.first == nil || m.Timestamp.Before(*c.first) {
		t := *m.Timestamp
		c.first = &t
	}
	if c.last == nil || m.Timestamp.After(*c.last) {
		t := *m.Timestamp
		c.last = &t
	}
}

func (c *cluster) absorb(o *cluster) {
	c.count += o.count
	for s := range o.sources {
		c.sources[s] = true
	}
	if len(o.context) > len(c.context) {
		c.context = o.context
	}
	if o.first != nil && (c.first == nil || o.first.Before(*c.first)) {
		c.first = o.first
	}
	if o.last != nil && (c.last == nil || o.last.After(*c.last)) {
		c.last = o.last
	}
}

func (c *cluster) isFall() bool {
	return c.typ == entities.HealthEventInjury && c.keyword == FallClass
}

// Consolidate groups mentions by (type, keyword, body part), then merges all
// falls into one event and collapses other injuries that share a body part.
func (c *Consolidator) Consolidate(mentions []RawMention) []entities.HealthEvent {
	groups := make(map[string]*cluster)
	for _, m := range mentions {
		bodyPart := m.BodyPart
		if bodyPart == "" {
			bodyPart = generalBodyPart
		}
		key := string(m.Type) + "|" + m.Keyword + "|" + bodyPart
		g, ok := groups[key]
		if !ok {
			g = &cluster{typ: m.Type, keyword: m.Keyword, bodyPart: m.BodyPart, sources: make(map[Source]bool)}
			groups[key] = g
		}
		g.add(m)
	}

	clusters := make([]*cluster, 0, len(groups))
	for _, g := range groups {
		clusters = append(clusters, g)
	}
	sortClusters(clusters)

	merged := mergeClusters(clusters)

	events := make([]entities.HealthEvent, 0, len(merged))
	for _, cl := range merged {
		events = append(events, c.toEvent(cl))
	}
	SortEvents(events)
	return events
}

// sortClusters orders by first mention (undated last), then body part and keyword
func sortClusters(clusters []*cluster) {
	sort.SliceStable(clusters, func(i, j int) bool {
		a, b := clusters[i], clusters[j]
		if cmp := compareTimes(a.first, b.first); cmp != 0 {
			return cmp < 0
		}
		if a.bodyPart != b.bodyPart {
			return a.bodyPart < b.bodyPart
		}
		if a.keyword != b.keyword {
			return a.keyword < b.keyword
		}
		return a.typ < b.typ
	})
}

// mergeClusters expects clusters in sortClusters order, so the first body part
// found is the earliest dated one.
func mergeClusters(clusters []*cluster) []*cluster {
	var fall *cluster
	byBodyPart := make(map[string]*cluster)
	var out []*cluster

	for _, cl := range clusters {
		if !cl.isFall() {
			continue
		}
		if fall == nil {
			fall = &cluster{typ: cl.typ, keyword: FallClass, sources: make(map[Source]bool)}
			out = append(out, fall)
		}
		if fall.bodyPart == "" {
			fall.bodyPart = cl.bodyPart
		}
		fall.absorb(cl)
	}

	for _, cl := range clusters {
		switch {
		case cl.isFall():
		case cl.typ != entities.HealthEventInjury || cl.bodyPart == "":
			out = append(out, cl)
		case fall != nil && cl.bodyPart == fall.bodyPart && !datedBefore(cl.first, fall.first):
			fall.absorb(cl)
		default:
			if existing, ok := byBodyPart[cl.bodyPart]; ok {
				existing.absorb(cl)
				continue
			}
			byBodyPart[cl.bodyPart] = cl
			out = append(out, cl)
		}
	}
	return out
}

// datedBefore reports whether a is set and strictly earlier than b
func datedBefore(a, b *time.Time) bool {
	return a != nil && b != nil && a.Before(*b)
}

func (c *Consolidator) toEvent(cl *cluster) entities.HealthEvent {
	severity := entities.SeverityLow
	switch {
	case cl.typ == entities.HealthEventInjury:
		severity = entities.SeverityHigh
	case cl.count >= c.policy.SymptomModerateMentions:
		severity = entities.SeverityModerate
	}

	sources := make([]string, 0, len(cl.sources))
	for s := range cl.sources {
		sources = append(sources, string(s))
	}
	sort.Strings(sources)

	return entities.HealthEvent{
		EventID:             EventID(cl.typ, cl.keyword, cl.bodyPart, cl.first),
		Type:                cl.typ,
		Severity:            severity,
		Title:               eventTitle(cl),
		Description:         cleanContext(truncateAtSentence(cl.context, c.policy.DescriptionMaxLength)),
		Keyword:             cl.keyword,
		BodyPart:            cl.bodyPart,
		DetectedOn:          cl.first,
		LastMentioned:       cl.last,
		RelatedSymptoms:     []entities.RelatedSymptom{},
		Status:              entities.HealthEventStatusActive,
		NeedsFamilyFollowup: severity == entities.SeverityHigh,
		MentionsCount:       cl.count,
		Sources:             sources,
	}
}

func eventTitle(cl *cluster) string {
	switch {
	case cl.isFall() && cl.bodyPart != "":
		return "Fall Incident - " + titleCase(cl.bodyPart) + " Injury"
	case cl.isFall():
		return "Fall Incident"
	case cl.typ == entities.HealthEventInjury && cl.bodyPart != "":
		return titleCase(cl.bodyPart + " " + cl.keyword)
	case cl.typ == entities.HealthEventInjury:
		return titleCase(cl.keyword) + " Injury"
	case cl.bodyPart != "":
		return titleCase(cl.keyword) + " (" + titleCase(cl.bodyPart) + ")"
	default:
		return titleCase(cl.keyword)
	}
}

// EventID derives a stable identifier from the consolidation key and the
// first time the event was seen.
func EventID(typ entities.HealthEventType, keyword, bodyPart string, first *time.Time) string {
	if bodyPart == "" {
		bodyPart = generalBodyPart
	}
	seen := "undated"
	if first != nil {
		seen = first.UTC().Format(time.RFC3339)
	}
	key := strings.Join([]string{string(typ), keyword, bodyPart, seen}, "|")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("telaila:health-event:"+key)).String()
}

// compareTimes orders dated values first
func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case a.After(*b):
		return 1
	default:
		return 0
	}
}
