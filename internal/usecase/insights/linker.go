package insights

import (
	"sort"

	"github.com/telaila/companion/internal/domain/entities"
)

// Link attaches every symptom to the injury most likely to have caused it.
// Injuries are tried from most recent to oldest and the first compatible one
// wins; an injury on the symptom's own body part beats one with no known body
// part. The input slice is not modified.
func Link(events []entities.HealthEvent) []entities.HealthEvent {
	out := make([]entities.HealthEvent, len(events))
	copy(out, events)
	for i := range out {
		out[i].RelatedSymptoms = append([]entities.RelatedSymptom{}, out[i].RelatedSymptoms...)
	}

	var injuries, symptoms []int
	for i, ev := range out {
		if ev.Type == entities.HealthEventInjury {
			injuries = append(injuries, i)
		} else {
			symptoms = append(symptoms, i)
		}
	}
	sort.SliceStable(injuries, func(a, b int) bool {
		ta, tb := out[injuries[a]].DetectedOn, out[injuries[b]].DetectedOn
		switch {
		case ta == nil:
			return false
		case tb == nil:
			return true
		default:
			return ta.After(*tb)
		}
	})
	sort.SliceStable(symptoms, func(a, b int) bool {
		return compareTimes(out[symptoms[a]].DetectedOn, out[symptoms[b]].DetectedOn) < 0
	})

	for _, si := range symptoms {
		symptom := &out[si]
		if symptom.LinkedTo != "" {
			continue
		}
		ci := findCause(out, injuries, *symptom, true)
		if ci < 0 {
			ci = findCause(out, injuries, *symptom, false)
		}
		if ci < 0 {
			continue
		}
		cause := &out[ci]
		cause.RelatedSymptoms = append(cause.RelatedSymptoms, entities.RelatedSymptom{
			EventID: symptom.EventID,
			Title:   symptom.Title,
		})
		symptom.LinkedTo = cause.EventID
		symptom.LinkedToTitle = cause.Title
	}

	SortEvents(out)
	return out
}

// findCause returns the index of the first compatible injury, or -1. With
// samePart set only injuries on the symptom's own body part qualify.
func findCause(events []entities.HealthEvent, injuries []int, symptom entities.HealthEvent, samePart bool) int {
	for _, ii := range injuries {
		cause := events[ii]
		if samePart && (symptom.BodyPart == "" || cause.BodyPart != symptom.BodyPart) {
			continue
		}
		if canCause(cause, symptom) {
			return ii
		}
	}
	return -1
}

// canCause requires a shared or unknown body part and a cause that does not
// postdate the symptom. Undated events satisfy the ordering.
func canCause(cause, symptom entities.HealthEvent) bool {
	if cause.BodyPart != "" && symptom.BodyPart != "" && cause.BodyPart != symptom.BodyPart {
		return false
	}
	if cause.DetectedOn == nil || symptom.DetectedOn == nil {
		return true
	}
	return !cause.DetectedOn.After(*symptom.DetectedOn)
}

// SortEvents orders by severity, then first detection (undated last), then title
func SortEvents(events []entities.HealthEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if cmp := compareTimes(a.DetectedOn, b.DetectedOn); cmp != 0 {
			return cmp < 0
		}
		return a.Title < b.Title
	})
}
