package ai

import (
	"fmt"
	"strings"
)

const maxContextChars = 6000

func analysisInstructions(agentName, elderName string) string {
	return fmt.Sprintf(`You analyze a finished phone conversation between %[1]s (an AI companion) and %[2]s, an older adult.
Only %[2]s's own words are evidence. Lines spoken by %[1]s are context.

Extract:
1. Health: pain or discomfort (location, severity if given), sleep, appetite, energy, mood, medications, doctor visits, mobility and falls.
   Red flags are urgent concerns only: chest pain, severe symptoms, falls, thoughts of self-harm.
   Problems with the call itself (repetition, glitches, audio, connection) are never health concerns.
2. Biography: life stories in full detail with the people involved, sensory details, places, dated life events.
3. Conversation: overall mood, engagement (high, moderate or low), topics, memorable quotes in %[2]s's exact words, follow-ups for next time.
4. Family dashboard: a short health summary for the family, notable positive moments, real wellbeing concerns, recommended actions.

Only include what was actually said. Use empty strings and empty lists for anything not mentioned.`, agentName, elderName)
}

func analysisInput(transcript, knowledgeBase string) string {
	var b strings.Builder
	if kb := strings.TrimSpace(knowledgeBase); kb != "" {
		if len(kb) > maxContextChars {
			kb = kb[len(kb)-maxContextChars:]
		}
		b.WriteString("WHAT WE ALREADY KNOW (for context, do not re-extract):\n")
		b.WriteString(kb)
		b.WriteString("\n\n")
	}
	b.WriteString("CONVERSATION TRANSCRIPT:\n")
	b.WriteString(transcript)
	return b.String()
}

func compressionInstructions(elderName string, keepSessions int) string {
	return fmt.Sprintf(`You compress the conversation memory of %s to save tokens without losing anything important.

Keep:
1. Core facts: name, age, family, where they live, interests, lasting health conditions, loved ones who have passed, career, personality.
2. The most recent %d "### Session" sections word for word.
3. Older sessions condensed into bullet points grouped by theme (health timeline, family events, interests), keeping memorable quotes and mood patterns.

Keep every "## " heading of the document in the same order. Target 8,000 to 10,000 characters.
Return only the compressed markdown document.`, elderName, keepSessions)
}
