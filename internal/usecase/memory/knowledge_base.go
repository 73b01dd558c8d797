package memory

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/telaila/companion/internal/domain/entities"
)

// Knowledge base section headings
const (
	SectionQuickReference = "## Quick Reference"
	SectionProfile        = "## Person Profile"
	SectionSummaries      = "## Conversation Summaries"
	SectionTranscripts    = "## Full Conversation Transcripts"
	SectionTopics         = "## Topics for Future Reminiscence"
	SectionHealth         = "## Health Timeline"
	SectionBiography      = "## Biography Building Blocks"
)

// FallbackHealthSummary marks an analysis that could not be produced
const FallbackHealthSummary = "Unable to analyze - review transcript manually"

var placeholders = map[string]string{
	SectionSummaries:   "(Will be updated after each conversation)",
	SectionTranscripts: "(Will be stored after each conversation)",
	SectionTopics:      "(Will be identified from conversations)",
	SectionHealth:      "(Will be tracked from natural conversation)",
	SectionBiography:   "(Will emerge from their stories)",
}

var (
	totalConversations = regexp.MustCompile(`Total conversations:\s*(\d+)`)
	sessionHeading     = regexp.MustCompile(`(?m)^### Session (\d+) - [^\n]*$`)
)

const dateLayout = "January 2, 2006"

// New returns the empty knowledge base of a new tester
func New(elderName string) string {
	return fmt.Sprintf(`# Conversation Memory for %[1]s

## Quick Reference
Last conversation: Never (this is first time)
Total conversations: 0

## Person Profile
- Name: %[1]s

## Conversation Summaries
%[2]s

## Full Conversation Transcripts
%[3]s

## Topics for Future Reminiscence
%[4]s

## Health Timeline
%[5]s

## Biography Building Blocks
%[6]s
`, elderName,
		placeholders[SectionSummaries],
		placeholders[SectionTranscripts],
		placeholders[SectionTopics],
		placeholders[SectionHealth],
		placeholders[SectionBiography],
	)
}

// SessionCount reads the conversation total from the quick reference
func SessionCount(kb string) int {
	m := totalConversations.FindStringSubmatch(kb)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// Session is one finished call to be recorded
type Session struct {
	At         time.Time
	Minutes    int
	Transcript string
	Analysis   entities.Analysis
}

// AppendSession records a call in every section it touches and returns the
// new document with the session number assigned.
func AppendSession(kb string, s Session) (string, int) {
	n := SessionCount(kb) + 1
	date := s.At.Format(dateLayout)
	a := s.Analysis
	healthSummary := strings.TrimSpace(a.Health.Summary.String())

	kb = setQuickReference(kb, "Last conversation", date)
	kb = setQuickReference(kb, "Total conversations", strconv.Itoa(n))
	kb = setQuickReference(kb, "Recent mood", a.Mood())
	if healthSummary != "" {
		kb = setQuickReference(kb, "Current health notes", healthSummary)
	}

	kb = insertIntoSection(kb, SectionSummaries, sessionSummary(n, date, s))
	kb = insertIntoSection(kb, SectionTranscripts,
		fmt.Sprintf("### Session %d - %s (Full Transcript)\n\n%s\n\n---\n", n, date, strings.TrimSpace(s.Transcript)))

	if stories := a.Biography.Stories; len(stories) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "**Session %d Stories:**\n", n)
		for i, story := range stories {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "- %s\n", storyLine(story))
		}
		kb = insertIntoSection(kb, SectionBiography, b.String())
	}

	if followUps := a.Conversation.FollowUps; len(followUps) > 0 {
		kb = insertIntoSection(kb, SectionTopics, fmt.Sprintf("**Session %d Topics:**\n%s", n, bullets(followUps, "")))
	}

	if healthSummary != "" && !strings.HasPrefix(healthSummary, "Unable to analyze") {
		kb = insertIntoSection(kb, SectionHealth, fmt.Sprintf("**%s:**\n- %s\n", date, healthSummary))
	}

	return kb, n
}

func sessionSummary(n int, date string, s Session) string {
	a := s.Analysis
	quotes := a.Conversation.MemorableQuotes
	if len(quotes) > 3 {
		quotes = quotes[:3]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### Session %d - %s\n\n", n, date)
	fmt.Fprintf(&b, "**Time:** %s\n", s.At.Format("3:04 PM"))
	if s.Minutes > 0 {
		fmt.Fprintf(&b, "**Duration:** Approx %d minutes\n", s.Minutes)
	}
	fmt.Fprintf(&b, "**Overall mood:** %s\n", a.Mood())
	fmt.Fprintf(&b, "**Engagement:** %s\n\n", a.Engagement())
	fmt.Fprintf(&b, "**Topics discussed:**\n%s\n", bullets(a.Conversation.Topics, ""))
	fmt.Fprintf(&b, "**Health notes:**\n%s\n\n", a.Health.Summary.String())
	fmt.Fprintf(&b, "**Memorable quotes:**\n%s\n", bullets(quotes, `"`))
	fmt.Fprintf(&b, "**Follow-up items for next conversation:**\n%s\n", bullets(a.Conversation.FollowUps, ""))
	b.WriteString("---\n")
	return b.String()
}

func bullets(items []string, quote string) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "- %s%s%s\n", quote, item, quote)
	}
	return b.String()
}

func storyLine(s entities.Story) string {
	details := strings.Join(strings.Fields(s.Details), " ")
	switch {
	case s.Topic != "" && details != "":
		return s.Topic + ": " + details
	case details != "":
		return details
	default:
		return s.Topic
	}
}

// setQuickReference rewrites "Label: value", adding the line under the quick
// reference heading when it is missing.
func setQuickReference(kb, label, value string) string {
	value = strings.Join(strings.Fields(value), " ")
	re := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(label) + `:.*$`)
	line := label + ": " + value
	if loc := re.FindStringIndex(kb); loc != nil {
		return kb[:loc[0]] + line + kb[loc[1]:]
	}

	idx := strings.Index(kb, SectionQuickReference+"\n")
	if idx < 0 {
		return kb
	}
	end := sectionEnd(kb, idx)
	body := strings.TrimRight(kb[:end], "\n")
	return body + "\n" + line + "\n" + kb[end:]
}

// insertIntoSection appends block at the end of the section under heading,
// dropping the section's placeholder. A missing section is appended.
func insertIntoSection(kb, heading, block string) string {
	if placeholder, ok := placeholders[heading]; ok {
		kb = strings.Replace(kb, heading+"\n"+placeholder+"\n", heading+"\n", 1)
	}

	idx := strings.Index(kb, heading)
	if idx < 0 {
		return strings.TrimRight(kb, "\n") + "\n\n" + heading + "\n\n" + block
	}

	end := sectionEnd(kb, idx)
	return strings.TrimRight(kb[:end], "\n") + "\n\n" + block + kb[end:]
}

// sectionEnd is the index of the newline that precedes the next "## "
// heading after the heading at idx, or len(kb).
func sectionEnd(kb string, idx int) int {
	next := strings.Index(kb[idx+1:], "\n## ")
	if next < 0 {
		return len(kb)
	}
	return idx + 1 + next
}

// NeedsCompression reports whether the document is over the size threshold
func NeedsCompression(kb string, threshold int) bool {
	return threshold > 0 && len(kb) > threshold
}

// RecentSessions returns the last count session summaries, oldest first
func RecentSessions(kb string, count int) []string {
	idx := strings.Index(kb, SectionSummaries)
	if idx < 0 || count <= 0 {
		return nil
	}
	section := kb[idx:sectionEnd(kb, idx)]

	locs := sessionHeading.FindAllStringIndex(section, -1)
	var blocks []string
	for i, loc := range locs {
		end := len(section)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		blocks = append(blocks, strings.TrimSpace(section[loc[0]:end]))
	}
	if len(blocks) > count {
		blocks = blocks[len(blocks)-count:]
	}
	return blocks
}

var transcriptHeading = regexp.MustCompile(`(?m)^### Session (\d+) - [^\n]*\(Full Transcript\)$`)

// TrimTranscripts replaces all but the last keep full transcripts with a
// pointer to the archived conversation.
func TrimTranscripts(kb string, keep int) string {
	idx := strings.Index(kb, SectionTranscripts)
	if idx < 0 {
		return kb
	}
	end := sectionEnd(kb, idx)
	section := kb[idx:end]

	locs := transcriptHeading.FindAllStringSubmatchIndex(section, -1)
	if len(locs) <= keep {
		return kb
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(section[:locs[0][0]], "\n"))
	b.WriteString("\n\n")
	cut := len(locs) - keep
	for i, loc := range locs {
		blockEnd := len(section)
		if i+1 < len(locs) {
			blockEnd = locs[i+1][0]
		}
		if i < cut {
			fmt.Fprintf(&b, "- Session %s transcript archived with the conversation record\n", section[loc[2]:loc[3]])
			if i == cut-1 {
				b.WriteString("\n")
			}
			continue
		}
		b.WriteString(section[loc[0]:blockEnd])
	}
	out := strings.TrimRight(b.String(), "\n") + "\n"
	return kb[:idx] + out + kb[end:]
}

// ValidateCompressed rejects a compressed document that lost the heading or
// the conversation count.
func ValidateCompressed(original, compressed string) error {
	if !strings.Contains(compressed, "# Conversation Memory") {
		return fmt.Errorf("compressed knowledge base lost its title")
	}
	if got, want := SessionCount(compressed), SessionCount(original); got != want {
		return fmt.Errorf("compressed knowledge base reports %d conversations, want %d", got, want)
	}
	if len(compressed) >= len(original) {
		return fmt.Errorf("compressed knowledge base is not smaller")
	}
	return nil
}
