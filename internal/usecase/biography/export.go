package biography

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"path"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/telaila/companion/internal/domain/entities"
	"github.com/telaila/companion/internal/infrastructure/storage"
)

// Export formats
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatJSON     = "json"
)

// Document is a rendered biography
type Document struct {
	Format      string
	ContentType string
	Extension   string
	Content     string
}

type renderer struct {
	format      string
	contentType string
	ext         string
	render      func(bio *entities.Biography, now time.Time) (string, error)
}

var renderers = map[string]renderer{
	FormatMarkdown: {format: FormatMarkdown, contentType: storage.ContentTypeMarkdown, ext: "md", render: func(bio *entities.Biography, now time.Time) (string, error) {
		return Markdown(bio, now), nil
	}},
	FormatHTML: {format: FormatHTML, contentType: storage.ContentTypeHTML, ext: "html", render: HTML},
	FormatJSON: {format: FormatJSON, contentType: storage.ContentTypeJSON, ext: "json", render: func(bio *entities.Biography, _ time.Time) (string, error) {
		data, err := json.MarshalIndent(bio, "", "  ")
		return string(data), err
	}},
}

// formatForKey maps a stored object key back to its export format
func formatForKey(key string) (string, bool) {
	ext := strings.TrimPrefix(path.Ext(key), ".")
	for _, r := range renderers {
		if r.ext == ext {
			return r.format, true
		}
	}
	return "", false
}

var titleCase = cases.Title(language.English)

// Markdown lays the biography out as a readable document
func Markdown(bio *entities.Biography, now time.Time) string {
	var b strings.Builder
	name := bio.ElderName
	if name == "" {
		name = "Unknown"
	}

	fmt.Fprintf(&b, "# The Life Story of %s\n", name)
	fmt.Fprintf(&b, "*Captured through %d %s*\n\n---\n\n", bio.TotalSessions, plural(bio.TotalSessions, "conversation", "conversations"))

	fmt.Fprintf(&b, "## Their Stories (%d captured)\n\n", len(bio.Stories))
	for _, story := range bio.Stories {
		fmt.Fprintf(&b, "### %s\n", titleCase.String(story.Topic))
		fmt.Fprintf(&b, "*Shared on %s (session %d)*\n\n", story.Date, story.Session)
		if story.Details != "" {
			fmt.Fprintf(&b, "%s\n\n", story.Details)
		}
		if story.Context != "" {
			fmt.Fprintf(&b, "**Context:** %s\n\n", story.Context)
		}
		if story.Significance != "" {
			fmt.Fprintf(&b, "**Why it matters:** %s\n\n", story.Significance)
		}
		if len(story.SensoryDetails) > 0 {
			fmt.Fprintf(&b, "**Sensory memories:** %s\n\n", strings.Join(story.SensoryDetails, ", "))
		}
		if len(story.People) > 0 {
			fmt.Fprintf(&b, "**People:** %s\n\n", strings.Join(story.People, ", "))
		}
		b.WriteString("---\n\n")
	}

	b.WriteString("## People in Their Life\n\n")
	for _, p := range bio.People {
		fmt.Fprintf(&b, "### %s\n", p.Name)
		if p.Relationship != "" {
			fmt.Fprintf(&b, "- Relationship: %s\n", p.Relationship)
		}
		if p.Description != "" {
			fmt.Fprintf(&b, "- About: %s\n", p.Description)
		}
		fmt.Fprintf(&b, "- First mentioned: %s\n", p.FirstMention)
		fmt.Fprintf(&b, "- Total mentions: %d\n\n", p.Mentions)
	}

	b.WriteString("## Timeline\n\n")
	for _, ev := range bio.Timeline {
		if ev.When != "" {
			fmt.Fprintf(&b, "- **%s**: %s *(told on %s)*\n", ev.When, ev.Event, ev.Date)
		} else {
			fmt.Fprintf(&b, "- %s *(told on %s)*\n", ev.Event, ev.Date)
		}
	}
	if len(bio.Timeline) > 0 {
		b.WriteString("\n")
	}

	b.WriteString("## Life Themes\n\n")
	for _, theme := range bio.Themes {
		fmt.Fprintf(&b, "### %s\n", titleCase.String(theme.Topic))
		fmt.Fprintf(&b, "- Discussed %d %s\n\n", theme.Count, plural(theme.Count, "time", "times"))
	}

	b.WriteString("## In Their Own Words\n\n")
	for _, q := range bio.Quotes {
		fmt.Fprintf(&b, "> \"%s\"\n\n", q.Quote)
		topics := q.Topics
		if len(topics) > 2 {
			topics = topics[:2]
		}
		if len(topics) > 0 {
			fmt.Fprintf(&b, "*Said on %s while discussing %s*\n\n", q.Date, strings.Join(topics, ", "))
		} else {
			fmt.Fprintf(&b, "*Said on %s*\n\n", q.Date)
		}
	}

	fmt.Fprintf(&b, "\n---\n\n*Generated on %s*\n", now.Format(dateLayout))
	fmt.Fprintf(&b, "*Based on %d %s with %s*\n", bio.TotalSessions, plural(bio.TotalSessions, "conversation", "conversations"), name)
	return b.String()
}

var htmlMarkdown = goldmark.New(goldmark.WithExtensions(extension.Typographer))

// HTML renders the Markdown document into a standalone page. Raw HTML in
// analyzer output is not passed through.
func HTML(bio *entities.Biography, now time.Time) (string, error) {
	var body bytes.Buffer
	if err := htmlMarkdown.Convert([]byte(Markdown(bio, now)), &body); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}

	title := html.EscapeString("The Life Story of " + bio.ElderName)
	var page strings.Builder
	page.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", title)
	page.WriteString("</head>\n<body>\n<article>\n")
	page.Write(body.Bytes())
	page.WriteString("</article>\n</body>\n</html>\n")
	return page.String(), nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
