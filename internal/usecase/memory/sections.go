package memory

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Entry is a labelled group of bullets inside a knowledge base section, e.g.
// "**Session 2 Stories:**" followed by its list.
type Entry struct {
	Label string   `json:"label"`
	Items []string `json:"items"`
}

// BuildingBlock is a story bullet with the session it was told in
type BuildingBlock struct {
	Session int    `json:"session"`
	Text    string `json:"text"`
}

var sessionStoriesLabel = regexp.MustCompile(`^Session (\d+) Stories:?$`)

var markdown = goldmark.New()

// Section parses the level-2 section titled heading into labelled bullet
// groups. Bullets before any label get an empty label.
func Section(kb, heading string) []Entry {
	source := []byte(kb)
	doc := markdown.Parser().Parse(text.NewReader(source))
	title := strings.TrimSpace(strings.TrimPrefix(heading, "## "))

	var entries []Entry
	inSection := false
	label := ""
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if node.Level <= 2 {
				if inSection {
					return entries
				}
				inSection = node.Level == 2 && plainText(node, source) == title
			}
		case *ast.Paragraph:
			if inSection {
				label = strings.TrimSpace(plainText(node, source))
			}
		case *ast.List:
			if !inSection {
				continue
			}
			entry := Entry{Label: label}
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				if t := plainText(item, source); t != "" {
					entry.Items = append(entry.Items, t)
				}
			}
			if len(entry.Items) > 0 {
				entries = append(entries, entry)
			}
		}
	}
	return entries
}

// BuildingBlocks lists the stories recorded under Biography Building Blocks
func BuildingBlocks(kb string) []BuildingBlock {
	blocks := []BuildingBlock{}
	for _, entry := range Section(kb, SectionBiography) {
		session := 0
		if m := sessionStoriesLabel.FindStringSubmatch(entry.Label); m != nil {
			session, _ = strconv.Atoi(m[1])
		}
		for _, item := range entry.Items {
			blocks = append(blocks, BuildingBlock{Session: session, Text: item})
		}
	}
	return blocks
}

// WordCount counts the words of the document
func WordCount(kb string) int {
	return len(strings.Fields(kb))
}

func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(b.String()), " ")
}
