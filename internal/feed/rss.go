// Package feed renders public posts as an RSS 2.0 document.
package feed

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/beevik/etree"

	"github.com/Dan9191/travel-blog/internal/models"
)

const summaryLen = 280

const dublinCore = "http://purl.org/dc/elements/1.1/"

// Channel describes the feed itself
type Channel struct {
	Title       string
	SiteURL     string
	Description string
}

// Build creates the RSS document for posts in the given order
func Build(ch Channel, posts []models.Post) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	rss := doc.CreateElement("rss")
	rss.CreateAttr("version", "2.0")
	rss.CreateAttr("xmlns:dc", dublinCore)

	channel := rss.CreateElement("channel")
	channel.CreateElement("title").SetText(ch.Title)
	channel.CreateElement("link").SetText(ch.SiteURL + "/")
	channel.CreateElement("description").SetText(ch.Description)
	if len(posts) > 0 {
		channel.CreateElement("lastBuildDate").SetText(posts[0].UpdatedDate.UTC().Format(time.RFC1123Z))
	}

	for _, p := range posts {
		link := fmt.Sprintf("%s/posts/%d", ch.SiteURL, p.ID)
		item := channel.CreateElement("item")
		item.CreateElement("title").SetText(p.Title)
		item.CreateElement("link").SetText(link)
		item.CreateElement("description").SetText(summary(p))
		// RSS <author> must be an email address; usernames go in dc:creator
		item.CreateElement("dc:creator").SetText(p.Author.Username)
		item.CreateElement("pubDate").SetText(p.CreatedDate.UTC().Format(time.RFC1123Z))
		guid := item.CreateElement("guid")
		guid.CreateAttr("isPermaLink", "true")
		guid.SetText(link)
		for _, tag := range splitTags(p.Tags) {
			item.CreateElement("category").SetText(tag)
		}
	}

	doc.Indent(2)
	return doc
}

func summary(p models.Post) string {
	text := strings.TrimSpace(p.Content)
	if p.Location != "" {
		text = p.Location + ": " + text
	}
	if utf8.RuneCountInString(text) <= summaryLen {
		return text
	}
	return string([]rune(text)[:summaryLen]) + "…"
}

// splitTags reads the free-text tags field as a comma or whitespace separated list
func splitTags(tags string) []string {
	return strings.FieldsFunc(tags, func(r rune) bool {
		return r == ',' || r == ' ' || r == '#'
	})
}
