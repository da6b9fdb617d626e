package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/travel-blog/internal/models"
)

func TestBuild(t *testing.T) {
	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	posts := []models.Post{
		{ID: 2, Title: "Lisbon", Content: "Trams & tiles", Location: "Portugal", Tags: "city, europe",
			Author: models.User{Username: "alice"}, CreatedDate: created, UpdatedDate: created},
		{ID: 1, Title: "Trip", Content: strings.Repeat("a", 400),
			Author: models.User{Username: "bob"}, CreatedDate: created, UpdatedDate: created},
	}

	doc := Build(Channel{Title: "Travel Blog", SiteURL: "https://blog.example.com", Description: "Trips"}, posts)
	out, err := doc.WriteToString()
	require.NoError(t, err)

	parsed := etree.NewDocument()
	require.NoError(t, parsed.ReadFromString(out))

	items := parsed.FindElements("/rss/channel/item")
	require.Len(t, items, 2)
	assert.Equal(t, "Lisbon", items[0].SelectElement("title").Text())
	assert.Equal(t, "https://blog.example.com/posts/2", items[0].SelectElement("link").Text())
	assert.Equal(t, "Portugal: Trams & tiles", items[0].SelectElement("description").Text())
	assert.Len(t, items[0].SelectElements("category"), 2)
	assert.Equal(t, "Sat, 01 Jun 2024 12:00:00 +0000", items[0].SelectElement("pubDate").Text())
	assert.Equal(t, "alice", items[0].SelectElement("dc:creator").Text())
	assert.Nil(t, items[0].SelectElement("author"))

	desc := items[1].SelectElement("description").Text()
	assert.True(t, strings.HasSuffix(desc, "…"))
	assert.Equal(t, "2.0", parsed.SelectElement("rss").SelectAttrValue("version", ""))
	assert.Equal(t, "http://purl.org/dc/elements/1.1/", parsed.SelectElement("rss").SelectAttrValue("xmlns:dc", ""))
}

func TestBuildEmpty(t *testing.T) {
	doc := Build(Channel{Title: "Travel Blog", SiteURL: "http://localhost"}, nil)
	assert.NotNil(t, doc.FindElement("/rss/channel/title"))
	assert.Nil(t, doc.FindElement("/rss/channel/item"))
}
