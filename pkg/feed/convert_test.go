package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const atomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
	<title>Atom Example</title>
	<subtitle>atom subtitle</subtitle>
	<link href="https://example.com/atom.xml" rel="self"/>
	<link href="https://example.com/"/>
	<updated>2025-08-24T10:00:00Z</updated>
	<id>urn:uuid:60a76c80-d399-11d9-b93C-0003939e0af6</id>
	<entry>
		<title>First entry</title>
		<link href="https://example.com/1"/>
		<id>urn:uuid:1225c695-cfb8-4ebb-aaaa-80da344efa6a</id>
		<published>2025-08-23T08:30:00Z</published>
		<updated>2025-08-24T09:00:00Z</updated>
		<author><name>Jane</name></author>
		<category term="go"/>
		<summary>short text</summary>
		<content type="html">&lt;p&gt;full text&lt;/p&gt;</content>
	</entry>
	<entry>
		<title>Undated entry</title>
		<id>urn:uuid:2</id>
	</entry>
</feed>`

const jsonFeed = `{
	"version": "https://jsonfeed.org/version/1.1",
	"title": "JSON Example",
	"description": "json description",
	"feed_url": "https://example.com/feed.json",
	"items": [
		{"id": "1", "url": "https://example.com/1", "title": "Hello", "content_html": "<p>hi</p>",
		 "date_published": "2025-08-23T08:30:00Z", "tags": ["a", "b"]}
	]
}`

func TestParseFeed_RSS(t *testing.T) {
	assert.Equal(t, ParseDocument(wordpressFeed), ParseFeed(wordpressFeed))
}

func TestParseFeed_Atom(t *testing.T) {
	ch := ParseFeed(atomFeed)
	require.NotNil(t, ch)
	assert.Nil(t, ParseDocument(atomFeed), "not an rss document")

	assert.Equal(t, "https://example.com/atom.xml", ch.AtomLink)
	assert.Equal(t, "Atom Example", ch.Title)
	assert.Equal(t, "atom subtitle", ch.Description)
	assert.Equal(t, Hourly, ch.UpdatePeriod)
	assert.Equal(t, 1, ch.UpdateFrequency)
	require.NotNil(t, ch.LastBuildDate)
	assert.Equal(t, "2025-08-24T10:00:00.000Z", ch.LastBuildDate.ISO())
	require.NotNil(t, ch.UpdateBase)
	assert.Equal(t, "2025-08-24T10:00:00.000Z", ch.UpdateBase.ISO())

	require.Len(t, ch.Items, 2)
	first := ch.Items[0]
	assert.Equal(t, "First entry", first.Title)
	assert.Equal(t, "https://example.com/1", first.Link)
	assert.Equal(t, "urn:uuid:1225c695-cfb8-4ebb-aaaa-80da344efa6a", first.GUID)
	assert.Equal(t, "Jane", first.Author)
	assert.Equal(t, []string{"go"}, first.Categories)
	assert.Equal(t, "short text", first.Description)
	assert.Equal(t, "<p>full text</p>", first.Content)
	require.NotNil(t, first.PubDate)
	assert.Equal(t, "2025-08-23T08:30:00.000Z", first.PubDate.ISO(), "published preferred over updated")

	second := ch.Items[1]
	require.NotNil(t, second.PubDate, "date always set")
	assert.False(t, second.PubDate.IsValid())
	assert.NotNil(t, second.Categories)
}

func TestParseFeed_JSON(t *testing.T) {
	ch := ParseFeed(jsonFeed)
	require.NotNil(t, ch)
	assert.Equal(t, "https://example.com/feed.json", ch.AtomLink)
	assert.Equal(t, "JSON Example", ch.Title)
	assert.Equal(t, "json description", ch.Description)
	assert.Nil(t, ch.LastBuildDate)

	require.Len(t, ch.Items, 1)
	assert.Equal(t, "Hello", ch.Items[0].Title)
	assert.Equal(t, "<p>hi</p>", ch.Items[0].Content)
	assert.Equal(t, []string{"a", "b"}, ch.Items[0].Categories)
	assert.Equal(t, "2025-08-23T08:30:00.000Z", ch.Items[0].PubDate.ISO())

	next, err := NextUpdateDate(*ch, ch.Items[0].PubDate.Time())
	require.NoError(t, err)
	assert.Equal(t, "2025-08-23T09:30:00.000Z", next.ISO(), "default hourly schedule from now")
}

func TestParseFeed_NotAFeed(t *testing.T) {
	for _, raw := range []string{
		"",
		"this is not a feed at all",
		"<html><body><p>hello</p></body></html>",
		`<rss version="2.0"><foo/></rss>`,
		`<rss version="2.0"><channel><title>cut`,
		`{"version": broken`,
	} {
		assert.NotPanics(t, func() {
			assert.Nil(t, ParseFeed(raw), raw)
		})
	}
}
