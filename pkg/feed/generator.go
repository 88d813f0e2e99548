package feed

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/umputun/feedwatch/pkg/calendar"
)

// Generator renders channels back into RSS and subscriptions into OPML
type Generator struct {
	baseURL string
}

// NewGenerator creates a new feed generator, baseURL is where the server is reachable
func NewGenerator(baseURL string) *Generator {
	return &Generator{
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// GenerateRSS renders the channel as RSS 2.0 with the atom, syndication, dublin core and content extensions.
// Parsing the result gives back an equivalent channel.
func (g *Generator) GenerateRSS(ch Channel) (string, error) {
	rssItems := make([]*rssItem, 0, len(ch.Items))
	for _, item := range ch.Items {
		rssItems = append(rssItems, g.convertToRSSItem(item))
	}

	channel := &rssChannel{
		Title:       ch.Title,
		Link:        g.baseURL + "/feed?feed=" + url.QueryEscape(ch.AtomLink),
		Description: ch.Description,
		AtomLink:    &atomLink{Href: ch.AtomLink, Rel: "self", Type: "application/rss+xml"},
		Items:       rssItems,
	}
	if ch.LastBuildDate != nil && ch.LastBuildDate.IsValid() {
		channel.LastBuildDate = ch.LastBuildDate.Time().Format(time.RFC1123Z)
	}
	if ch.UpdateBase != nil && ch.UpdateBase.IsValid() {
		channel.UpdateBase = ch.UpdateBase.ISO()
	}
	if ch.UpdatePeriod != "" {
		channel.UpdatePeriod = string(ch.UpdatePeriod)
	}
	if ch.UpdateFrequency != UnparsableFrequency {
		channel.UpdateFrequency = strconv.Itoa(ch.UpdateFrequency)
	}

	feed := &rssDoc{
		Version: "2.0",
		Atom:    NSAtom,
		Sy:      NSSyndication,
		DC:      NSDublinCore,
		Content: NSContent,
		Channel: channel,
	}

	output, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal RSS: %w", err)
	}
	return xml.Header + string(output), nil
}

func (g *Generator) convertToRSSItem(item Item) *rssItem {
	res := &rssItem{
		Title:       item.Title,
		Link:        item.Link,
		GUID:        item.GUID,
		Author:      item.Author,
		PostID:      item.PostID,
		Description: optionalCData(item.Description),
		Creator:     optionalCData(item.Creator),
		Content:     optionalCData(item.Content),
	}
	if item.PubDate != nil && item.PubDate.IsValid() {
		res.PubDate = item.PubDate.Time().Format(time.RFC1123Z)
	}
	for _, c := range item.Categories {
		res.Categories = append(res.Categories, cdata{Text: c})
	}
	return res
}

// OPMLEntry is one outline of an OPML export
type OPMLEntry struct {
	FeedURL string
	Title   string
	Updated *calendar.Date
}

// GenerateOPML creates an OPML file with feed subscriptions
func (g *Generator) GenerateOPML(entries []OPMLEntry) (string, error) {
	type outline struct {
		XMLName xml.Name `xml:"outline"`
		Text    string   `xml:"text,attr"`
		Title   string   `xml:"title,attr"`
		Type    string   `xml:"type,attr"`
		XMLUrl  string   `xml:"xmlUrl,attr"`
		Updated string   `xml:"updated,attr,omitempty"`
	}

	type body struct {
		XMLName  xml.Name  `xml:"body"`
		Outlines []outline `xml:"outline"`
	}

	type head struct {
		XMLName     xml.Name `xml:"head"`
		Title       string   `xml:"title"`
		DateCreated string   `xml:"dateCreated"`
		OwnerID     string   `xml:"ownerId,omitempty"`
	}

	type opml struct {
		XMLName xml.Name `xml:"opml"`
		Version string   `xml:"version,attr"`
		Head    head     `xml:"head"`
		Body    body     `xml:"body"`
	}

	outlines := make([]outline, 0, len(entries))
	for _, e := range entries {
		title := e.Title
		if title == "" {
			title = e.FeedURL
		}
		o := outline{Text: title, Title: title, Type: "rss", XMLUrl: e.FeedURL}
		if e.Updated != nil && e.Updated.IsValid() {
			o.Updated = e.Updated.Time().Format(time.RFC1123Z)
		}
		outlines = append(outlines, o)
	}

	doc := opml{
		Version: "2.0",
		Head: head{
			Title:       "Feedwatch Subscriptions",
			DateCreated: time.Now().Format(time.RFC1123Z),
			OwnerID:     g.baseURL,
		},
		Body: body{Outlines: outlines},
	}

	output, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal OPML: %w", err)
	}
	return xml.Header + string(output), nil
}

// rssDoc is the root element of a generated document, prefixes are written literally
type rssDoc struct {
	XMLName xml.Name    `xml:"rss"`
	Version string      `xml:"version,attr"`
	Atom    string      `xml:"xmlns:atom,attr"`
	Sy      string      `xml:"xmlns:sy,attr"`
	DC      string      `xml:"xmlns:dc,attr"`
	Content string      `xml:"xmlns:content,attr"`
	Channel *rssChannel `xml:"channel"`
}

type rssChannel struct {
	XMLName         xml.Name   `xml:"channel"`
	Title           string     `xml:"title"`
	Link            string     `xml:"link"`
	Description     string     `xml:"description"`
	AtomLink        *atomLink  `xml:"atom:link"`
	LastBuildDate   string     `xml:"lastBuildDate,omitempty"`
	UpdatePeriod    string     `xml:"sy:updatePeriod,omitempty"`
	UpdateFrequency string     `xml:"sy:updateFrequency,omitempty"`
	UpdateBase      string     `xml:"sy:updateBase,omitempty"`
	Items           []*rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link,omitempty"`
	Description *cdata  `xml:"description,omitempty"`
	Creator     *cdata  `xml:"dc:creator,omitempty"`
	Author      string  `xml:"author,omitempty"`
	PubDate     string  `xml:"pubDate,omitempty"`
	Categories  []cdata `xml:"category"`
	GUID        string  `xml:"guid,omitempty"`
	Content     *cdata  `xml:"content:encoded,omitempty"`
	PostID      string  `xml:"post-id,omitempty"`
}

type cdata struct {
	Text string `xml:",cdata"`
}

func optionalCData(s string) *cdata {
	if s == "" {
		return nil
	}
	return &cdata{Text: s}
}
