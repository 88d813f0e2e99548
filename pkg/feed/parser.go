package feed

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/umputun/feedwatch/pkg/calendar"
	"github.com/umputun/feedwatch/pkg/xmldoc"
)

// namespaces of the syndication extensions read by the parser
const (
	NSAtom        = "http://www.w3.org/2005/Atom"
	NSSyndication = "http://purl.org/rss/1.0/modules/syndication/"
	NSDublinCore  = "http://purl.org/dc/elements/1.1/"
	NSContent     = "http://purl.org/rss/1.0/modules/content/"
)

// ParseItem reads an <item> element. The publication date is always set,
// invalid when the element is missing or unparsable.
func ParseItem(el *etree.Element) Item {
	pubDate := calendar.Parse(xmldoc.ElementText(el, "./pubDate", xmldoc.Text))
	return NewItem(func(it *Item) {
		it.Title = xmldoc.ElementText(el, "./title", xmldoc.Text)
		it.Link = xmldoc.ElementText(el, "./link[namespace-prefix()='']", xmldoc.Text)
		it.Description = xmldoc.ElementText(el, "./description", xmldoc.CData)
		it.Creator = xmldoc.NamespacedElementText(el, NSDublinCore, "creator", xmldoc.CData)
		it.Author = xmldoc.ElementText(el, "./author", xmldoc.Text)
		it.PubDate = &pubDate
		it.Categories = xmldoc.ElementArrayText(el, "./category", xmldoc.CData)
		it.GUID = xmldoc.ElementText(el, "./guid", xmldoc.Text)
		it.Content = xmldoc.NamespacedElementText(el, NSContent, "encoded", xmldoc.CData)
		it.PostID = xmldoc.ElementText(el, "./post-id", xmldoc.Text)
	})
}

// ParseDocument reads an RSS document into a channel.
// Returns nil when raw is not well-formed xml or has no rss/channel element.
func ParseDocument(raw string) *Channel {
	doc, err := xmldoc.Parse(raw)
	if err != nil {
		return nil
	}
	channelEl := doc.FindElement("./rss/channel")
	if channelEl == nil {
		return nil
	}

	text := func(selector string) string {
		return strings.TrimSpace(xmldoc.ElementText(channelEl, selector, xmldoc.Text))
	}
	syText := func(local string) string {
		return strings.TrimSpace(xmldoc.NamespacedElementText(channelEl, NSSyndication, local, xmldoc.Text))
	}

	lastBuild, updateBase := text("./lastBuildDate[namespace-prefix()='']"), syText("updateBase")
	period, frequency := syText("updatePeriod"), syText("updateFrequency")

	itemEls := channelEl.FindElements(".//item")
	items := make([]Item, 0, len(itemEls))
	for _, el := range itemEls {
		items = append(items, ParseItem(el))
	}

	ch := NewChannel(func(c *Channel) {
		c.AtomLink = xmldoc.NamespacedAttributeText(channelEl, NSAtom, "link", "href")
		c.Title = text("./title[namespace-prefix()='']")
		c.Description = text("./description[namespace-prefix()='']")
		c.LastBuildDate = dateOrFallback(lastBuild, updateBase)
		c.UpdateBase = dateOrFallback(updateBase, lastBuild)
		c.Items = items
		if period != "" {
			c.UpdatePeriod = UpdatePeriod(period)
		}
		if frequency != "" {
			c.UpdateFrequency = parseFrequency(frequency)
		}
	})
	return &ch
}

// dateOrFallback parses primary, or fallback when primary is empty; nil when both are empty
func dateOrFallback(primary, fallback string) *calendar.Date {
	src := primary
	if src == "" {
		src = fallback
	}
	if src == "" {
		return nil
	}
	d := calendar.Parse(src)
	return &d
}

// parseFrequency reads a leading integer the way the syndication module writes it
func parseFrequency(s string) int {
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[end] == '-' || s[end] == '+')) {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return UnparsableFrequency
	}
	return n
}
