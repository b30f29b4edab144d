package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilgisen/signage/internal/models"
)

func TestExtractFirstImageURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "first of many", in: `<p>x</p><img src="a.jpg"><img src="b.jpg">`, want: "a.jpg"},
		{name: "self closing with attrs", in: `<IMG alt="pic" SRC=" https://cdn.example.org/p.png " />`, want: "https://cdn.example.org/p.png"},
		{name: "skips empty src", in: `<img src=""><img src="c.jpg">`, want: "c.jpg"},
		{name: "no image", in: `<p>plain</p>`, want: ""},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFirstImageURL(tt.in))
		})
	}
}

func TestToPlainText(t *testing.T) {
	in := `<style>p { color: red; }</style>
<p>Hello&nbsp;<b>world</b>&amp;   friends</p><script>alert("x")</script><p>Second
	paragraph</p>`

	assert.Equal(t, "Hello world & friends Second paragraph", ToPlainText(in))
	assert.Equal(t, "", ToPlainText("  <br/>  "))
}

func TestToPlainTextKeepsInlineWordsTogether(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: `<p>Hel<b>lo</b> world</p>`, want: "Hello world"},
		{in: `H<sub>2</sub>O`, want: "H2O"},
		{in: `See <a href="/x">this link</a>.`, want: "See this link."},
		{in: `<li>one</li><li>two</li>`, want: "one two"},
		{in: `line<br>break<div>block</div>`, want: "line break block"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ToPlainText(tt.in), tt.in)
	}
}

func TestTruncateShortBodyUnchanged(t *testing.T) {
	short := strings.Repeat("a", BodyBudget)
	assert.Equal(t, short, Truncate(short))
	assert.Equal(t, "", Truncate(""))
}

func TestTruncateCutsAtWordBoundary(t *testing.T) {
	words := strings.Repeat("word ", 400)
	got := Truncate(strings.TrimSpace(words))

	require.True(t, strings.HasSuffix(got, Ellipsis+ReadMoreHint))
	kept := strings.TrimSuffix(got, Ellipsis+ReadMoreHint)
	assert.LessOrEqual(t, len([]rune(kept)), BodyBudget)
	assert.True(t, strings.HasSuffix(kept, "word"), "cut must not split a word: %q", kept[len(kept)-10:])
}

func TestTruncateWithoutSpaceCutsAtBudget(t *testing.T) {
	got := Truncate(strings.Repeat("é", BodyBudget+50))
	kept := strings.TrimSuffix(got, Ellipsis+ReadMoreHint)
	assert.Equal(t, BodyBudget, len([]rune(kept)))
}

func TestImageRepairer(t *testing.T) {
	r := NewImageRepairer(DefaultRepairPatterns)

	assert.Equal(t, "https://cdn.example.org/pic.jpg", r.Repair("https://cdn.example.org/pic.jpg"))
	assert.Equal(t, "", r.Repair(""))
	assert.Equal(t,
		"https://files.example.org/Photo.JPG",
		r.Repair("https://fct.ufg.brhttps://files.example.org/Photo.JPG"))
	assert.Equal(t,
		"HTTP://files.example.org/a.png",
		r.Repair("//ufg.brHTTP://files.example.org/a.png"))

	custom := NewImageRepairer([]string{" Example.org/http ", ""})
	assert.Equal(t, "http://cdn.example.org/pic.jpg", custom.Repair("https://example.org/http://cdn.example.org/pic.jpg"))
	assert.Equal(t, "https://example.org/pic.jpg", custom.Repair("https://example.org/pic.jpg"))
}

func TestNormalizeItem(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	n := NewNormalizer(NewImageRepairer(DefaultRepairPatterns), loc)

	published := time.Date(2024, 3, 5, 13, 7, 0, 0, time.UTC)
	slide := n.NormalizeItem(&gofeed.Item{
		Title:           " Campus news ",
		Description:     "<p>short summary</p>",
		Content:         `<img src="https://fct.ufg.brhttps://img.example.org/x.jpg"><p>Full <em>body</em></p>`,
		Link:            "https://example.org/news/1",
		PublishedParsed: &published,
	})

	assert.Equal(t, models.SlideFeedItem, slide.Kind)
	assert.Equal(t, "Campus news", slide.Title)
	assert.Equal(t, "Full body", slide.Body)
	assert.Equal(t, "https://img.example.org/x.jpg", slide.ImageURL)
	assert.Equal(t, "https://example.org/news/1", slide.Link)
	assert.Equal(t, "05/03/2024 - 10:07", slide.Caption)

	bare := n.NormalizeItem(&gofeed.Item{Title: "t", Description: "<p>only summary</p>"})
	assert.Equal(t, "only summary", bare.Body)
	assert.Equal(t, DateUnavailable, bare.Caption)
	assert.Empty(t, bare.ImageURL)

	empty := n.NormalizeItem(&gofeed.Item{Title: "t"})
	assert.Equal(t, "", empty.Body)

	updated := time.Date(2024, 3, 6, 3, 0, 0, 0, time.UTC)
	unparsed := n.NormalizeItem(&gofeed.Item{Title: "t", Published: "not a date", UpdatedParsed: &updated})
	assert.Equal(t, "06/03/2024 - 00:00", unparsed.Caption)

	undated := n.NormalizeItem(&gofeed.Item{Title: "t", Published: "not a date"})
	assert.Equal(t, DateUnavailable, undated.Caption)
}

func TestNormalizeCapsItems(t *testing.T) {
	n := NewNormalizer(nil, nil)
	items := []*gofeed.Item{{Title: "1"}, nil, {Title: "2"}, {Title: "3"}}

	slides := n.Normalize(items, 2)
	require.Len(t, slides, 2)
	assert.Equal(t, "1", slides[0].Title)
	assert.Equal(t, "2", slides[1].Title)
}

func rssDocument(count int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel>`)
	b.WriteString(`<title>Example</title><link>https://example.org</link><description>d</description>`)
	base := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= count; i++ {
		fmt.Fprintf(&b, `<item><title>Item %d</title><link>https://example.org/%d</link><guid>https://example.org/%d</guid>`, i, i, i)
		fmt.Fprintf(&b, `<pubDate>%s</pubDate>`, base.Add(-time.Duration(i)*time.Hour).Format(time.RFC1123Z))
		fmt.Fprintf(&b, `<description><![CDATA[<p>Body %d</p>]]></description></item>`, i)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func TestFetcherFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssDocument(7)))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, NewNormalizer(nil, time.UTC), zerolog.Nop())

	slides := f.Fetch(context.Background(), srv.URL, 0)
	require.Len(t, slides, DefaultMaxItems)
	assert.Equal(t, "Item 1", slides[0].Title)
	assert.Equal(t, "Body 1", slides[0].Body)
	assert.Equal(t, "https://example.org/1", slides[0].Link)
	assert.Equal(t, "20/05/2024 - 11:00", slides[0].Caption)

	assert.Len(t, f.Fetch(context.Background(), srv.URL, 2), 2)
}

func TestFetcherKeepsItemsWithoutOrSharingLinks(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel>
<title>Example</title><link>https://example.org</link><description>d</description>
<item><title>A</title><description>no link at all</description></item>
<item><title>B</title><link>https://example.org/same</link><description>first</description></item>
<item><title>C</title><link>https://example.org/same</link><description>second</description></item>
<item><title>D</title><link>https://example.org/d</link><description>own link</description></item>
</channel></rss>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(doc))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, nil, zerolog.Nop())

	slides := f.Fetch(context.Background(), srv.URL, 10)
	require.Len(t, slides, 4)
	titles := make([]string, 0, len(slides))
	for _, s := range slides {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, titles)
	assert.Empty(t, slides[0].Link)
	assert.Equal(t, "second", slides[2].Body)
	assert.Equal(t, DateUnavailable, slides[0].Caption)
}

func TestFetcherParsesAtom(t *testing.T) {
	doc := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
<title>Example</title><id>urn:example</id><updated>2024-05-20T12:00:00Z</updated>
<entry><title>Entry</title><id>urn:1</id><link href="https://example.org/e"/>
<published>2024-05-20T09:30:00Z</published><updated>2024-05-20T10:00:00Z</updated>
<summary>short</summary><content type="html">&lt;p&gt;Full &lt;b&gt;entry&lt;/b&gt;&lt;/p&gt;</content></entry>
</feed>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(doc))
	}))
	defer srv.Close()

	slides := NewFetcher(5*time.Second, NewNormalizer(nil, time.UTC), zerolog.Nop()).Fetch(context.Background(), srv.URL, 5)
	require.Len(t, slides, 1)
	assert.Equal(t, "Full entry", slides[0].Body)
	assert.Equal(t, "https://example.org/e", slides[0].Link)
	assert.Equal(t, "20/05/2024 - 09:30", slides[0].Caption)
}

func TestFetcherFailsSoft(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/garbage" {
			_, _ = w.Write([]byte("this is not a feed"))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, nil, zerolog.Nop())

	slides := f.Fetch(context.Background(), srv.URL+"/down", 5)
	assert.NotNil(t, slides)
	assert.Empty(t, slides)
	assert.Equal(t, int32(1), hits.Load(), "a failing feed must be requested exactly once")

	assert.Empty(t, f.Fetch(context.Background(), srv.URL+"/garbage", 5))
	assert.Empty(t, f.Fetch(context.Background(), "   ", 5))
	assert.Equal(t, int32(2), hits.Load())
}
