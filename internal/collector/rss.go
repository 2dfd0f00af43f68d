package collector

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const rssClientTimeout = 10 * time.Second

// RSSFetcher 基于 RSS Feed 的通用适配器，TechCrunch / The Verge / Ars Technica 共用。
// 各源只差 Feed 地址、条数上限和缺省作者
type RSSFetcher struct {
	source         Source
	feedURL        string
	maxItems       int
	fallbackAuthor string
	parser         *gofeed.Parser
}

func newRSSFetcher(source Source, feedURL string, maxItems int, fallbackAuthor string) *RSSFetcher {
	return &RSSFetcher{
		source:         source,
		feedURL:        feedURL,
		maxItems:       maxItems,
		fallbackAuthor: fallbackAuthor,
		parser:         gofeed.NewParser(),
	}
}

func NewTechCrunchFetcher() *RSSFetcher {
	return newRSSFetcher(SourceTechCrunch, "https://techcrunch.com/feed/", 25, "TechCrunch")
}

func NewTheVergeFetcher() *RSSFetcher {
	return newRSSFetcher(SourceTheVerge, "https://www.theverge.com/rss/index.xml", 15, "The Verge Staff")
}

func NewArsTechnicaFetcher() *RSSFetcher {
	return newRSSFetcher(SourceArsTechnica, "https://feeds.arstechnica.com/arstechnica/index", 15, "Ars Staff")
}

// SetFeedURL 覆盖 Feed 地址，测试时指向本地服务
func (f *RSSFetcher) SetFeedURL(u string) {
	f.feedURL = u
}

func (f *RSSFetcher) Name() Source {
	return f.source
}

func (f *RSSFetcher) Fetch(ctx context.Context, page int) ([]Article, error) {
	// RSS Feed 没有分页
	if page > 1 {
		return nil, nil
	}

	log.Printf("fetch %s feed...", f.source)

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rssClientTimeout)
		defer cancel()
	}

	feed, err := f.parser.ParseURLWithContext(f.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: parse feed: %w", f.source, err)
	}

	items := feed.Items
	if len(items) > f.maxItems {
		items = items[:f.maxItems]
	}

	now := time.Now()
	results := make([]Article, 0, len(items))
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" || item.Link == "" {
			continue
		}

		author := f.fallbackAuthor
		switch {
		case len(item.Authors) > 0 && item.Authors[0].Name != "":
			author = item.Authors[0].Name
		case item.Author != nil && item.Author.Name != "":
			author = item.Author.Name
		}

		postedAt := time.Time{}
		if item.PublishedParsed != nil {
			postedAt = *item.PublishedParsed
		} else {
			postedAt = ParseUpstreamTime(item.Published, now)
		}

		results = append(results, Article{
			Title:      title,
			Link:       item.Link,
			Author:     author,
			TimePosted: item.Published,
			PostedAt:   postedAt,
			Source:     f.source,
			RawData: map[string]any{
				"feed_title": feed.Title,
			},
		})
	}

	if len(results) == 0 {
		log.Printf("fetch %s got 0 items", f.source)
	}
	return results, nil
}
