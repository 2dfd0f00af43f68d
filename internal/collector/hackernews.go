package collector

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

const (
	hnBaseURL       = "https://news.ycombinator.com"
	hnClientTimeout = 10 * time.Second
)

// HackerNewsFetcher 抓取 Hacker News 首页列表。
// 页面是纯静态 HTML，直接解析 athing/subtext 两行结构；
// BaseURL 留空时使用线上地址，测试时可指向本地服务
type HackerNewsFetcher struct {
	BaseURL string
}

func (h *HackerNewsFetcher) Name() Source {
	return SourceHackerNews
}

func (h *HackerNewsFetcher) Fetch(ctx context.Context, page int) ([]Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}

	base := h.BaseURL
	opts := []colly.CollectorOption{
		colly.UserAgent("TechNewsHubBot/1.0"),
	}
	if base == "" {
		base = hnBaseURL
		// 仅对线上地址限制域名；自定义 BaseURL 留给测试用
		opts = append(opts, colly.AllowedDomains("news.ycombinator.com"))
	}

	log.Printf("fetch Hacker News page %d...", page)

	c := colly.NewCollector(opts...)
	c.SetRequestTimeout(hnClientTimeout)

	now := time.Now()
	results := make([]Article, 0, 30)

	c.OnHTML("tr.athing", func(e *colly.HTMLElement) {
		art, ok := parseHNStoryRow(e.DOM, base, now)
		if !ok {
			// 单条结构异常直接跳过，不影响同页其余条目
			return
		}
		results = append(results, art)
	})

	pageURL := fmt.Sprintf("%s/news?p=%d", base, page)
	if err := c.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("hackernews: page %d: %w", page, err)
	}

	if len(results) == 0 {
		log.Printf("fetch Hacker News page %d got 0 items", page)
	}
	return results, nil
}

// parseHNStoryRow 解析一条 athing 行及其紧随的 subtext 元数据行。
// 只有标题和链接是硬性要求，其余字段缺失时保持默认值
func parseHNStoryRow(row *goquery.Selection, base string, now time.Time) (Article, bool) {
	titleLink := row.Find("span.titleline > a").First()
	if titleLink.Length() == 0 {
		// 旧版页面结构没有 titleline 包裹
		titleLink = row.Find("td.title > a").First()
	}
	title := strings.TrimSpace(titleLink.Text())
	href, _ := titleLink.Attr("href")
	href = strings.TrimSpace(href)
	if title == "" || href == "" {
		return Article{}, false
	}
	if !strings.HasPrefix(href, "http") {
		href = base + "/" + href
	}

	art := Article{
		Title:  title,
		Link:   href,
		Source: SourceHackerNews,
	}

	subtext := row.Next().Find("td.subtext")
	if subtext.Length() > 0 {
		if scoreText := subtext.Find("span.score").First().Text(); scoreText != "" {
			art.Score = parseLeadingInt(scoreText)
		}
		art.Author = strings.TrimSpace(subtext.Find("a.hnuser").First().Text())

		age := subtext.Find("span.age").First()
		art.TimePosted = strings.TrimSpace(age.Text())
		// age 的 title 属性带绝对时间戳，优先于 "3 hours ago" 文案
		if attr, ok := age.Attr("title"); ok {
			if fields := strings.Fields(attr); len(fields) > 0 {
				if t := ParseUpstreamTime(fields[0], now); !t.IsZero() {
					art.PostedAt = t
				}
			}
		}
		if art.PostedAt.IsZero() {
			art.PostedAt = ParseUpstreamTime(art.TimePosted, now)
		}

		subtext.Find("a").Each(func(_ int, a *goquery.Selection) {
			text := strings.TrimSpace(a.Text())
			if strings.Contains(text, "comment") {
				art.CommentCount = parseLeadingInt(text)
			}
		})
	}

	art.RawData = map[string]any{
		"score":    art.Score,
		"comments": art.CommentCount,
	}
	return art, true
}

// parseLeadingInt 取文本开头的整数，例如 "123 points" -> 123；
// "discuss" 之类没有数字的文案返回 0
func parseLeadingInt(s string) int {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(fields[0], ",", ""))
	if err != nil {
		return 0
	}
	return n
}
