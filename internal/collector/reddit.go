package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const (
	redditBaseURL          = "https://www.reddit.com/r/technology/top.json?t=day&limit=25"
	redditClientTimeout    = 10 * time.Second
	redditMaxResponseBytes = 2 << 20 // 2MB
)

// RedditFetcher 通过 r/technology 的 JSON API 抓取当日热帖。
// 接口返回的是裸 JSON，不走 RSS 也不需要解析 HTML
type RedditFetcher struct {
	BaseURL string
	Client  *http.Client
}

func (r *RedditFetcher) Name() Source {
	return SourceReddit
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string  `json:"title"`
				URL         string  `json:"url"`
				Score       int     `json:"score"`
				Author      string  `json:"author"`
				NumComments int     `json:"num_comments"`
				CreatedUTC  float64 `json:"created_utc"`
				Subreddit   string  `json:"subreddit"`
				Permalink   string  `json:"permalink"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (r *RedditFetcher) Fetch(ctx context.Context, page int) ([]Article, error) {
	// top 榜单只取一页
	if page > 1 {
		return nil, nil
	}

	base := r.BaseURL
	if base == "" {
		base = redditBaseURL
	}
	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: redditClientTimeout}
	}

	log.Println("fetch Reddit r/technology top...")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base, nil)
	if err != nil {
		return nil, fmt.Errorf("reddit: build request: %w", err)
	}
	// Reddit 对默认 UA 返回 429，必须带自定义 UA
	req.Header.Set("User-Agent", "TechNewsHubBot/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reddit: fetch listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit: unexpected status %d", resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(io.LimitReader(resp.Body, redditMaxResponseBytes)).Decode(&listing); err != nil {
		return nil, fmt.Errorf("reddit: decode listing: %w", err)
	}

	results := make([]Article, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		d := child.Data
		if d.Title == "" || d.URL == "" {
			continue
		}
		postedAt := time.Unix(int64(d.CreatedUTC), 0)
		results = append(results, Article{
			Title:        d.Title,
			Link:         d.URL,
			Score:        d.Score,
			Author:       d.Author,
			TimePosted:   postedAt.UTC().Format(time.RFC3339),
			PostedAt:     postedAt,
			CommentCount: d.NumComments,
			Source:       SourceReddit,
			RawData: map[string]any{
				"subreddit": d.Subreddit,
				"permalink": d.Permalink,
			},
		})
	}

	if len(results) == 0 {
		log.Println("fetch Reddit got 0 items")
	}
	return results, nil
}
