package processor

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/LJTian/TechNewsHub/internal/collector"
)

// ProcessedArticle 是写入存储层前的统一结构
type ProcessedArticle struct {
	ID           string
	Title        string
	Link         string
	Score        int
	Author       string
	TimePosted   string
	PostedAt     time.Time
	CommentCount int
	Source       collector.Source
	FetchedAt    time.Time
	RawData      map[string]any
}

// SimpleProcessor 做最基础的数据清洗、去重与 ID 生成
type SimpleProcessor struct {
	nowFunc func() time.Time
}

func NewSimpleProcessor() *SimpleProcessor {
	return &SimpleProcessor{nowFunc: time.Now}
}

// Process 单趟完成清洗与按链接去重。
// 同一链接以第一次出现的条目为准，后出现的条目只回刷分数和评论数；
// 标题或链接为空的条目直接丢弃
func (p *SimpleProcessor) Process(items []collector.Article) []ProcessedArticle {
	now := p.nowFunc()
	out := make([]ProcessedArticle, 0, len(items))
	seen := make(map[string]int)

	for _, it := range items {
		title := strings.TrimSpace(it.Title)
		link := strings.TrimSpace(it.Link)
		if title == "" || link == "" {
			continue
		}

		if idx, ok := seen[link]; ok {
			// 只有带有效数据的副本才回刷，零值多半是该源没有这项字段
			// （例如 RSS 没有分数），不能把另一个源的真实数值清掉
			if it.Score != 0 {
				out[idx].Score = it.Score
			}
			if it.CommentCount != 0 {
				out[idx].CommentCount = it.CommentCount
			}
			continue
		}

		postedAt := it.PostedAt
		if postedAt.IsZero() && it.TimePosted != "" {
			postedAt = collector.ParseUpstreamTime(it.TimePosted, now)
		}

		seen[link] = len(out)
		out = append(out, ProcessedArticle{
			ID:           hashLink(link),
			Title:        title,
			Link:         link,
			Score:        it.Score,
			Author:       strings.TrimSpace(it.Author),
			TimePosted:   it.TimePosted,
			PostedAt:     postedAt,
			CommentCount: it.CommentCount,
			Source:       it.Source,
			FetchedAt:    now,
			RawData:      it.RawData,
		})
	}

	return out
}

func hashLink(link string) string {
	h := sha1.New()
	h.Write([]byte(link))
	return hex.EncodeToString(h.Sum(nil))
}
