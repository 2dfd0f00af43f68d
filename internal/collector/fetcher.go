package collector

import (
	"context"
	"time"
)

// Source 数据源标识。固定五个源的闭集，不支持运行时注册新源
type Source string

const (
	SourceHackerNews  Source = "hackernews"
	SourceTechCrunch  Source = "techcrunch"
	SourceReddit      Source = "reddit"
	SourceTheVerge    Source = "theverge"
	SourceArsTechnica Source = "arstechnica"
)

// AllSources 按固定顺序返回全部数据源，聚合结果的合并顺序以此为准
func AllSources() []Source {
	return []Source{
		SourceHackerNews,
		SourceTechCrunch,
		SourceReddit,
		SourceTheVerge,
		SourceArsTechnica,
	}
}

// ValidSource 判断是否为已知数据源 code
func ValidSource(s string) bool {
	for _, src := range AllSources() {
		if string(src) == s {
			return true
		}
	}
	return false
}

// Article 采集后的统一基础结构。
// 只有 Title 和 Link 是必填；其余字段缺失时保持零值，不影响整条数据入库
type Article struct {
	Title        string
	Link         string
	Score        int
	Author       string
	TimePosted   string    // 上游原始时间文案，例如 "3 hours ago"
	PostedAt     time.Time // 入库前归一化的绝对时间，解析失败为零值
	CommentCount int
	Source       Source
	RawData      map[string]any
}

// Fetcher 抽象每一个数据源。page 从 1 开始；
// 不分页的源在 page > 1 时返回空列表而不是报错
type Fetcher interface {
	Name() Source
	Fetch(ctx context.Context, page int) ([]Article, error)
}
