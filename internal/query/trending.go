package query

import (
	"regexp"
	"sort"
	"strings"

	"github.com/LJTian/TechNewsHub/internal/storage"
)

// Topic 标题里的一个热词及其出现次数
type Topic struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

var topicWordRe = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+#.-]{2,}`)

// 统计热词时忽略的高频虚词和新闻标题套话
var topicStopWords = map[string]bool{
	"the": true, "and": true, "for": true, "that": true, "with": true,
	"this": true, "from": true, "have": true, "has": true, "are": true,
	"was": true, "will": true, "but": true, "not": true, "its": true,
	"you": true, "your": true, "can": true, "how": true, "why": true,
	"what": true, "when": true, "who": true, "new": true, "now": true,
	"after": true, "over": true, "into": true, "about": true, "more": true,
	"than": true, "out": true, "get": true, "gets": true, "says": true,
	"show": true, "ask": true, "here": true, "just": true, "all": true,
}

// TrendingTopics 从文章标题里统计出现频率最高的词。
// 纯函数：相同输入产出相同的热词列表，并列时按字典序保证确定
func TrendingTopics(articles []storage.Article, limit int) []Topic {
	if limit <= 0 {
		return nil
	}

	counts := map[string]int{}
	for _, a := range articles {
		// 同一标题里重复的词只计一次，避免单篇文章刷榜
		inTitle := map[string]bool{}
		for _, w := range topicWordRe.FindAllString(strings.ToLower(a.Title), -1) {
			if topicStopWords[w] || inTitle[w] {
				continue
			}
			inTitle[w] = true
			counts[w]++
		}
	}

	out := make([]Topic, 0, len(counts))
	for w, n := range counts {
		// 只出现一次的词算不上趋势
		if n > 1 {
			out = append(out, Topic{Word: w, Count: n})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
