package query

import (
	"sort"
	"strings"

	"github.com/LJTian/TechNewsHub/internal/storage"
)

// SortBy 排序方式
type SortBy string

const (
	SortByScore    SortBy = "score"
	SortByComments SortBy = "comments"
	SortByRecency  SortBy = "recency"
)

// ParseSortBy 解析排序参数，未知值回退到按分数
func ParseSortBy(s string) SortBy {
	switch SortBy(s) {
	case SortByComments:
		return SortByComments
	case SortByRecency:
		return SortByRecency
	default:
		return SortByScore
	}
}

// Filter 过滤条件。零值表示不过滤
type Filter struct {
	Keyword    string // 标题/作者的大小写不敏感子串匹配
	Source     string // 源 code，空或 "all" 表示全部
	SavedOnly  bool
	UnreadOnly bool
}

// Apply 对文章集做过滤和排序，返回新切片。
// 纯函数：相同输入产出相同顺序，且绝不改动传入的切片
func Apply(articles []storage.Article, f Filter, sortBy SortBy) []storage.Article {
	out := make([]storage.Article, 0, len(articles))
	for _, a := range articles {
		if matches(a, f) {
			out = append(out, a)
		}
	}

	sort.Slice(out, comparator(out, sortBy))
	return out
}

func matches(a storage.Article, f Filter) bool {
	if f.SavedOnly && !a.IsSaved {
		return false
	}
	if f.UnreadOnly && a.IsRead {
		return false
	}
	if f.Source != "" && f.Source != "all" && a.Source != f.Source {
		return false
	}
	if f.Keyword != "" {
		kw := strings.ToLower(f.Keyword)
		if !strings.Contains(strings.ToLower(a.Title), kw) &&
			!strings.Contains(strings.ToLower(a.Author), kw) {
			return false
		}
	}
	return true
}

// comparator 返回某排序方式下的全序比较器。
// 每种排序都有显式的并列打破规则，最后兜底比链接，保证重复运行顺序一致：
//   - score:    分数降序，并列时较新抓取的在前
//   - comments: 评论数降序，并列规则同上
//   - recency:  发布时间降序，时间解析失败（零值）的排最后
func comparator(out []storage.Article, sortBy SortBy) func(i, j int) bool {
	switch sortBy {
	case SortByComments:
		return func(i, j int) bool {
			if out[i].CommentCount != out[j].CommentCount {
				return out[i].CommentCount > out[j].CommentCount
			}
			if !out[i].FetchedAt.Equal(out[j].FetchedAt) {
				return out[i].FetchedAt.After(out[j].FetchedAt)
			}
			return out[i].Link < out[j].Link
		}
	case SortByRecency:
		return func(i, j int) bool {
			iz, jz := out[i].PostedAt.IsZero(), out[j].PostedAt.IsZero()
			if iz != jz {
				return jz // 有时间的排在没时间的前面
			}
			if !iz && !out[i].PostedAt.Equal(out[j].PostedAt) {
				return out[i].PostedAt.After(out[j].PostedAt)
			}
			if !out[i].FetchedAt.Equal(out[j].FetchedAt) {
				return out[i].FetchedAt.After(out[j].FetchedAt)
			}
			return out[i].Link < out[j].Link
		}
	default: // SortByScore
		return func(i, j int) bool {
			if out[i].Score != out[j].Score {
				return out[i].Score > out[j].Score
			}
			if !out[i].FetchedAt.Equal(out[j].FetchedAt) {
				return out[i].FetchedAt.After(out[j].FetchedAt)
			}
			return out[i].Link < out[j].Link
		}
	}
}
