package processor

import (
	"testing"
	"time"

	"github.com/LJTian/TechNewsHub/internal/collector"
)

func TestHashLinkDeterministicAndDistinct(t *testing.T) {
	link1 := "https://example.com/a"
	link2 := "https://example.com/b"

	h1a := hashLink(link1)
	h1b := hashLink(link1)
	h2 := hashLink(link2)

	if h1a != h1b {
		t.Fatalf("hashLink not deterministic: %q vs %q", h1a, h1b)
	}
	if h1a == h2 {
		t.Fatalf("hashLink should differ for different links: %q", h1a)
	}
}

func TestProcessDeduplicatesByLink(t *testing.T) {
	p := NewSimpleProcessor()
	now := time.Now()

	items := []collector.Article{
		{
			Title:        "Title 1",
			Link:         "https://example.com/1",
			Source:       collector.SourceHackerNews,
			Score:        10,
			CommentCount: 3,
			PostedAt:     now,
		},
		{
			Title:        "Title 1 seen again on another source",
			Link:         "https://example.com/1",
			Source:       collector.SourceReddit,
			Score:        99,
			CommentCount: 7,
			PostedAt:     now,
		},
		{
			Title:    "Title 2",
			Link:     "https://example.com/2",
			Source:   collector.SourceTechCrunch,
			PostedAt: now,
		},
	}

	out := p.Process(items)
	if len(out) != 2 {
		t.Fatalf("expected 2 processed items after dedupe, got %d", len(out))
	}

	// 身份字段以首次出现为准，可变字段按本轮内较新的抓取回刷
	first := out[0]
	if first.Title != "Title 1" || first.Source != collector.SourceHackerNews {
		t.Fatalf("identity fields should come from first occurrence: %+v", first)
	}
	if first.Score != 99 || first.CommentCount != 7 {
		t.Fatalf("mutable fields should be refreshed by later occurrence: score=%d comments=%d", first.Score, first.CommentCount)
	}
}

func TestProcessDedupeKeepsRealValuesOverZero(t *testing.T) {
	p := NewSimpleProcessor()

	items := []collector.Article{
		{
			Title:        "HN story",
			Link:         "https://example.com/story",
			Source:       collector.SourceHackerNews,
			Score:        450,
			CommentCount: 120,
		},
		{
			// RSS 源的同一链接没有分数和评论数
			Title:  "Same story via feed",
			Link:   "https://example.com/story",
			Source: collector.SourceTechCrunch,
		},
	}

	out := p.Process(items)
	if len(out) != 1 {
		t.Fatalf("expected 1 item, got %d", len(out))
	}
	if out[0].Score != 450 || out[0].CommentCount != 120 {
		t.Fatalf("zero-valued duplicate must not wipe real values: score=%d comments=%d",
			out[0].Score, out[0].CommentCount)
	}
}

func TestProcessDropsEmptyTitleOrLink(t *testing.T) {
	p := NewSimpleProcessor()

	items := []collector.Article{
		{Title: "  ", Link: "https://example.com/1"},
		{Title: "No link"},
		{Title: "Kept", Link: "https://example.com/2"},
	}

	out := p.Process(items)
	if len(out) != 1 || out[0].Title != "Kept" {
		t.Fatalf("expected only the valid item, got %+v", out)
	}
}

func TestProcessNormalizesRelativeTime(t *testing.T) {
	p := NewSimpleProcessor()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	p.nowFunc = func() time.Time { return now }

	items := []collector.Article{
		{Title: "Relative", Link: "https://example.com/rel", TimePosted: "3 hours ago"},
		{Title: "Garbage", Link: "https://example.com/garbage", TimePosted: "Recent"},
	}

	out := p.Process(items)
	if want := now.Add(-3 * time.Hour); !out[0].PostedAt.Equal(want) {
		t.Fatalf("PostedAt = %v, want %v", out[0].PostedAt, want)
	}
	// 解析不了的时间保持零值，由排序逻辑放到最后
	if !out[1].PostedAt.IsZero() {
		t.Fatalf("unparseable time should stay zero, got %v", out[1].PostedAt)
	}
	if !out[0].FetchedAt.Equal(now) {
		t.Fatalf("FetchedAt = %v, want %v", out[0].FetchedAt, now)
	}
}
