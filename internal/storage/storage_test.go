package storage

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/LJTian/TechNewsHub/internal/processor"
)

func TestTruncateRunesDB(t *testing.T) {
	s := "你好，世界，这是一段用来测试截断的中文文本"
	out := truncateRunesDB(s, 5)
	if len([]rune(out)) != 5 {
		t.Fatalf("truncateRunesDB length = %d, want 5: %q", len([]rune(out)), out)
	}

	// limit 大于长度时不应截断
	if got := truncateRunesDB("short", 100); got != "short" {
		t.Fatalf("truncateRunesDB should keep original under limit: %q", got)
	}
	if got := truncateRunesDB("anything", 0); got != "" {
		t.Fatalf("truncateRunesDB with limit 0 should be empty: %q", got)
	}
}

func TestToValidUTF8(t *testing.T) {
	bad := string([]byte{0xff, 0xfe, 'o', 'k'})
	out := toValidUTF8(bad)
	if out == bad {
		t.Fatalf("invalid bytes should be replaced")
	}
	if !utf8.ValidString(out) {
		t.Fatalf("result should be valid UTF-8: %q", out)
	}
	if got := toValidUTF8("正常文本 ok"); got != "正常文本 ok" {
		t.Fatalf("valid UTF-8 should pass through: %q", got)
	}
}

func TestMutableUpdatesNeverTouchesSavedFlag(t *testing.T) {
	it := processor.ProcessedArticle{
		ID:           "abc",
		Title:        "t",
		Link:         "https://example.com/1",
		Score:        10,
		CommentCount: 5,
		FetchedAt:    time.Now(),
	}

	updates := mutableUpdates(it, it.Title)
	if _, ok := updates["is_saved"]; ok {
		t.Fatalf("re-scraping must not reset the bookmark flag")
	}
	if _, ok := updates["is_read"]; ok {
		t.Fatalf("re-scraping must not reset the read flag")
	}
	if _, ok := updates["link"]; ok {
		t.Fatalf("identity key must not be rewritten on update")
	}
	for _, col := range []string{"score", "comment_count", "fetched_at"} {
		if _, ok := updates[col]; !ok {
			t.Fatalf("mutable column %q missing from update set", col)
		}
	}
}
