package query

import (
	"reflect"
	"testing"

	"github.com/LJTian/TechNewsHub/internal/storage"
)

func TestTrendingTopics(t *testing.T) {
	arts := []storage.Article{
		{Title: "OpenAI releases new model"},
		{Title: "OpenAI model beats benchmark"},
		{Title: "Benchmark results for the OpenAI model"},
		{Title: "Quantum chips arrive"},
		{Title: "Quantum computing milestone"},
		{Title: "Unrelated headline"},
	}

	got := TrendingTopics(arts, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 topics, got %d: %+v", len(got), got)
	}
	// openai 和 model 各出现 3 次，并列按字典序；benchmark/quantum 各 2 次
	if got[0].Word != "model" || got[0].Count != 3 {
		t.Fatalf("top topic = %+v", got[0])
	}
	if got[1].Word != "openai" || got[1].Count != 3 {
		t.Fatalf("second topic = %+v", got[1])
	}
	if got[2].Count != 2 {
		t.Fatalf("third topic = %+v", got[2])
	}

	// 重复运行结果必须一致
	again := TrendingTopics(arts, 3)
	if !reflect.DeepEqual(got, again) {
		t.Fatalf("trending not deterministic: %+v vs %+v", got, again)
	}
}

func TestTrendingTopicsIgnoresStopWordsAndSingles(t *testing.T) {
	arts := []storage.Article{
		{Title: "The new thing and the old thing"},
		{Title: "The new idea"},
	}

	got := TrendingTopics(arts, 10)
	for _, topic := range got {
		if topic.Word == "the" || topic.Word == "and" || topic.Word == "new" {
			t.Fatalf("stop word leaked into topics: %+v", got)
		}
		if topic.Count < 2 {
			t.Fatalf("single-occurrence word should be dropped: %+v", topic)
		}
	}

	// 同一标题里重复的词只计一次，"thing" 总计 1 次，进不了榜
	for _, topic := range got {
		if topic.Word == "thing" {
			t.Fatalf("per-title dedup failed: %+v", got)
		}
	}

	if got := TrendingTopics(arts, 0); got != nil {
		t.Fatalf("limit 0 should return nil, got %+v", got)
	}
}
