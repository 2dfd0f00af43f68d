package cache

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/LJTian/TechNewsHub/internal/storage"
)

func fixedResult(title string) Result {
	return Result{Articles: []storage.Article{{Title: title, Link: "https://a/" + title}}}
}

func TestGetOrComputeMemoizesWithinTTL(t *testing.T) {
	c := New(nil, DefaultTTL)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.nowFunc = func() time.Time { return now }

	key := Key{Pages: 1, SortBy: "score"}
	calls := 0
	compute := func(context.Context) (Result, error) {
		calls++
		return fixedResult("v1"), nil
	}

	first, err := c.GetOrCompute(context.Background(), key, false, compute)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 compute, got %d", calls)
	}

	// 9m59s：窗口内，原样返回且不再计算
	now = now.Add(9*time.Minute + 59*time.Second)
	second, err := c.GetOrCompute(context.Background(), key, false, compute)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if calls != 1 {
		t.Fatalf("compute should not run within TTL, got %d calls", calls)
	}
	if !reflect.DeepEqual(first.Articles, second.Articles) {
		t.Fatalf("cached result changed: %+v vs %+v", first.Articles, second.Articles)
	}

	// 10m01s：过期，必须重算
	now = now.Add(2 * time.Second)
	if _, err := c.GetOrCompute(context.Background(), key, false, compute); err != nil {
		t.Fatalf("third call: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expired entry must be recomputed, got %d calls", calls)
	}
}

func TestForceRefreshBypassesTTL(t *testing.T) {
	c := New(nil, DefaultTTL)

	key := Key{Pages: 1, SortBy: "score"}
	calls := 0
	compute := func(context.Context) (Result, error) {
		calls++
		return fixedResult("v"), nil
	}

	_, _ = c.GetOrCompute(context.Background(), key, false, compute)
	_, _ = c.GetOrCompute(context.Background(), key, true, compute)
	if calls != 2 {
		t.Fatalf("force refresh must recompute, got %d calls", calls)
	}
}

func TestForceRefreshDoesNotJoinInFlightCompute(t *testing.T) {
	c := New(nil, DefaultTTL)
	key := Key{Pages: 1, SortBy: "score"}

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan Result, 1)

	go func() {
		res, _ := c.GetOrCompute(context.Background(), key, false, func(context.Context) (Result, error) {
			close(entered)
			<-release
			return fixedResult("slow"), nil
		})
		done <- res
	}()

	<-entered

	// 普通请求还在计算中，强制刷新必须自己重算，不能搭车等它的结果
	forced, err := c.GetOrCompute(context.Background(), key, true, func(context.Context) (Result, error) {
		return fixedResult("forced"), nil
	})
	if err != nil {
		t.Fatalf("forced call: %v", err)
	}
	if forced.Articles[0].Title != "forced" {
		t.Fatalf("forced call got shared result %q", forced.Articles[0].Title)
	}

	close(release)
	slow := <-done
	if slow.Articles[0].Title != "slow" {
		t.Fatalf("in-flight call got %q", slow.Articles[0].Title)
	}
}

func TestDistinctKeysDistinctEntries(t *testing.T) {
	c := New(nil, DefaultTTL)
	calls := 0
	compute := func(context.Context) (Result, error) {
		calls++
		return fixedResult("v"), nil
	}

	_, _ = c.GetOrCompute(context.Background(), Key{Pages: 1, SortBy: "score"}, false, compute)
	_, _ = c.GetOrCompute(context.Background(), Key{Pages: 2, SortBy: "score"}, false, compute)
	_, _ = c.GetOrCompute(context.Background(), Key{Pages: 1, SortBy: "recency"}, false, compute)
	if calls != 3 {
		t.Fatalf("distinct parameter tuples must compute separately, got %d", calls)
	}
}

func TestKeywordCaseFoldedIntoSameKey(t *testing.T) {
	a := Key{Pages: 1, Keyword: "AI", SortBy: "score"}
	b := Key{Pages: 1, Keyword: "ai", SortBy: "score"}
	if a.String() != b.String() {
		t.Fatalf("case-insensitive keyword should share a cache key: %q vs %q", a.String(), b.String())
	}
}

func TestComputeErrorNotCached(t *testing.T) {
	c := New(nil, DefaultTTL)

	key := Key{Pages: 1, SortBy: "score"}
	calls := 0
	_, err := c.GetOrCompute(context.Background(), key, false, func(context.Context) (Result, error) {
		calls++
		return Result{}, errors.New("all sources down")
	})
	if err == nil {
		t.Fatalf("expected compute error to surface")
	}

	// 失败不缓存，下一次照常重试
	res, err := c.GetOrCompute(context.Background(), key, false, func(context.Context) (Result, error) {
		calls++
		return fixedResult("ok"), nil
	})
	if err != nil || len(res.Articles) != 1 {
		t.Fatalf("retry after failure should succeed: %v %v", res, err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 compute attempts, got %d", calls)
	}
}

func TestFlushDropsEntries(t *testing.T) {
	c := New(nil, DefaultTTL)

	key := Key{Pages: 1, SortBy: "score", SavedOnly: true}
	calls := 0
	compute := func(context.Context) (Result, error) {
		calls++
		return fixedResult("v"), nil
	}

	_, _ = c.GetOrCompute(context.Background(), key, false, compute)
	c.Flush()
	_, _ = c.GetOrCompute(context.Background(), key, false, compute)
	if calls != 2 {
		t.Fatalf("flush should drop entries, got %d calls", calls)
	}
}
