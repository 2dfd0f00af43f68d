package aggregator

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/LJTian/TechNewsHub/internal/collector"
	"github.com/LJTian/TechNewsHub/internal/processor"
)

// DefaultDelay 同一上游两次请求之间的最小间隔。
// 这是对上游站点的硬性礼貌约束，不是性能参数，生产环境不允许低于 1 秒
const DefaultDelay = time.Second

// SourceError 单个源、单页的抓取失败。
// 只进侧表不打断聚合，调用方据此提示部分源不可用
type SourceError struct {
	Source collector.Source `json:"source"`
	Page   int              `json:"page"`
	Err    string           `json:"error"`
}

// Health 每个源最近一次抓取的健康状况
type Health struct {
	Source       collector.Source `json:"source"`
	Status       string           `json:"status"` // idle / ok / error
	LastScrape   time.Time        `json:"lastScrape"`
	Duration     float64          `json:"duration"` // 秒
	ArticleCount int              `json:"articleCount"`
	LastError    string           `json:"lastError"`
}

// Store 聚合结果的落库接口，由 storage.Store 实现
type Store interface {
	UpsertBatch(items []processor.ProcessedArticle) error
}

// Aggregator 跑全部适配器并合并结果：
// 源与源之间并发，单个源的多页串行且带抓取间隔；
// 单源失败只记 SourceError，不影响其它源
type Aggregator struct {
	fetchers  []collector.Fetcher
	processor *processor.SimpleProcessor
	store     Store
	delay     time.Duration

	mu     sync.Mutex
	health map[collector.Source]Health
}

func New(fetchers []collector.Fetcher, store Store, delay time.Duration) *Aggregator {
	if delay <= 0 {
		delay = DefaultDelay
	}
	a := &Aggregator{
		fetchers:  fetchers,
		processor: processor.NewSimpleProcessor(),
		store:     store,
		delay:     delay,
		health:    make(map[collector.Source]Health),
	}
	for _, f := range fetchers {
		a.health[f.Name()] = Health{Source: f.Name(), Status: "idle"}
	}
	return a
}

// Scrape 对每个源抓取 1..pages 页，合并、按链接去重后整体落库。
// 返回值依次是：本轮去重后的文章、各源失败侧表、落库错误。
// 只要有任何一个源成功，前两个返回值都有意义
func (a *Aggregator) Scrape(ctx context.Context, pages int) ([]processor.ProcessedArticle, []SourceError, error) {
	if pages < 1 {
		pages = 1
	}

	log.Printf("start scrape pass: %d sources, %d page(s)...", len(a.fetchers), pages)

	perSource := make([][]collector.Article, len(a.fetchers))
	perSourceErrs := make([][]SourceError, len(a.fetchers))

	var wg sync.WaitGroup
	for i, f := range a.fetchers {
		wg.Add(1)
		go func(idx int, fetcher collector.Fetcher) {
			defer wg.Done()
			items, errs := a.scrapeSource(ctx, fetcher, pages)
			perSource[idx] = items
			perSourceErrs[idx] = errs
		}(i, f)
	}
	wg.Wait()

	// 按注册顺序合并，源内保持上游列表顺序，保证去重结果确定
	var merged []collector.Article
	var srcErrs []SourceError
	for i := range a.fetchers {
		merged = append(merged, perSource[i]...)
		srcErrs = append(srcErrs, perSourceErrs[i]...)
	}

	processed := a.processor.Process(merged)
	if len(processed) > 0 && a.store != nil {
		if err := a.store.UpsertBatch(processed); err != nil {
			return processed, srcErrs, err
		}
	}

	log.Printf("scrape pass done: fetched=%d deduped=%d failures=%d", len(merged), len(processed), len(srcErrs))
	return processed, srcErrs, nil
}

// scrapeSource 串行抓取单个源的所有页，页与页之间强制等待抓取间隔。
// 某一页失败记下来接着抓下一页
func (a *Aggregator) scrapeSource(ctx context.Context, fetcher collector.Fetcher, pages int) ([]collector.Article, []SourceError) {
	name := fetcher.Name()
	start := time.Now()

	var items []collector.Article
	var errs []SourceError

	for page := 1; page <= pages; page++ {
		if page > 1 {
			select {
			case <-ctx.Done():
				errs = append(errs, SourceError{Source: name, Page: page, Err: ctx.Err().Error()})
				a.recordHealth(name, start, len(items), errs)
				return items, errs
			case <-time.After(a.delay):
			}
		}

		arts, err := fetcher.Fetch(ctx, page)
		if err != nil {
			log.Printf("fetch %s page %d error: %v", name, page, err)
			errs = append(errs, SourceError{Source: name, Page: page, Err: err.Error()})
			continue
		}
		items = append(items, arts...)
	}

	a.recordHealth(name, start, len(items), errs)
	return items, errs
}

func (a *Aggregator) recordHealth(name collector.Source, start time.Time, count int, errs []SourceError) {
	h := Health{
		Source:       name,
		Status:       "ok",
		LastScrape:   time.Now(),
		Duration:     time.Since(start).Seconds(),
		ArticleCount: count,
	}
	if len(errs) > 0 {
		h.LastError = errs[len(errs)-1].Err
		if count == 0 {
			h.Status = "error"
		}
	}

	a.mu.Lock()
	a.health[name] = h
	a.mu.Unlock()
}

// Health 按注册顺序返回各源的健康状况
func (a *Aggregator) Health() []Health {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Health, 0, len(a.fetchers))
	for _, f := range a.fetchers {
		out = append(out, a.health[f.Name()])
	}
	return out
}
