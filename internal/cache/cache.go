package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/LJTian/TechNewsHub/internal/aggregator"
	"github.com/LJTian/TechNewsHub/internal/storage"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL 缓存结果的有效窗口。
// 窗口内同参数请求直接返回缓存，完全不触发抓取
const DefaultTTL = 10 * time.Minute

// Key 请求参数元组。参数组合不同则结果不同，直接作为缓存键
type Key struct {
	Pages      int
	Keyword    string
	Source     string
	SortBy     string
	SavedOnly  bool
	UnreadOnly bool
}

// String 生成确定的缓存键文本。关键词统一转小写：
// 过滤本身大小写不敏感，"AI" 和 "ai" 理应命中同一份结果
func (k Key) String() string {
	return fmt.Sprintf("articles:list:%d:%s:%s:%s:%t:%t",
		k.Pages, strings.ToLower(k.Keyword), k.Source, k.SortBy, k.SavedOnly, k.UnreadOnly)
}

// Result 一份已过滤排序的结果及其计算时间。
// Warnings 与文章一起缓存，窗口内的请求看到同样的部分失败提示
type Result struct {
	Articles   []storage.Article        `json:"articles"`
	Warnings   []aggregator.SourceError `json:"warnings"`
	ComputedAt time.Time                `json:"computedAt"`
}

// ComputeFunc 未命中时的计算函数，包住 聚合 → 落库 → 过滤排序 整条流水线
type ComputeFunc func(ctx context.Context) (Result, error)

// Cache 带 TTL 的结果缓存。进程内 map 为准，Redis 做跨进程的透写层
// （进程重启后仍可读到未过期的结果）；条目写入是整值替换，读者不会
// 看到半成品。singleflight 合并同键并发的重复计算
type Cache struct {
	ttl     time.Duration
	rdb     *redis.Client // 可为 nil，降级为纯进程内缓存
	nowFunc func() time.Time

	mu      sync.RWMutex
	entries map[string]Result

	group singleflight.Group
}

func New(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		rdb:     rdb,
		nowFunc: time.Now,
		entries: make(map[string]Result),
	}
}

// GetOrCompute 是缓存的唯一写入口：
//   - force 为 true 时无视 TTL 直接重算并覆盖；
//   - 命中且未过期直接返回，不调用 compute；
//   - 未命中或过期时调用 compute，带新时间戳存储后返回。
//
// compute 失败时不写入任何条目，下次请求会重试
func (c *Cache) GetOrCompute(ctx context.Context, key Key, force bool, compute ComputeFunc) (Result, error) {
	k := key.String()

	if !force {
		if res, ok := c.lookup(ctx, k); ok {
			return res, nil
		}
	}

	// 强制刷新不与普通请求共享合并组：搭上一个已在计算中的普通请求，
	// 可能拿到它内部二次查缓存的命中结果，等于没有重算
	flightKey := k
	if force {
		flightKey = "force:" + k
	}

	v, err, _ := c.group.Do(flightKey, func() (any, error) {
		// 合并等待期间可能已有别的请求算完，非强制时再查一次
		if !force {
			if res, ok := c.lookup(ctx, k); ok {
				return res, nil
			}
		}

		res, err := compute(ctx)
		if err != nil {
			return Result{}, err
		}
		res.ComputedAt = c.nowFunc()
		c.store(ctx, k, res)
		return res, nil
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

// Flush 清空全部条目。书签切换后调用，避免 saved 视图在窗口内读到旧标记
func (c *Cache) Flush() {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.entries = make(map[string]Result)
	c.mu.Unlock()

	// 只删自己写过的键，不做通配扫描
	if c.rdb != nil && len(keys) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			log.Printf("warn: cache flush redis del: %v", err)
		}
	}
}

func (c *Cache) fresh(res Result) bool {
	return c.nowFunc().Sub(res.ComputedAt) < c.ttl
}

func (c *Cache) lookup(ctx context.Context, k string) (Result, bool) {
	c.mu.RLock()
	res, ok := c.entries[k]
	c.mu.RUnlock()
	if ok && c.fresh(res) {
		return res, true
	}

	// 进程内没有时看 Redis（比如刚重启），过期条目等 Redis 自身 TTL 淘汰
	if c.rdb != nil {
		if bs, err := c.rdb.Get(ctx, k).Bytes(); err == nil {
			var cached Result
			if err := json.Unmarshal(bs, &cached); err == nil && c.fresh(cached) {
				c.mu.Lock()
				c.entries[k] = cached
				c.mu.Unlock()
				return cached, true
			}
		}
	}

	return Result{}, false
}

func (c *Cache) store(ctx context.Context, k string, res Result) {
	c.mu.Lock()
	c.entries[k] = res
	c.mu.Unlock()

	if c.rdb != nil {
		if bs, err := json.Marshal(res); err == nil {
			if err := c.rdb.Set(ctx, k, bs, c.ttl).Err(); err != nil {
				log.Printf("warn: cache set redis: %v", err)
			}
		}
	}
}
