package main

import (
	"crypto/subtle"
	"log"
	"net/http"
	"path/filepath"

	"github.com/LJTian/TechNewsHub/internal/aggregator"
	"github.com/LJTian/TechNewsHub/internal/api"
	"github.com/LJTian/TechNewsHub/internal/cache"
	"github.com/LJTian/TechNewsHub/internal/collector"
	"github.com/LJTian/TechNewsHub/internal/config"
	"github.com/LJTian/TechNewsHub/internal/scheduler"
	"github.com/LJTian/TechNewsHub/internal/storage"
	"github.com/LJTian/TechNewsHub/internal/summarize"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	// 确保各个数据源存在
	ensure := []struct{ code, name, baseURL string }{
		{"hackernews", "Hacker News", "https://news.ycombinator.com"},
		{"techcrunch", "TechCrunch", "https://techcrunch.com/feed/"},
		{"reddit", "Reddit r/technology", "https://www.reddit.com/r/technology/.json"},
		{"theverge", "The Verge", "https://www.theverge.com/rss/index.xml"},
		{"arstechnica", "Ars Technica", "https://feeds.arstechnica.com/arstechnica/index"},
	}
	for _, e := range ensure {
		if _, err := store.EnsureSource(e.code, e.name, e.baseURL); err != nil {
			log.Fatalf("ensure source %s failed: %v", e.code, err)
		}
	}

	fetchers := []collector.Fetcher{
		&collector.HackerNewsFetcher{},
		collector.NewTechCrunchFetcher(),
		&collector.RedditFetcher{},
		collector.NewTheVergeFetcher(),
		collector.NewArsTechnicaFetcher(),
	}

	agg := aggregator.New(fetchers, store, cfg.ScrapeDelay)
	resultCache := cache.New(store.Redis, cache.DefaultTTL)
	summarizer := summarize.New()

	sched, err := scheduler.New(cfg.CronSpec, agg, 1)
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}
	sched.Start()

	// API
	r := gin.Default()
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health 仍然免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}

	apiServer := api.NewServer(store, agg, resultCache, summarizer)
	apiServer.RegisterRoutes(r)

	// 若配置了前端目录，则托管 SPA 静态文件并做 fallback
	if cfg.WebRoot != "" {
		assetsDir := filepath.Join(cfg.WebRoot, "assets")
		indexFile := filepath.Join(cfg.WebRoot, "index.html")
		r.Static("/assets", assetsDir)
		r.NoRoute(func(c *gin.Context) {
			if c.Request.Method != http.MethodGet {
				c.Status(http.StatusNotFound)
				return
			}
			// SPA：未匹配 API 的 GET 均返回 index.html
			c.File(indexFile)
		})
	}

	addr := ":" + cfg.AppPort
	log.Printf("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exit: %v", err)
	}
}

// basicAuthMiddleware 为整个站点增加一个简单的 Basic Auth 访问密码。
// 仅当配置了 APP_BASIC_USER / APP_BASIC_PASS 时启用。
// /health 不做认证，便于健康检查。
func basicAuthMiddleware(user, pass string) gin.HandlerFunc {
	const realm = "Restricted"
	uBytes := []byte(user)
	pBytes := []byte(pass)

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		u, p, ok := c.Request.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), uBytes) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), pBytes) != 1 {
			c.Header("WWW-Authenticate", `Basic realm="`+realm+`"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
