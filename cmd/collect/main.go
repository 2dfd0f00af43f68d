package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/LJTian/TechNewsHub/internal/aggregator"
	"github.com/LJTian/TechNewsHub/internal/collector"
	"github.com/LJTian/TechNewsHub/internal/config"
	"github.com/LJTian/TechNewsHub/internal/storage"
)

// 一个仅执行一轮采集的命令行入口：适合手动触发或排查某个源
func main() {
	pages := flag.Int("pages", 1, "pages to fetch per source (1-10)")
	flag.Parse()
	if *pages < 1 {
		*pages = 1
	}
	if *pages > 10 {
		*pages = 10
	}

	cfg := config.Load()

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	// 注册采集器（与 cmd/api 保持一致）
	fetchers := []collector.Fetcher{
		&collector.HackerNewsFetcher{},
		collector.NewTechCrunchFetcher(),
		&collector.RedditFetcher{},
		collector.NewTheVergeFetcher(),
		collector.NewArsTechnicaFetcher(),
	}

	agg := aggregator.New(fetchers, store, cfg.ScrapeDelay)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	arts, srcErrs, err := agg.Scrape(ctx, *pages)
	if err != nil {
		log.Fatalf("save batch failed: %v", err)
	}
	for _, se := range srcErrs {
		log.Printf("source %s page %d failed: %s", se.Source, se.Page, se.Err)
	}
	log.Printf("collect done: saved=%d failures=%d", len(arts), len(srcErrs))
}
