package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/LJTian/TechNewsHub/internal/aggregator"
	"github.com/robfig/cron/v3"
)

// 单轮全源抓取的超时上限，留足多页抓取加页间间隔的时间
const passTimeout = 2 * time.Minute

// Scheduler 周期性触发一轮后台抓取，让数据库里始终有较新的数据，
// 用户请求未命中缓存时也不至于从零开始等全部上游
type Scheduler struct {
	cron  *cron.Cron
	agg   *aggregator.Aggregator
	pages int
}

func New(spec string, agg *aggregator.Aggregator, pages int) (*Scheduler, error) {
	if pages < 1 {
		pages = 1
	}
	c := cron.New()

	s := &Scheduler{
		cron:  c,
		agg:   agg,
		pages: pages,
	}

	if _, err := c.AddFunc(spec, s.runOnce); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	// 延迟执行首轮采集，避免与用户首次打开页面的请求争抢资源，首屏加载更快
	const startupDelay = 15 * time.Second
	time.AfterFunc(startupDelay, func() {
		go s.runOnce()
	})
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// RunOnce 对外暴露的单次执行入口，方便手动触发采集
func (s *Scheduler) RunOnce() {
	s.runOnce()
}

func (s *Scheduler) runOnce() {
	log.Println("start collect job...")

	ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
	defer cancel()

	arts, srcErrs, err := s.agg.Scrape(ctx, s.pages)
	if err != nil {
		log.Printf("collect job store error: %v", err)
		return
	}
	for _, se := range srcErrs {
		log.Printf("collect job: %s page %d failed: %s", se.Source, se.Page, se.Err)
	}
	// 条数 = 本轮采集去重后的数量（非“新增数”，已存在会更新）
	log.Printf("collect job done: saved=%d failures=%d", len(arts), len(srcErrs))
}
