package storage

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/LJTian/TechNewsHub/internal/processor"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// SourceChannel 描述一个数据源，例如 hackernews / techcrunch
type SourceChannel struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Code    string `gorm:"size:64;uniqueIndex" json:"code"`
	Name    string `gorm:"size:128" json:"name"`
	BaseURL string `gorm:"size:256" json:"baseUrl"`
	Status  string `gorm:"size:32;index" json:"status"` // active / disabled

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Article 文章表。Link 是天然主键（唯一索引），
// 重复抓取同一链接只回刷可变字段，不会产生第二行，也不会重置 is_saved
type Article struct {
	ID           string            `gorm:"primaryKey;size:40" json:"id"`
	Title        string            `gorm:"size:512" json:"title"`
	Link         string            `gorm:"size:1024;uniqueIndex" json:"link"`
	Score        int               `gorm:"index" json:"score"`
	Author       string            `gorm:"size:128" json:"author"`
	TimePosted   string            `gorm:"size:128" json:"timePosted"`
	PostedAt     time.Time         `gorm:"index" json:"postedAt"`
	CommentCount int               `json:"commentCount"`
	Source       string            `gorm:"size:64;index" json:"source"`
	FetchedAt    time.Time         `gorm:"index" json:"fetchedAt"`
	IsSaved      bool              `gorm:"index" json:"isSaved"`
	IsRead       bool              `gorm:"index" json:"isRead"`
	ExtraData    datatypes.JSONMap `gorm:"type:jsonb" json:"extraData"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Stats 文章统计信息
type Stats struct {
	Total    int64            `json:"total"`
	Today    int64            `json:"today"`
	Saved    int64            `json:"saved"`
	Read     int64            `json:"read"`
	BySource map[string]int64 `json:"bySource"`
}

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewStore(dsn, redisAddr string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&SourceChannel{}, &Article{}); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("warn: redis ping failed: %v", err)
	}

	return &Store{DB: db, Redis: rdb}, nil
}

// EnsureSource 确保某个数据源的注册信息存在
func (s *Store) EnsureSource(code, name, baseURL string) (*SourceChannel, error) {
	ch := &SourceChannel{}
	if err := s.DB.Where("code = ?", code).First(ch).Error; err == nil {
		return ch, nil
	}

	ch = &SourceChannel{
		Code:    code,
		Name:    name,
		BaseURL: baseURL,
		Status:  "active",
	}
	if err := s.DB.Create(ch).Error; err != nil {
		return nil, err
	}
	return ch, nil
}

// toValidUTF8 将字符串规范为合法 UTF-8，避免 PostgreSQL invalid byte sequence 错误
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}

// truncateRunesDB 按 rune 数截断字符串，确保不超过数据库字段长度
func truncateRunesDB(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}

// mutableUpdates 组装已存在行允许回刷的列。
// 刻意不包含 is_saved 和 is_read：两个标记只由用户操作改动，重复抓取不能重置它们
func mutableUpdates(it processor.ProcessedArticle, title string) map[string]any {
	return map[string]any{
		"title":         title,
		"score":         it.Score,
		"comment_count": it.CommentCount,
		"time_posted":   truncateRunesDB(it.TimePosted, 128),
		"posted_at":     it.PostedAt,
		"fetched_at":    it.FetchedAt,
		"extra_data":    datatypes.JSONMap(it.RawData),
	}
}

// UpsertBatch 保存一批文章。以 Link 作为幂等键：
// 新链接插入，已存在的链接只更新可变字段（分数、评论数、时间），
// 用户打过的书签保持不动
func (s *Store) UpsertBatch(items []processor.ProcessedArticle) error {
	for _, it := range items {
		title := truncateRunesDB(toValidUTF8(it.Title), 512)
		n := &Article{
			ID:           it.ID,
			Title:        title,
			Link:         it.Link,
			Score:        it.Score,
			Author:       truncateRunesDB(toValidUTF8(it.Author), 128),
			TimePosted:   truncateRunesDB(it.TimePosted, 128),
			PostedAt:     it.PostedAt,
			CommentCount: it.CommentCount,
			Source:       string(it.Source),
			FetchedAt:    it.FetchedAt,
			ExtraData:    datatypes.JSONMap(it.RawData),
		}

		if err := s.DB.Where("link = ?", it.Link).FirstOrCreate(n).Error; err != nil {
			return err
		}
		if err := s.DB.Model(n).Updates(mutableUpdates(it, title)).Error; err != nil {
			return err
		}
	}
	return nil
}

// ListArticles 返回全量文章集，过滤与排序在进程内由 query 包完成。
// 按 fetched_at 倒序返回，保证相同数据下输出顺序确定
func (s *Store) ListArticles() ([]Article, error) {
	var list []Article
	err := s.DB.Order("fetched_at DESC").Order("id ASC").Find(&list).Error
	return list, err
}

// ToggleSaved 翻转一篇文章的书签状态，返回新状态
func (s *Store) ToggleSaved(id string) (bool, error) {
	return s.toggleFlag(id, "is_saved", func(a *Article) *bool { return &a.IsSaved })
}

// ToggleRead 翻转一篇文章的已读状态，返回新状态
func (s *Store) ToggleRead(id string) (bool, error) {
	return s.toggleFlag(id, "is_read", func(a *Article) *bool { return &a.IsRead })
}

func (s *Store) toggleFlag(id, column string, field func(*Article) *bool) (bool, error) {
	var art Article
	if err := s.DB.Where("id = ?", id).First(&art).Error; err != nil {
		return false, err
	}
	newState := !*field(&art)
	if err := s.DB.Model(&art).Update(column, newState).Error; err != nil {
		return false, err
	}
	return newState, nil
}

// CountArticles 返回文章总数
func (s *Store) CountArticles() (int64, error) {
	var n int64
	err := s.DB.Model(&Article{}).Count(&n).Error
	return n, err
}

// GetStats 返回文章统计：总量、近 24 小时新增、书签数、按源分布
func (s *Store) GetStats() (Stats, error) {
	st := Stats{BySource: map[string]int64{}}

	if err := s.DB.Model(&Article{}).Count(&st.Total).Error; err != nil {
		return st, err
	}
	dayAgo := time.Now().Add(-24 * time.Hour)
	if err := s.DB.Model(&Article{}).Where("fetched_at >= ?", dayAgo).Count(&st.Today).Error; err != nil {
		return st, err
	}
	if err := s.DB.Model(&Article{}).Where("is_saved = ?", true).Count(&st.Saved).Error; err != nil {
		return st, err
	}
	if err := s.DB.Model(&Article{}).Where("is_read = ?", true).Count(&st.Read).Error; err != nil {
		return st, err
	}

	var rows []struct {
		Source string
		Count  int64
	}
	if err := s.DB.Model(&Article{}).
		Select("source, COUNT(*) as count").
		Group("source").
		Scan(&rows).Error; err != nil {
		return st, err
	}
	for _, r := range rows {
		st.BySource[r.Source] = r.Count
	}
	return st, nil
}
