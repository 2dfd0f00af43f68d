package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/LJTian/TechNewsHub/internal/aggregator"
	"github.com/LJTian/TechNewsHub/internal/cache"
	"github.com/LJTian/TechNewsHub/internal/collector"
	"github.com/LJTian/TechNewsHub/internal/processor"
	"github.com/LJTian/TechNewsHub/internal/query"
	"github.com/LJTian/TechNewsHub/internal/storage"
	"github.com/LJTian/TechNewsHub/internal/summarize"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	minPages = 1
	maxPages = 10
)

// ArticleStore 接口由 storage.Store 实现
type ArticleStore interface {
	ListArticles() ([]storage.Article, error)
	ToggleSaved(id string) (bool, error)
	ToggleRead(id string) (bool, error)
	GetStats() (storage.Stats, error)
}

// Sources 接口由 aggregator.Aggregator 实现
type Sources interface {
	Scrape(ctx context.Context, pages int) ([]processor.ProcessedArticle, []aggregator.SourceError, error)
	Health() []aggregator.Health
}

type Server struct {
	store      ArticleStore
	agg        Sources
	cache      *cache.Cache
	summarizer *summarize.Summarizer
}

func NewServer(store ArticleStore, agg Sources, c *cache.Cache, sum *summarize.Summarizer) *Server {
	return &Server{store: store, agg: agg, cache: c, summarizer: sum}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/articles", s.listArticles)
		v1.POST("/articles/:id/save", s.toggleSave)
		v1.POST("/articles/:id/read", s.toggleRead)
		v1.GET("/sources", s.listSources)
		v1.GET("/stats", s.stats)
		v1.GET("/trending", s.trending)
		v1.POST("/summarize", s.summarizeArticle)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// listArticles 文章列表接口。
// 参数校验全部放在触发抓取之前，非法请求不会打到任何上游
func (s *Server) listArticles(c *gin.Context) {
	pagesStr := c.DefaultQuery("pages", "1")
	pages, err := strconv.Atoi(pagesStr)
	if err != nil || pages < minPages || pages > maxPages {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_param",
			"message": "pages must be an integer between 1 and 10",
		})
		return
	}

	source := c.Query("source")
	if source != "" && source != "all" && !collector.ValidSource(source) {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_param",
			"message": "unknown source: " + source,
		})
		return
	}

	sortBy := query.ParseSortBy(c.DefaultQuery("sort", "score"))
	keyword := c.Query("keyword")
	savedOnly := c.Query("saved_only") == "true"
	unreadOnly := c.Query("unread_only") == "true"
	force := c.Query("force_refresh") == "true"

	key := cache.Key{
		Pages:      pages,
		Keyword:    keyword,
		Source:     source,
		SortBy:     string(sortBy),
		SavedOnly:  savedOnly,
		UnreadOnly: unreadOnly,
	}

	res, err := s.cache.GetOrCompute(c.Request.Context(), key, force, func(ctx context.Context) (cache.Result, error) {
		_, srcErrs, err := s.agg.Scrape(ctx, pages)
		if err != nil {
			return cache.Result{}, err
		}

		all, err := s.store.ListArticles()
		if err != nil {
			return cache.Result{}, err
		}

		filtered := query.Apply(all, query.Filter{
			Keyword:    keyword,
			Source:     source,
			SavedOnly:  savedOnly,
			UnreadOnly: unreadOnly,
		}, sortBy)

		return cache.Result{Articles: filtered, Warnings: srcErrs}, nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":       "ok",
		"message":    "success",
		"data":       res.Articles,
		"warnings":   res.Warnings,
		"computedAt": res.ComputedAt,
	})
}

// toggleSave 翻转书签。改动立即生效，顺手清掉结果缓存，
// 避免 saved 视图在 TTL 窗口内拿到旧标记
func (s *Server) toggleSave(c *gin.Context) {
	id := c.Param("id")

	saved, err := s.store.ToggleSaved(id)
	if err != nil {
		s.toggleError(c, id, err)
		return
	}

	s.cache.Flush()

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    gin.H{"id": id, "isSaved": saved},
	})
}

// toggleRead 翻转已读标记，处理方式与书签一致
func (s *Server) toggleRead(c *gin.Context) {
	id := c.Param("id")

	read, err := s.store.ToggleRead(id)
	if err != nil {
		s.toggleError(c, id, err)
		return
	}

	s.cache.Flush()

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    gin.H{"id": id, "isRead": read},
	})
}

// toggleError 区分未找到和真正的存储故障
func (s *Server) toggleError(c *gin.Context, id string, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "not_found",
			"message": "article not found: " + id,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "internal_error",
		"message": "internal server error",
	})
}

func (s *Server) listSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    s.agg.Health(),
	})
}

// trending 统计已入库文章标题里的热词
func (s *Server) trending(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "10")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 10
	}

	all, err := s.store.ListArticles()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    query.TrendingTopics(all, limit),
	})
}

func (s *Server) stats(c *gin.Context) {
	st, err := s.store.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    st,
	})
}

// summarizeArticle 按需摘要，结果不缓存
func (s *Server) summarizeArticle(c *gin.Context) {
	var req struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_param",
			"message": "body must contain a url field",
		})
		return
	}
	if !summarize.IsSafeURL(req.URL) {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_param",
			"message": "url not allowed",
		})
		return
	}

	sum, err := s.summarizer.Summarize(c.Request.Context(), req.URL)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"code":    "upstream_error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    sum,
	})
}
