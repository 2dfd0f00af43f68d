package config

import (
	"log"
	"os"
	"time"
)

type Config struct {
	AppPort string

	PostgresDSN string
	RedisAddr   string

	// 后台定时抓取的 cron 表达式
	CronSpec string
	// 同一上游两次请求之间的最小间隔
	ScrapeDelay time.Duration

	BasicAuthUser string
	BasicAuthPass string

	// 前端静态文件目录，留空则不托管
	WebRoot string
}

func Load() *Config {
	cfg := &Config{
		AppPort:       getEnv("APP_PORT", "9000"),
		PostgresDSN:   getEnv("POSTGRES_DSN", "host=localhost user=technewshub password=technewshub dbname=technewshub port=5432 sslmode=disable TimeZone=UTC"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		CronSpec:      getEnv("CRON_SPEC", "*/15 * * * *"),
		ScrapeDelay:   getEnvDuration("SCRAPE_DELAY", time.Second),
		BasicAuthUser: getEnv("APP_BASIC_USER", ""),
		BasicAuthPass: getEnv("APP_BASIC_PASS", ""),
		WebRoot:       getEnv("WEB_ROOT", ""),
	}

	log.Printf("config loaded: port=%s cron=%s delay=%s", cfg.AppPort, cfg.CronSpec, cfg.ScrapeDelay)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvDuration 解析时长类环境变量，非法值回退到默认值。
// 抓取间隔不允许低于 1 秒，这是对上游站点的礼貌下限
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("warn: invalid duration %s=%q, using %s", key, v, def)
		return def
	}
	if d < time.Second {
		log.Printf("warn: %s=%s below 1s floor, using 1s", key, d)
		return time.Second
	}
	return d
}
