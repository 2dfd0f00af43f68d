package collector

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// 各源常见的绝对时间格式，按出现频率排序
var absoluteTimeLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

var relativeTimeRe = regexp.MustCompile(`^(\d+)\s+(second|minute|hour|day|week|month|year)s?\s+ago$`)

// ParseUpstreamTime 把上游的时间文案归一化为绝对时间。
// 同时支持 RFC 系列绝对格式和 "3 hours ago" 式相对文案；
// 相对文案以 now 为基准换算。解析失败返回零值，排序时零值排在最后
func ParseUpstreamTime(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	for _, layout := range absoluteTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}

	m := relativeTimeRe.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return time.Time{}
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 0 {
		return time.Time{}
	}

	var unit time.Duration
	switch m[2] {
	case "second":
		unit = time.Second
	case "minute":
		unit = time.Minute
	case "hour":
		unit = time.Hour
	case "day":
		unit = 24 * time.Hour
	case "week":
		unit = 7 * 24 * time.Hour
	case "month":
		// 月和年按固定天数折算，做排序用途足够
		unit = 30 * 24 * time.Hour
	case "year":
		unit = 365 * 24 * time.Hour
	default:
		return time.Time{}
	}

	return now.Add(-time.Duration(n) * unit)
}
