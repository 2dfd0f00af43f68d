package summarize

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	clientTimeout    = 15 * time.Second
	maxResponseBytes = 2 << 20 // 2MB
	summarySentences = 3
)

// Summary 单篇文章的摘要结果
type Summary struct {
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	TopImage string `json:"top_image"`
}

// Summarizer 按需抓取文章正文并做抽取式摘要。
// 结果从不缓存：失败可能是暂时的，下次点击重试即可
type Summarizer struct {
	client *http.Client
}

func New() *Summarizer {
	return &Summarizer{
		client: &http.Client{Timeout: clientTimeout},
	}
}

// 禁止访问的主机，防止被用户提交的 URL 带去打内网
var blockedHosts = map[string]bool{
	"localhost":       true,
	"127.0.0.1":       true,
	"0.0.0.0":         true,
	"169.254.169.254": true,
}

// IsSafeURL 只放行 http/https 且不指向本机/内网元数据地址的 URL
func IsSafeURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	if host == "" || blockedHosts[host] {
		return false
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
			return false
		}
	}
	return true
}

// Summarize 抓取 URL 对应的页面，抽出标题、头图和三句摘要
func (s *Summarizer) Summarize(ctx context.Context, raw string) (Summary, error) {
	if !IsSafeURL(raw) {
		return Summary{}, fmt.Errorf("summarize: url not allowed: %s", raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize: build request: %w", err)
	}
	req.Header.Set("User-Agent", "TechNewsHubBot/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize: fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Summary{}, fmt.Errorf("summarize: unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Summary{}, fmt.Errorf("summarize: parse html: %w", err)
	}

	out := Summary{
		Title:    extractTitle(doc),
		TopImage: extractTopImage(doc),
	}

	text := extractBodyText(doc)
	if text == "" {
		return out, fmt.Errorf("summarize: no article text found")
	}
	out.Summary = SummarizeText(text, summarySentences)
	return out, nil
}

func extractTitle(doc *goquery.Document) string {
	if t, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && t != "" {
		return strings.TrimSpace(t)
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func extractTopImage(doc *goquery.Document) string {
	if img, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		return strings.TrimSpace(img)
	}
	return ""
}

// extractBodyText 优先取 <article> 里的段落，页面没有语义化标签时退回全部 <p>
func extractBodyText(doc *goquery.Document) string {
	sel := doc.Find("article p")
	if sel.Length() == 0 {
		sel = doc.Find("p")
	}

	var parts []string
	sel.Each(func(_ int, p *goquery.Selection) {
		t := strings.TrimSpace(p.Text())
		// 太短的段落多半是导航/版权碎片
		if len(t) >= 40 {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " ")
}

var (
	sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+`)
	wordRe     = regexp.MustCompile(`[a-zA-Z]{3,}`)
)

// 摘要打分时忽略的高频虚词
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "that": true, "with": true,
	"this": true, "from": true, "have": true, "has": true, "are": true,
	"was": true, "were": true, "will": true, "but": true, "not": true,
	"its": true, "their": true, "they": true, "you": true, "can": true,
	"his": true, "her": true, "had": true, "been": true, "which": true,
	"about": true, "more": true, "also": true, "said": true, "would": true,
}

// SummarizeText 抽取式摘要：按词频给每句打分，
// 取得分最高的 maxSentences 句并按原文顺序拼回
func SummarizeText(text string, maxSentences int) string {
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}
	if len(sentences) <= maxSentences {
		out := make([]string, len(sentences))
		for i, s := range sentences {
			out[i] = strings.TrimSpace(s)
		}
		return strings.Join(out, " ")
	}

	freq := map[string]int{}
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if !stopWords[w] {
			freq[w]++
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, 0, len(sentences))
	for i, sent := range sentences {
		words := wordRe.FindAllString(strings.ToLower(sent), -1)
		if len(words) == 0 {
			continue
		}
		total := 0
		for _, w := range words {
			total += freq[w]
		}
		// 按句长归一，避免一味偏向长句
		ranked = append(ranked, scored{idx: i, score: float64(total) / float64(len(words))})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].idx < ranked[j].idx
	})
	if len(ranked) > maxSentences {
		ranked = ranked[:maxSentences]
	}

	// 选出的句子按原文顺序输出
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].idx < ranked[j].idx })

	var out []string
	for _, r := range ranked {
		out = append(out, strings.TrimSpace(sentences[r.idx]))
	}
	return strings.Join(out, " ")
}
