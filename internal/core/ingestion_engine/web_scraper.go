package ingestion_engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"code.sajari.com/docconv"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/markdave123-py/mindwise/internal/core"
)

const (
	defaultUserAgent      = "Mozilla/5.0"
	defaultScrapeTimeout  = 20 * time.Second
	defaultScrapeMaxBytes = 5 << 20
)

// ErrFetch reports a network failure or non-2xx response while fetching a page.
var ErrFetch = errors.New("fetch failed")

// noiseSelector lists elements whose text is never page content.
const noiseSelector = "script, style, nav, footer, header"

// documentTypes are non-HTML bodies handed to docconv.
var documentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.oasis.opendocument.text":                                 true,
	"application/rtf":                                                         true,
	"text/rtf":                                                                true,
}

// WebScraper fetches one page per call and reduces it to visible text.
type WebScraper struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

var _ core.Scraper = (*WebScraper)(nil)

func NewWebScraper(timeout time.Duration, maxBytes int64) *WebScraper {
	if timeout <= 0 {
		timeout = defaultScrapeTimeout
	}
	if maxBytes <= 0 {
		maxBytes = defaultScrapeMaxBytes
	}
	return &WebScraper{
		client:    &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
		maxBytes:  maxBytes,
	}
}

// Scrape performs a single GET without retries. Fetch problems are returned wrapped
// in ErrFetch; a reachable page with no text returns "" and a nil error.
func (s *WebScraper) Scrape(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Error("scrape request failed", "url", url, "error", err)
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("scrape returned non-2xx status", "url", url, "status", resp.StatusCode)
		return "", fmt.Errorf("%w: %s returned %s", ErrFetch, url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes))
	if err != nil {
		slog.Error("scrape body read failed", "url", url, "error", err)
		return "", fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType := "text/html"
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			mediaType = strings.ToLower(mt)
		}
	}

	if documentTypes[mediaType] {
		res, err := docconv.Convert(bytes.NewReader(body), mediaType, false)
		if err != nil {
			slog.Error("document conversion failed", "url", url, "content_type", mediaType, "error", err)
			return "", fmt.Errorf("%w: convert %s: %v", ErrFetch, mediaType, err)
		}
		return cleanText(res.Body), nil
	}

	decoded, err := decodeBody(body, contentType, int64(len(body)) >= s.maxBytes)
	if err != nil {
		slog.Error("scrape body decode failed", "url", url, "content_type", contentType, "error", err)
		return "", fmt.Errorf("%w: decode body: %v", ErrFetch, err)
	}

	if mediaType == "text/plain" {
		return cleanText(string(decoded)), nil
	}
	text, err := ExtractVisibleText(bytes.NewReader(decoded))
	if err != nil {
		return "", err
	}
	return cleanText(text), nil
}

// decodeBody converts body to UTF-8 using the declared charset, a <meta> tag, or
// content sniffing. A UTF-8 body cut at the size limit loses its partial last rune.
func decodeBody(body []byte, contentType string, truncated bool) ([]byte, error) {
	enc, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" {
		if truncated {
			body = trimPartialRune(body)
		}
		return body, nil
	}
	return enc.NewDecoder().Bytes(body)
}

func trimPartialRune(b []byte) []byte {
	i := len(b) - 1
	for i > 0 && len(b)-i < utf8.UTFMax && !utf8.RuneStart(b[i]) {
		i--
	}
	if i >= 0 && !utf8.FullRune(b[i:]) {
		return b[:i]
	}
	return b
}

// cleanText drops any byte sequence that is still not valid UTF-8.
func cleanText(s string) string {
	return strings.TrimSpace(strings.ToValidUTF8(s, ""))
}

// ExtractVisibleText parses HTML, drops script/style/nav/footer/header subtrees and
// joins the remaining trimmed text nodes with newlines.
func ExtractVisibleText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find(noiseSelector).Remove()

	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n"), nil
}
