package ingest

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"

	"github.com/mitscampus/campusbot/internal/log"
)

// DefaultSitemapURL is the college website's post sitemap.
const DefaultSitemapURL = "https://mgmits.ac.in/post-sitemap2.xml"

// fallbackTitle is used when neither the page nor its URL yields a title.
const fallbackTitle = "MITS Page"

// Page is one fetched and cleaned website page.
type Page struct {
	URL   string
	Title string
	Text  string
}

// CollyConfig tunes the crawler's politeness settings.
type CollyConfig struct {
	Parallelism int
	Delay       time.Duration
	Timeout     time.Duration
}

// CollyLoader fetches pages with colly and extracts readable article text.
type CollyLoader struct {
	cfg    CollyConfig
	logger log.Logger
}

// NewCollyLoader builds a loader. A nil logger is replaced with a no-op one.
func NewCollyLoader(cfg CollyConfig, logger log.Logger) *CollyLoader {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 2
	}
	if cfg.Delay <= 0 {
		cfg.Delay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &CollyLoader{cfg: cfg, logger: logger}
}

func (l *CollyLoader) newCollector() *colly.Collector {
	c := colly.NewCollector(colly.Async(false))
	c.SetRequestTimeout(l.cfg.Timeout)
	_ = c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: l.cfg.Parallelism,
		Delay:       l.cfg.Delay,
	})
	return c
}

// Load fetches one page and returns its cleaned text content.
func (l *CollyLoader) Load(ctx context.Context, pageURL string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	var (
		page    Page
		loadErr error
	)

	c := l.newCollector()
	c.OnResponse(func(r *colly.Response) {
		page, loadErr = extractPage(pageURL, r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		loadErr = fmt.Errorf("fetch %s: %w", pageURL, err)
	})

	if err := c.Visit(pageURL); err != nil {
		return Page{}, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	c.Wait()

	if loadErr != nil {
		return Page{}, loadErr
	}
	l.logger.Debug("loaded page", "url", pageURL, "title", page.Title, "chars", len(page.Text))
	return page, nil
}

// LoadSitemap fetches a sitemap and returns the page URLs it lists.
func (l *CollyLoader) LoadSitemap(ctx context.Context, sitemapURL string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		urls    []string
		loadErr error
	)

	c := l.newCollector()
	c.OnXML("//urlset/url/loc", func(e *colly.XMLElement) {
		loc := strings.TrimSpace(e.Text)
		if loc != "" {
			urls = append(urls, loc)
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		loadErr = fmt.Errorf("fetch sitemap %s: %w", sitemapURL, err)
	})

	if err := c.Visit(sitemapURL); err != nil {
		return nil, fmt.Errorf("fetch sitemap %s: %w", sitemapURL, err)
	}
	c.Wait()

	if loadErr != nil {
		return nil, loadErr
	}
	l.logger.Info("loaded sitemap", "url", sitemapURL, "pages", len(urls))
	return urls, nil
}

// extractPage runs readability extraction over raw HTML, falling back to
// the full document text when no article can be isolated.
func extractPage(pageURL string, body []byte) (Page, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return Page{}, fmt.Errorf("parse url %s: %w", pageURL, err)
	}

	title := ""
	text := ""

	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		title = article.Title
		text = article.TextContent
	} else {
		doc, qerr := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if qerr != nil {
			return Page{}, fmt.Errorf("parse page %s: %w", pageURL, qerr)
		}
		doc.Find("script, style, noscript").Remove()
		title = doc.Find("title").First().Text()
		text = doc.Find("body").Text()
	}

	if strings.TrimSpace(title) == "" {
		title = titleFromURL(parsedURL)
	}
	return Page{URL: pageURL, Title: strings.TrimSpace(title), Text: text}, nil
}

// titleFromURL derives a title from the last URL path segment.
func titleFromURL(u *url.URL) string {
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	last := segments[len(segments)-1]
	if last == "" {
		return fallbackTitle
	}
	return last
}
