package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

// stripNoise removes the elements that never hold article text.
const stripNoise = `() => document.querySelectorAll('script,style,nav,header,footer,aside').forEach(el => el.remove())`

// largestBlock returns the text of the div/section with the most text, or the body.
const largestBlock = `() => {
	let best = null, bestLen = -1;
	for (const el of document.querySelectorAll('div,section')) {
		const len = (el.innerText || '').trim().length;
		if (len > bestLen) { best = el; bestLen = len; }
	}
	const node = best || document.body;
	return node ? node.innerText : '';
}`

// RodExtractor implements Extractor using a headless browser driven by rod.
type RodExtractor struct {
	log     logrus.FieldLogger
	timeout time.Duration
}

// NewRodExtractor creates a new extractor instance.
func NewRodExtractor(logger logrus.FieldLogger) *RodExtractor {
	return &RodExtractor{
		log:     logger.WithField("component", "scraper"),
		timeout: 30 * time.Second,
	}
}

// Extract loads the page and returns its title and main content.
func (s *RodExtractor) Extract(ctx context.Context, url string) (article Article, err error) {
	log := s.log.WithField("url", url)
	log.Info("Attempting to extract article")

	if err := SafeURL(url); err != nil {
		log.WithError(err).Warn("Refusing to fetch URL")
		return Article{}, err
	}

	path, exists := launcher.LookPath()
	if !exists {
		log.Error("Cannot find browser executable for rod")
		return Article{}, errors.New("rod browser dependency not found")
	}
	u, err := launcher.New().Bin(path).Launch()
	if err != nil {
		return Article{}, fmt.Errorf("failed to launch browser: %w", err)
	}
	browser := rod.New().ControlURL(u)
	if err = browser.Connect(); err != nil {
		log.WithError(err).Error("Failed to connect to rod browser")
		return Article{}, fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			log.WithError(closeErr).Error("Error closing rod browser instance")
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		log.WithError(err).Error("Failed to create rod page")
		return Article{}, fmt.Errorf("failed to create page: %w", err)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			log.WithError(closeErr).Debug("Error closing rod page")
		}
	}()

	pageCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	page = page.Context(pageCtx)

	if err = page.WaitLoad(); err != nil {
		if errors.Is(pageCtx.Err(), context.DeadlineExceeded) {
			log.WithError(pageCtx.Err()).Warn("Extraction timed out")
			return Article{}, fmt.Errorf("extraction timed out for %s: %w", url, pageCtx.Err())
		}
		log.WithError(err).Error("Failed to wait for page load")
		return Article{}, fmt.Errorf("failed waiting for page load: %w", err)
	}

	title := url
	if ok, el, err := page.Has("title"); err == nil && ok {
		if text, err := el.Text(); err == nil && strings.TrimSpace(text) != "" {
			title = strings.TrimSpace(text)
		}
	}

	if _, err = page.Eval(stripNoise); err != nil {
		log.WithError(err).Warn("Failed to strip non-content elements")
	}

	content := ""
	for _, selector := range []string{"article", "main"} {
		ok, el, err := page.Has(selector)
		if err != nil || !ok {
			continue
		}
		if text, err := el.Text(); err == nil {
			content = text
			break
		}
	}
	if content == "" {
		res, err := page.Eval(largestBlock)
		if err != nil {
			log.WithError(err).Error("Failed to read page text")
			return Article{}, fmt.Errorf("failed to read page text: %w", err)
		}
		content = res.Value.Str()
	}

	article = Article{
		Title:   title,
		Content: truncate(collapseSpace(content), MaxContentLength),
	}
	log.WithField("title", article.Title).Info("Article extracted successfully")
	return article, nil
}
