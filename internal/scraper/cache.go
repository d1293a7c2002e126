package scraper

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
)

// WrapCache memoizes successful extractions per URL. size or ttl <= 0 disables caching.
func WrapCache(next Extractor, size int, ttl time.Duration, logger logrus.FieldLogger) Extractor {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &cachedExtractor{
		next:  next,
		cache: expirable.NewLRU[string, Article](size, nil, ttl),
		log:   logger.WithField("component", "article_cache"),
	}
}

type cachedExtractor struct {
	next  Extractor
	cache *expirable.LRU[string, Article]
	log   logrus.FieldLogger
}

func (c *cachedExtractor) Extract(ctx context.Context, url string) (Article, error) {
	if cached, ok := c.cache.Get(url); ok {
		c.log.WithField("url", url).Debug("article cache hit")
		return cached, nil
	}
	article, err := c.next.Extract(ctx, url)
	if err != nil {
		return Article{}, err
	}
	c.cache.Add(url, article)
	return article, nil
}
