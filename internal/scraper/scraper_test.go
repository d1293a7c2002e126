package scraper

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeURL(t *testing.T) {
	allowed := []string{
		"https://example.com/article",
		"http://8.8.8.8/",
		"https://news.ycombinator.com",
		"http://134744072/",
		"http://1e100.net/",
	}
	for _, raw := range allowed {
		assert.NoError(t, SafeURL(raw), raw)
	}

	blocked := []string{
		"ftp://example.com/file",
		"file:///etc/passwd",
		"http://localhost:8080",
		"http://127.0.0.1/",
		"http://[::1]/",
		"http://10.0.0.5/admin",
		"http://192.168.1.1/",
		"http://169.254.169.254/latest/meta-data",
		"http://printer.local/",
		"http://metadata.google.internal/",
		"https:///nohost",
		"http://2130706433/",
		"http://127.1/",
		"http://0x7f000001/",
		"http://017700000001/",
		"http://0x7f.0.0.1/",
		"http://127.0.0.1./",
		"http://0/",
		"http://0.0.0.0/",
		"http://100.64.0.1/",
		"http://240.0.0.1/",
		"http://255.255.255.255/",
		"http://[::ffff:127.0.0.1]/",
		"http://[fe80::1]/",
		"http://1.2.3.4.5/",
		"http://256.1.1.1/",
		"http://1.2.3.0x1000000/",
		"http://example.123/",
		"http://localhost./",
	}
	for _, raw := range blocked {
		err := SafeURL(raw)
		assert.ErrorIs(t, err, ErrUnsafeURL, raw)
	}
}

func TestParseIPv4(t *testing.T) {
	tests := map[string]string{
		"2130706433":   "127.0.0.1",
		"127.1":        "127.0.0.1",
		"0x7f000001":   "127.0.0.1",
		"017700000001": "127.0.0.1",
		"0x7f.1":       "127.0.0.1",
		"10.0x10.1":    "10.16.0.1",
		"134744072":    "8.8.8.8",
		"8.8.8.8.":     "8.8.8.8",
		"0x":           "0.0.0.0",
	}
	for host, want := range tests {
		ip, err := parseIPv4(host)
		require.NoError(t, err, host)
		assert.Equal(t, want, ip.String(), host)
	}

	for _, host := range []string{"1.2.3.4.5", "256.1.1.1", "1.2.16777216", "08.1.1.1", "1..2"} {
		_, err := parseIPv4(host)
		assert.Error(t, err, host)
	}
}

func TestTruncateAndCollapse(t *testing.T) {
	assert.Equal(t, "a b c", collapseSpace("  a\n\tb   c "))
	assert.Equal(t, "héllo", truncate("héllo wörld", 5))
	assert.Equal(t, "short", truncate("short", 10))
	assert.Len(t, []rune(truncate(strings.Repeat("x", MaxContentLength+10), MaxContentLength)), MaxContentLength)
}

type countingExtractor struct {
	calls int
	err   error
}

func (c *countingExtractor) Extract(ctx context.Context, url string) (Article, error) {
	c.calls++
	if c.err != nil {
		return Article{}, c.err
	}
	return Article{Title: "Title for " + url, Content: "body"}, nil
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestWrapCache(t *testing.T) {
	inner := &countingExtractor{}
	ex := WrapCache(inner, 8, time.Minute, quietLogger())

	a, err := ex.Extract(context.Background(), "https://example.com")
	require.NoError(t, err)
	b, err := ex.Extract(context.Background(), "https://example.com")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 1, inner.calls)

	_, err = ex.Extract(context.Background(), "https://example.org")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestWrapCache_DoesNotCacheFailures(t *testing.T) {
	inner := &countingExtractor{err: errors.New("boom")}
	ex := WrapCache(inner, 8, time.Minute, quietLogger())

	_, err := ex.Extract(context.Background(), "https://example.com")
	assert.Error(t, err)
	_, err = ex.Extract(context.Background(), "https://example.com")
	assert.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestWrapCache_Disabled(t *testing.T) {
	inner := &countingExtractor{}
	assert.Same(t, Extractor(inner), WrapCache(inner, 0, time.Minute, quietLogger()))
}
