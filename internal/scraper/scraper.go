package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// MaxContentLength caps the article text handed to the summarizer.
const MaxContentLength = 5000

// Article is the readable part of a web page.
type Article struct {
	Title   string
	Content string
}

// Extractor fetches a URL and pulls out its title and main text.
type Extractor interface {
	Extract(ctx context.Context, url string) (Article, error)
}

var ErrUnsafeURL = errors.New("unsafe url")

var blockedNets = []*net.IPNet{
	mustCIDR("0.0.0.0/8"),
	mustCIDR("100.64.0.0/10"),
	mustCIDR("240.0.0.0/4"),
}

func mustCIDR(s string) *net.IPNet {
	_, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return n
}

// SafeURL rejects anything but http(s) URLs pointing at public hosts. Numeric hosts are
// read the way a browser reads them, so 2130706433, 0x7f.1 and 127.1 are all loopback.
func SafeURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsafeURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: invalid scheme %q", ErrUnsafeURL, u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrUnsafeURL)
	}
	if strings.Contains(host, ":") {
		ip := net.ParseIP(host)
		if ip == nil {
			return fmt.Errorf("%w: malformed address %s", ErrUnsafeURL, host)
		}
		return checkIP(ip, host)
	}
	if endsInNumber(host) {
		ip, err := parseIPv4(host)
		if err != nil {
			return fmt.Errorf("%w: malformed address %s: %v", ErrUnsafeURL, host, err)
		}
		return checkIP(ip, host)
	}
	host = strings.TrimSuffix(host, ".")
	if host == "localhost" || strings.HasSuffix(host, ".localhost") ||
		strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".internal") {
		return fmt.Errorf("%w: local or internal domain %s", ErrUnsafeURL, host)
	}
	return nil
}

func checkIP(ip net.IP, host string) error {
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified() || ip.IsMulticast() {
		return fmt.Errorf("%w: private or internal address %s", ErrUnsafeURL, host)
	}
	for _, n := range blockedNets {
		if n.Contains(ip) {
			return fmt.Errorf("%w: reserved address %s", ErrUnsafeURL, host)
		}
	}
	return nil
}

func hostLabels(host string) []string {
	labels := strings.Split(host, ".")
	if len(labels) > 1 && labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}
	return labels
}

// endsInNumber reports whether a browser would parse host as an IPv4 address.
func endsInNumber(host string) bool {
	labels := hostLabels(host)
	last := labels[len(labels)-1]
	if last != "" && strings.Trim(last, "0123456789") == "" {
		return true
	}
	_, err := parseIPv4Part(last)
	return err == nil
}

// parseIPv4Part reads one dotted part: 0x prefix is hex, a leading 0 is octal.
func parseIPv4Part(s string) (uint64, error) {
	if s == "" {
		return 0, errors.New("empty part")
	}
	base := 10
	switch {
	case len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X"):
		s, base = s[2:], 16
		if s == "" {
			return 0, nil
		}
	case len(s) > 1 && s[0] == '0':
		s, base = s[1:], 8
	}
	return strconv.ParseUint(s, base, 64)
}

// parseIPv4 accepts one to four parts. Every part but the last is a single byte; the last
// fills the remaining bytes.
func parseIPv4(host string) (net.IP, error) {
	labels := hostLabels(host)
	if len(labels) > 4 {
		return nil, errors.New("too many parts")
	}
	var addr uint64
	for i, label := range labels {
		n, err := parseIPv4Part(label)
		if err != nil {
			return nil, err
		}
		if i < len(labels)-1 {
			if n > 255 {
				return nil, fmt.Errorf("part %q out of range", label)
			}
			addr |= n << (8 * uint(3-i))
			continue
		}
		if n >= 1<<(8*uint(5-len(labels))) {
			return nil, fmt.Errorf("part %q out of range", label)
		}
		addr |= n
	}
	return net.IPv4(byte(addr>>24), byte(addr>>16), byte(addr>>8), byte(addr)), nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// collapseSpace joins whitespace runs the way a text extractor with a single-space separator would.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
