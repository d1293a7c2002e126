// Package render turns a link snapshot into what the front-ends display.
package render

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strings"
	"time"

	"linkwise/internal/domain"
)

// MaxTags is how many tags a link card shows.
const MaxTags = 6

// EmptyText is shown when no link matches.
const EmptyText = "No links found."

// Item is one display-ready link card.
type Item struct {
	ID      string
	URL     string
	Title   string
	Summary string
	Tags    []string
	Date    string
}

// Filter returns the links matching query, keeping their order. The query is trimmed and
// compared case-insensitively against title, url, summary and each tag. An empty query
// matches everything.
func Filter(links []domain.Link, query string) []domain.Link {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.Link, 0, len(links))
	for _, l := range links {
		if q == "" || matches(l, q) {
			out = append(out, l)
		}
	}
	return out
}

func matches(l domain.Link, q string) bool {
	if strings.Contains(strings.ToLower(l.Title), q) ||
		strings.Contains(strings.ToLower(l.URL), q) ||
		strings.Contains(strings.ToLower(l.Summary), q) {
		return true
	}
	for _, t := range l.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// Items filters links by query and converts the result into cards dated relative to now.
func Items(links []domain.Link, query string, now time.Time) []Item {
	filtered := Filter(links, query)
	items := make([]Item, 0, len(filtered))
	for _, l := range filtered {
		tags := l.Tags
		if len(tags) > MaxTags {
			tags = tags[:MaxTags]
		}
		items = append(items, Item{
			ID:      l.ID,
			URL:     l.URL,
			Title:   l.Title,
			Summary: l.Summary,
			Tags:    append([]string(nil), tags...),
			Date:    FormatDate(l.CreatedAt, now),
		})
	}
	return items
}

// FormatDate renders t relative to now. A zero t means the backend has not stamped the link yet.
func FormatDate(t, now time.Time) string {
	if t.IsZero() {
		return "Just now"
	}
	diff := now.Sub(t)
	if diff < 0 {
		diff = 0
	}
	switch days := int(diff / (24 * time.Hour)); {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("Jan 2, 2006")
	}
}

var cards = template.Must(template.New("links").Parse(`{{if not .}}<div class="empty-state"><p>` + EmptyText + `</p></div>{{else}}{{range .}}<div class="link-card" data-link-id="{{.ID}}">
<div class="link-header"><div class="link-title"><a href="{{.URL}}" target="_blank" rel="noopener noreferrer" class="link-icon" title="{{.URL}}">🔗</a><span>{{.Title}}</span></div>
<button class="delete-btn" data-delete="{{.ID}}" title="Delete link">×</button></div>
<div class="link-summary">{{.Summary}}</div>
<div class="link-tags">{{range .Tags}}<span class="tag">#{{.}}</span>{{end}}<span class="link-date">{{.Date}}</span></div>
</div>
{{end}}{{end}}`))

// HTML renders items as link cards. Every field is escaped.
func HTML(items []Item) (string, error) {
	var buf bytes.Buffer
	if err := cards.Execute(&buf, items); err != nil {
		return "", fmt.Errorf("render links: %w", err)
	}
	return buf.String(), nil
}

// TelegramLimit is the longest message Telegram accepts. Lengths here are counted in bytes,
// which never undercounts the characters Telegram sees.
const TelegramLimit = 4096

// Telegram renders items in Telegram's HTML parse mode, split into messages that each fit
// TelegramLimit. Items are never split across messages.
func Telegram(items []Item) []string {
	if len(items) == 0 {
		return []string{EmptyText}
	}
	var (
		chunks []string
		b      strings.Builder
	)
	for _, it := range items {
		block := telegramItem(it)
		if len(block) > TelegramLimit {
			block = telegramCompact(it)
		}
		if b.Len() > 0 && b.Len()+2+len(block) > TelegramLimit {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(block)
	}
	return append(chunks, b.String())
}

func telegramItem(it Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔗 <a href=\"%s\">%s</a>\n", html.EscapeString(it.URL), html.EscapeString(it.Title))
	if it.Summary != "" {
		b.WriteString(html.EscapeString(it.Summary))
		b.WriteString("\n")
	}
	for _, t := range it.Tags {
		b.WriteString("#")
		b.WriteString(html.EscapeString(t))
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "<i>%s</i> · <code>%s</code>", html.EscapeString(it.Date), html.EscapeString(it.ID))
	return b.String()
}

// telegramCompact is the fallback for an item too large to send whole: a shortened title,
// its date and id.
func telegramCompact(it Item) string {
	title := []rune(it.Title)
	if len(title) > 100 {
		title = append(title[:100], '…')
	}
	return fmt.Sprintf("🔗 %s\n<i>%s</i> · <code>%s</code>",
		html.EscapeString(string(title)), html.EscapeString(it.Date), html.EscapeString(it.ID))
}

// Text renders items as plain text for a terminal.
func Text(items []Item) string {
	if len(items) == 0 {
		return EmptyText + "\n"
	}
	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "[%s] %s\n    %s\n", it.ID, it.Title, it.URL)
		if it.Summary != "" {
			fmt.Fprintf(&b, "    %s\n", it.Summary)
		}
		if len(it.Tags) > 0 {
			fmt.Fprintf(&b, "    #%s\n", strings.Join(it.Tags, " #"))
		}
		fmt.Fprintf(&b, "    %s\n", it.Date)
	}
	return b.String()
}
