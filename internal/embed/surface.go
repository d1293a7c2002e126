// Package embed defines how a host page asks an embedded app page to present itself.
//
// The host never reaches into the embedded document. It encodes a Surface into the
// iframe URL and the embedded page renders against the parsed value.
package embed

import (
	"net/url"
	"strconv"
	"strings"
)

// Version is the only contract version this build understands.
const Version = 1

const (
	paramEmbed  = "embed"
	paramHide   = "hide"
	paramChrome = "chrome"
)

// Surface describes presentation requested by the host.
// The zero value is a standalone page.
type Surface struct {
	Version int
	// HideAuth hides the embedded sign-in screen because the host owns the session.
	HideAuth bool
	// FlatChrome drops the embedded header's rounded frame and outer margin.
	FlatChrome bool
}

// Embedded reports whether the page is rendered inside a host under a known contract.
func (s Surface) Embedded() bool {
	return s.Version == Version
}

// Encode renders the surface as query parameters.
func (s Surface) Encode() url.Values {
	q := url.Values{}
	if !s.Embedded() {
		return q
	}
	q.Set(paramEmbed, strconv.Itoa(s.Version))
	if s.HideAuth {
		q.Set(paramHide, "auth")
	}
	if s.FlatChrome {
		q.Set(paramChrome, "flat")
	}
	return q
}

// URL appends the surface parameters to base, keeping any query it already has.
func (s Surface) URL(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	for k, vs := range s.Encode() {
		q[k] = vs
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Parse reads a surface from query parameters. Unknown versions yield a standalone surface.
func Parse(q url.Values) Surface {
	v, err := strconv.Atoi(q.Get(paramEmbed))
	if err != nil || v != Version {
		return Surface{}
	}
	s := Surface{Version: v}
	for _, item := range strings.Split(q.Get(paramHide), ",") {
		if strings.TrimSpace(item) == "auth" {
			s.HideAuth = true
		}
	}
	s.FlatChrome = q.Get(paramChrome) == "flat"
	return s
}
