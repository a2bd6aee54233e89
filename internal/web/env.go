package web

import (
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/erazemk/listings/internal/gate"
)

// envCookie is written by static/env.js as "<w>x<h>|<tz offset>|<canvas hash>".
const envCookie = "listings_env"

// requestEnv collects the browsing environment of r for fingerprinting.
func requestEnv(r *http.Request) gate.Env {
	env := gate.Env{
		UserAgent: r.UserAgent(),
		Language:  r.Header.Get("Accept-Language"),
	}

	c, err := r.Cookie(envCookie)
	if err != nil {
		return env
	}
	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return env
	}

	parts := strings.SplitN(raw, "|", 3)
	if len(parts) != 3 {
		return env
	}
	if w, h, ok := strings.Cut(parts[0], "x"); ok {
		env.ScreenWidth, _ = strconv.Atoi(w)
		env.ScreenHeight, _ = strconv.Atoi(h)
	}
	env.TimezoneOffset, _ = strconv.Atoi(parts[1])
	env.Canvas = parts[2]
	return env
}

func fingerprint(r *http.Request) string {
	return gate.Fingerprint(requestEnv(r))
}

// clientAddr is the host part of r.RemoteAddr, which middleware.RealIP has
// already replaced with a forwarded address when one was sent.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
