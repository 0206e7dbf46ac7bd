// Package auth provides optional Instagram session cookies for the structured fetch tier.
//
// Anonymous requests work for the page metadata tier; a logged-in session
// makes the structured JSON endpoint far more likely to answer.
package auth

import (
	"context"
	"net/http"
	"os"
	"sort"
)

// Domain is the cookie domain for Instagram.
const Domain = "instagram.com"

// essentialCookies are the only cookies forwarded to Instagram.
var essentialCookies = []string{"sessionid", "csrftoken", "ds_user_id"}

// envVars maps environment variable names to cookie names.
var envVars = map[string]string{
	"INSTAGRAM_SESSIONID":  "sessionid",
	"INSTAGRAM_CSRFTOKEN":  "csrftoken",
	"INSTAGRAM_DS_USER_ID": "ds_user_id",
}

// Source represents a source of session cookies.
type Source interface {
	// Cookies returns cookie values by name, or nil if unavailable.
	Cookies(ctx context.Context) (map[string]string, error)
}

// Chain returns cookies from the first source that provides them.
// A failing source is skipped; cookies are optional.
func Chain(ctx context.Context, sources ...Source) map[string]string {
	for _, src := range sources {
		if src == nil {
			continue
		}
		cookies, err := src.Cookies(ctx)
		if err != nil {
			continue
		}
		if len(cookies) > 0 {
			return cookies
		}
	}
	return nil
}

// EnvSource reads cookies from INSTAGRAM_* environment variables.
type EnvSource struct{}

// Cookies returns cookies from environment variables.
func (EnvSource) Cookies(context.Context) (map[string]string, error) {
	cookies := make(map[string]string)
	for envVar, name := range envVars {
		if value := os.Getenv(envVar); value != "" {
			cookies[name] = value
		}
	}
	if len(cookies) == 0 {
		return nil, nil //nolint:nilnil // no env vars set is not an error
	}
	return cookies, nil
}

// EnvVars returns the supported environment variable names, sorted.
func EnvVars() []string {
	vars := make([]string, 0, len(envVars))
	for v := range envVars {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	return vars
}

// HTTPCookies converts a cookie map into request cookies, in stable order.
func HTTPCookies(cookies map[string]string) []*http.Cookie {
	names := make([]string, 0, len(cookies))
	for name, value := range cookies {
		if value != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		out = append(out, &http.Cookie{Name: name, Value: cookies[name]})
	}
	return out
}

// filterEssential keeps only the cookies Instagram needs for a session.
func filterEssential(all map[string]string) map[string]string {
	out := make(map[string]string)
	for _, name := range essentialCookies {
		if v, ok := all[name]; ok && v != "" {
			out[name] = v
		}
	}
	return out
}
