// Package instagram fetches best-effort public profile data for Instagram links.
//
// Fetching is tiered: the structured JSON variant of the profile page is tried
// first and the link-preview meta tags of the plain page are used when that
// fails. Failures never escape Fetch; they are recorded in the returned record.
package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/codeGROOVE-dev/artcheck/pkg/auth"
	"github.com/codeGROOVE-dev/artcheck/pkg/htmlutil"
	"github.com/codeGROOVE-dev/artcheck/pkg/profile"
	"github.com/codeGROOVE-dev/artcheck/pkg/resultcache"
	"github.com/codeGROOVE-dev/artcheck/pkg/webclient"
)

// appID is the web client application ID Instagram expects on JSON requests.
const appID = "936619743392459"

// structuredQuery selects the JSON variant of a profile page.
const structuredQuery = "/?__a=1&__d=dis"

var followersPattern = regexp.MustCompile(`(?i)([\d,.]+)\s+followers`)

// Client fetches Instagram profiles.
type Client struct {
	httpClient *http.Client
	cache      *resultcache.Cache
	limiter    *webclient.RateLimiter
	logger     *slog.Logger
	cookies    []*http.Cookie
}

// Option configures a Client.
type Option func(*config)

type config struct {
	httpClient *http.Client
	cache      *resultcache.Cache
	limiter    *webclient.RateLimiter
	logger     *slog.Logger
	sources    []auth.Source
}

// WithCache sets the result cache. Without it the client uses a private
// cache with the default TTL.
func WithCache(c *resultcache.Cache) Option {
	return func(cfg *config) { cfg.cache = c }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) { cfg.logger = logger }
}

// WithHTTPClient sets the HTTP client used for both tiers.
func WithHTTPClient(hc *http.Client) Option {
	return func(cfg *config) { cfg.httpClient = hc }
}

// WithRateLimiter spaces out requests to the same host.
func WithRateLimiter(l *webclient.RateLimiter) Option {
	return func(cfg *config) { cfg.limiter = l }
}

// WithCookieSources sets where session cookies for the structured tier come
// from. The first source that yields cookies wins.
func WithCookieSources(sources ...auth.Source) Option {
	return func(cfg *config) { cfg.sources = append(cfg.sources, sources...) }
}

// New creates an Instagram client. Cookie sources are read once here.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &config{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = webclient.NewClient(webclient.DefaultTimeout)
	}
	if cfg.cache == nil {
		cfg.cache = resultcache.New(resultcache.DefaultTTL, resultcache.WithLogger(cfg.logger))
	}

	var cookies []*http.Cookie
	if len(cfg.sources) > 0 {
		cookies = auth.HTTPCookies(auth.Chain(ctx, cfg.sources...))
		cfg.logger.DebugContext(ctx, "instagram session cookies", "count", len(cookies))
	}

	return &Client{
		httpClient: cfg.httpClient,
		cache:      cfg.cache,
		limiter:    cfg.limiter,
		logger:     cfg.logger,
		cookies:    cookies,
	}, nil
}

// Fetch returns the profile record for id. It never fails: fetch problems are
// reported through the record's FetchError. Successful records are cached.
func (c *Client) Fetch(ctx context.Context, id profile.Identifier) *profile.Record {
	if rec, ok := c.cache.Get(id); ok {
		c.logger.DebugContext(ctx, "profile cache hit", "id", id)
		return rec
	}

	c.logger.InfoContext(ctx, "fetching instagram profile", "id", id)

	rec, err := c.fetchStructured(ctx, id)
	if err != nil {
		c.logger.DebugContext(ctx, "structured tier unusable, falling back to page metadata", "id", id, "error", err)
		rec = c.fetchMetadata(ctx, id)
	}

	if rec.Failed() {
		c.logger.InfoContext(ctx, "profile fetch failed", "id", id, "error", rec.FetchError)
		return rec
	}

	if rec.Empty() {
		c.logger.InfoContext(ctx, "profile page carried no usable metadata", "id", id, "source", rec.Source)
	}
	c.cache.Set(id, rec)
	c.logger.InfoContext(ctx, "profile fetched", "id", id, "source", rec.Source, "followers", rec.Followers.String())
	return rec
}

func (c *Client) fetchStructured(ctx context.Context, id profile.Identifier) (*profile.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, id.String()+structuredQuery, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", webclient.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-IG-App-ID", appID)
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	resp, err := webclient.Do(ctx, c.httpClient, req, c.limiter, c.logger)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &webclient.HTTPError{URL: req.URL.String(), StatusCode: resp.StatusCode}
	}
	if !resp.IsJSON() {
		return nil, fmt.Errorf("%w: %q", profile.ErrNotJSON, resp.ContentType)
	}

	return parseStructured(resp.Body)
}

func parseStructured(data []byte) (*profile.Record, error) {
	var resp structuredResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	user := resp.GraphQL.User
	if user == nil {
		user = resp.Data.User
	}
	if user == nil {
		return nil, profile.ErrProfileNotFound
	}

	avatar := user.ProfilePicURLHD
	if avatar == "" {
		avatar = user.ProfilePicURL
	}

	return &profile.Record{
		DisplayName: user.FullName,
		Bio:         htmlutil.CleanText(user.Biography),
		Posts:       user.EdgeOwnerToTimelineMedia.value(),
		Followers:   user.EdgeFollowedBy.value(),
		Following:   user.EdgeFollow.value(),
		AvatarURL:   avatar,
		Source:      profile.SourceStructured,
	}, nil
}

func (c *Client) fetchMetadata(ctx context.Context, id profile.Identifier) *profile.Record {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, id.String(), http.NoBody)
	if err != nil {
		return profile.Failed(fmt.Sprintf("fetch error: %v", err))
	}
	req.Header.Set("User-Agent", webclient.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := webclient.Do(ctx, c.httpClient, req, c.limiter, c.logger)
	if err != nil {
		return profile.Failed(fmt.Sprintf("fetch error: %v", err))
	}
	if resp.StatusCode != http.StatusOK {
		return profile.Failed(fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	preview := htmlutil.LinkPreview(resp.Body)
	bio := htmlutil.CleanText(preview.Description)

	rec := &profile.Record{
		DisplayName: htmlutil.CleanText(preview.Title),
		Bio:         bio,
		AvatarURL:   preview.Image,
		RawMarkup:   string(resp.Body),
		Source:      profile.SourceMetadata,
	}
	if m := followersPattern.FindStringSubmatch(bio); len(m) > 1 {
		rec.Followers = profile.TextCount(m[1])
	}
	return rec
}

// structuredResponse covers both the legacy graphql shape and the
// web_profile_info data shape.
type structuredResponse struct {
	GraphQL struct {
		User *userInfo `json:"user"`
	} `json:"graphql"`
	Data struct {
		User *userInfo `json:"user"`
	} `json:"data"`
}

type userInfo struct {
	EdgeFollowedBy           *edgeCount `json:"edge_followed_by"`
	EdgeFollow               *edgeCount `json:"edge_follow"`
	EdgeOwnerToTimelineMedia *edgeCount `json:"edge_owner_to_timeline_media"`
	FullName                 string     `json:"full_name"`
	Biography                string     `json:"biography"`
	ProfilePicURL            string     `json:"profile_pic_url"`
	ProfilePicURLHD          string     `json:"profile_pic_url_hd"`
}

type edgeCount struct {
	Count *int64 `json:"count"`
}

func (e *edgeCount) value() profile.Count {
	if e == nil || e.Count == nil {
		return profile.Count{}
	}
	return profile.IntCount(*e.Count)
}
