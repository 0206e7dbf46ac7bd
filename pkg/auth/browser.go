package auth

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all" // Import all browser cookie stores
	"github.com/browserutils/kooky/browser/firefox"
)

// BrowserSource reads Instagram cookies from local browser cookie stores.
// It is meant for the command-line tool run on a workstation, not the daemon.
type BrowserSource struct {
	logger *slog.Logger
}

// NewBrowserSource creates a new browser cookie source.
func NewBrowserSource(logger *slog.Logger) *BrowserSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserSource{logger: logger}
}

// Cookies returns the essential Instagram cookies found in browser stores.
func (s *BrowserSource) Cookies(ctx context.Context) (map[string]string, error) {
	s.logger.DebugContext(ctx, "reading browser cookies", "domain", Domain)

	// Zen Browser is Firefox-based and not auto-detected by kooky.
	if cookies := s.tryZenBrowser(ctx); len(cookies) > 0 {
		return cookies, nil
	}

	kookies, err := kooky.ReadCookies(ctx, kooky.Valid, kooky.DomainHasSuffix(Domain))
	if err != nil {
		s.logger.Debug("failed to read browser cookies", "error", err)
		return nil, nil //nolint:nilnil // failed browser read is not a fatal error
	}
	return s.essential(kookies), nil
}

func (s *BrowserSource) tryZenBrowser(ctx context.Context) map[string]string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	pattern := filepath.Join(home, "Library", "Application Support", "zen", "Profiles", "*", "cookies.sqlite")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil
	}

	for _, f := range matches {
		kookies, err := firefox.ReadCookies(ctx, f, kooky.Valid, kooky.DomainHasSuffix(Domain))
		if err != nil {
			s.logger.Debug("failed to read Zen Browser cookies", "profile", filepath.Base(filepath.Dir(f)), "error", err)
			continue
		}
		if cookies := s.essential(kookies); len(cookies) > 0 {
			return cookies
		}
	}
	return nil
}

func (s *BrowserSource) essential(kookies []*kooky.Cookie) map[string]string {
	all := make(map[string]string, len(kookies))
	for _, c := range kookies {
		all[c.Name] = c.Value
	}
	cookies := filterEssential(all)
	if len(cookies) == 0 {
		return nil
	}
	if _, ok := cookies["sessionid"]; !ok {
		s.logger.Info("browser cookies found without an Instagram session", "count", len(cookies))
	}
	return cookies
}
