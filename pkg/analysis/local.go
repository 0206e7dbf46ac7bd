package analysis

import (
	"context"
	"strings"

	"github.com/codeGROOVE-dev/artcheck/pkg/profile"
)

const (
	maxBioRunes       = 300
	lowFollowerCutoff = 50
)

// Messages produced by the local heuristic.
const (
	MsgNoRecord         = "Could not extract the profile. Check the link or try again later."
	MsgLowFollowers     = "⚠️ Low follower count: be careful when checking authenticity."
	MsgEnoughFollowers  = "✅ Follower count looks acceptable."
	fetchErrorMsgPrefix = "Error while fetching the profile: "
)

// Local is the deterministic, offline analyzer.
type Local struct{}

// Analyze returns Summarize(rec). It never fails.
func (Local) Analyze(_ context.Context, rec *profile.Record, _ profile.Identifier) (string, error) {
	return Local{}.Summarize(rec), nil
}

// Summarize renders rec as four labeled lines plus a follower-count signal.
// It is total: every input, including nil, yields a non-empty string.
func (Local) Summarize(rec *profile.Record) string {
	if rec == nil {
		return MsgNoRecord
	}
	if rec.Failed() {
		return fetchErrorMsgPrefix + rec.FetchError
	}

	lines := []string{
		"Profile : " + orDefault(rec.DisplayName, "name not found"),
		"Bio (excerpt) : " + orDefault(truncateRunes(rec.Bio, maxBioRunes), "no public bio"),
		"Followers : " + orDefault(rec.Followers.String(), "unknown"),
		"Avatar : " + orDefault(rec.AvatarURL, "no avatar found"),
	}

	if n, ok := rec.Followers.Int(); ok {
		if n < lowFollowerCutoff {
			lines = append(lines, MsgLowFollowers)
		} else {
			lines = append(lines, MsgEnoughFollowers)
		}
	}
	return strings.Join(lines, "\n")
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
