// Package referrers buckets raw referrer strings into traffic sources.
package referrers

import "strings"

// Traffic source categories. Google and Facebook are broken out of the
// generic buckets because they dominate most sites' acquisition mix.
const (
	SourceDirect   = "direct"
	SourceGoogle   = "google"
	SourceFacebook = "facebook"
	SourceSearch   = "search"
	SourceSocial   = "social"
	SourceReferral = "referral"
)

// rule matches a lowercase substring of the referrer to a source category.
type rule struct {
	match  string
	source string
}

// rules are evaluated in order and the first match wins. The named sources
// must come before the generic buckets so "google." is never swallowed by
// the search bucket. Matching is case-insensitive substring containment, so
// full URLs, bare hostnames and regional TLDs all classify the same way.
var rules = []rule{
	{"google.", SourceGoogle},
	{"facebook.", SourceFacebook},
	{"fb.com", SourceFacebook},

	{"bing.", SourceSearch},
	{"yahoo.", SourceSearch},
	{"duckduckgo.", SourceSearch},
	{"ecosia.", SourceSearch},
	{"yandex.", SourceSearch},
	{"baidu.", SourceSearch},

	{"instagram.", SourceSocial},
	{"twitter.", SourceSocial},
	{"x.com", SourceSocial},
	{"linkedin.", SourceSocial},
	{"tiktok.", SourceSocial},
	{"pinterest.", SourceSocial},
	{"reddit.", SourceSocial},
	{"threads.", SourceSocial},
	{"bsky.app", SourceSocial},
	{"mastodon.", SourceSocial},
	{"youtube.", SourceSocial},
	{"youtu.be", SourceSocial},
}

// Classify maps a referrer string to its traffic source category. An empty
// referrer is direct traffic; anything that matches no rule is a plain
// referral.
func Classify(referrer string) string {
	referrer = strings.ToLower(strings.TrimSpace(referrer))
	if referrer == "" {
		return SourceDirect
	}

	for _, r := range rules {
		if strings.Contains(referrer, r.match) {
			return r.source
		}
	}

	return SourceReferral
}
