package referrers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sitepulse/internal/pkg/referrers"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		referrer string
		expected string
	}{
		{name: "empty is direct", referrer: "", expected: referrers.SourceDirect},
		{name: "whitespace only is direct", referrer: "   ", expected: referrers.SourceDirect},

		{name: "google url", referrer: "https://www.google.com/search?q=x", expected: referrers.SourceGoogle},
		{name: "google regional tld", referrer: "https://google.co.uk/", expected: referrers.SourceGoogle},
		{name: "google uppercase", referrer: "HTTPS://WWW.GOOGLE.COM/", expected: referrers.SourceGoogle},

		{name: "facebook", referrer: "https://l.facebook.com/l.php", expected: referrers.SourceFacebook},
		{name: "fb short domain", referrer: "https://fb.com/page", expected: referrers.SourceFacebook},

		{name: "bing is search", referrer: "https://www.bing.com/search", expected: referrers.SourceSearch},
		{name: "duckduckgo is search", referrer: "https://duckduckgo.com/", expected: referrers.SourceSearch},
		{name: "yandex is search", referrer: "https://yandex.ru/", expected: referrers.SourceSearch},

		{name: "instagram is social", referrer: "https://www.instagram.com/p/abc", expected: referrers.SourceSocial},
		{name: "linkedin is social", referrer: "https://www.linkedin.com/feed/", expected: referrers.SourceSocial},
		{name: "tiktok is social", referrer: "https://www.tiktok.com/@user", expected: referrers.SourceSocial},
		{name: "youtube is social", referrer: "https://youtu.be/xyz", expected: referrers.SourceSocial},

		{name: "unknown site is referral", referrer: "https://example.org/blog", expected: referrers.SourceReferral},
		{name: "bare hostname is referral", referrer: "some-newsletter.net", expected: referrers.SourceReferral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, referrers.Classify(tt.referrer))
		})
	}
}

func TestClassifyGoogleBeatsSearchBucket(t *testing.T) {
	// The google rule must win even for referrers that would also match a
	// generic search rule by containing several hostnames.
	ref := "https://www.google.com/url?next=https://bing.com"
	assert.Equal(t, referrers.SourceGoogle, referrers.Classify(ref))
}
