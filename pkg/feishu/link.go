package feishu

import (
	"net/url"
	"regexp"
	"strings"
)

// Links are often followed directly by Chinese text or full-width
// punctuation, so the URL body is printable ASCII only.
var bitableURLPattern = regexp.MustCompile(`https?://[\x21-\x7E]+?/base/[A-Za-z0-9]+[\x21-\x7E]*`)

var tableIDPattern = regexp.MustCompile(`^[A-Za-z0-9]+`)

// BitableLink is a parsed Bitable URL.
type BitableLink struct {
	AppToken string
	// TableID is empty when the link points at the whole app.
	TableID string
}

// ParseBitableLink finds the first Bitable URL (…/base/<appToken>?table=<tableId>) in text.
func ParseBitableLink(text string) (BitableLink, bool) {
	raw := bitableURLPattern.FindString(text)
	if raw == "" {
		return BitableLink{}, false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return BitableLink{}, false
	}

	_, rest, found := strings.Cut(u.Path, "/base/")
	if !found {
		return BitableLink{}, false
	}
	appToken, _, _ := strings.Cut(rest, "/")
	if appToken == "" {
		return BitableLink{}, false
	}

	tableID := tableIDPattern.FindString(u.Query().Get("table"))
	return BitableLink{AppToken: appToken, TableID: tableID}, true
}
