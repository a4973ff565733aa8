package tracker

import (
	"hash/fnv"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// trackingQueryParams are stripped by NormalizeURL; UTM and ad-click-id
// params carry no identity information about the listing itself.
var trackingQueryParams = map[string]bool{
	"utm_source": true, "utm_medium": true, "utm_campaign": true,
	"utm_term": true, "utm_content": true, "gclid": true, "fbclid": true,
	"ref": true, "src": true,
}

// NormalizeURL lowercases scheme+host, strips tracking query parameters,
// drops the trailing slash and fragment, per spec §4.5. Malformed input is
// returned as-is (best effort; callers still hash whatever comes back).
func NormalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			if trackingQueryParams[strings.ToLower(key)] {
				q.Del(key)
			}
		}
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		for i, k := range keys {
			for _, v := range q[k] {
				if b.Len() > 0 {
					b.WriteByte('&')
				}
				b.WriteString(url.QueryEscape(k))
				b.WriteByte('=')
				b.WriteString(url.QueryEscape(v))
			}
			_ = i
		}
		u.RawQuery = b.String()
	}

	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String()
}

// HashURL returns a stable 64-bit FNV-1a hash of the normalized URL,
// rendered as a hex string for storage as the url_hash key.
func HashURL(normalizedURL string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(normalizedURL))
	return strconv.FormatUint(h.Sum64(), 16)
}
