// Request signing for the upstream mobile API.
//
// Every call carries an X-Client-Time / X-Client-Hash pair: the current UTC
// time at second precision and an MD5 keyed hash of that timestamp against a
// fixed shared secret. The upstream validates the pair together with the
// mobile client fingerprint headers, and rejects timestamps that drift more
// than a few minutes from its own clock, so the pair is regenerated on every
// request. The digest choice is the upstream protocol's, not ours;
// substituting a stronger hash breaks authentication silently.
package services

import (
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"time"
)

const (
	oauthClientID     = "MOBrBDS8blbauoSck0ZfDbtuzpyT"
	oauthClientSecret = "lsACyCD94FhDUtGTXi3QzcFE2uU1hqtDaKeqrdwj"
	clientHashSecret  = "28c1fdd170a5204386cb1313c7077b34f83e4aaf4aa829ce78c231e05b0bae2c"

	mobileUserAgent  = "PixivAndroidApp/5.0.166 (Android 10.0; Pixel C)"
	webviewUserAgent = "PixivAndroidApp/5.0.234 (Android 11; Pixel 5)"
	acceptLanguage   = "zh-CN"
)

// clientTime formats t as ISO-8601 UTC at second precision with the literal
// "+00:00" suffix the upstream expects (not "Z").
func clientTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05") + "+00:00"
}

// clientHash computes the signature token for a client timestamp string.
// Deterministic: the same timestamp always yields the same hash.
func clientHash(timestamp string) string {
	sum := md5.Sum([]byte(timestamp + clientHashSecret))
	return hex.EncodeToString(sum[:])
}

// signRequest attaches a freshly generated timestamp/signature pair to h.
func signRequest(h http.Header, now time.Time) {
	ts := clientTime(now)
	h.Set("X-Client-Time", ts)
	h.Set("X-Client-Hash", clientHash(ts))
}

// mobileHeaders populates h with the Android app fingerprint plus a signed
// timestamp pair. An empty accessToken omits the Authorization header.
func mobileHeaders(h http.Header, accessToken string, now time.Time) {
	signRequest(h, now)
	h.Set("User-Agent", mobileUserAgent)
	h.Set("App-OS", "Android")
	h.Set("App-OS-Version", "Android 10.0")
	h.Set("App-Version", "5.0.166")
	h.Set("Accept-Language", acceptLanguage)

	if accessToken != "" {
		h.Set("Authorization", "Bearer "+accessToken)
	}
}

// webviewHeaders populates h with the newer client fingerprint used by the
// embedded webview pages. The webview endpoint does not check the signed
// timestamp pair.
func webviewHeaders(h http.Header, accessToken string) {
	h.Set("User-Agent", webviewUserAgent)
	h.Set("App-OS", "android")
	h.Set("App-OS-Version", "11")
	h.Set("App-Version", "5.0.234")
	h.Set("Accept-Language", acceptLanguage)
	h.Set("Authorization", "Bearer "+accessToken)
}
