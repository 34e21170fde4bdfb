// Package streamurl signs the socket URL of a session so screens can attach
// without putting an API key in the query string.
package streamurl

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// SignURL returns the relative socket path of sessionID with expiry and
// HMAC-SHA256 signature over "{sessionID}:{expiresUnix}".
func SignURL(sessionID, secret string, ttl time.Duration) string {
	expires := time.Now().Add(ttl).Unix()
	sig := computeHMAC(sessionID, expires, secret)
	return fmt.Sprintf("/ws/sessions/%s?expires=%d&sig=%s", url.PathEscape(sessionID), expires, sig)
}

// Verify checks that the signature is valid and the URL has not expired.
func Verify(sessionID, expires, sig, secret string) bool {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return false
	}
	if time.Now().Unix() > exp {
		return false
	}
	expected := computeHMAC(sessionID, exp, secret)
	return hmac.Equal([]byte(sig), []byte(expected))
}

func computeHMAC(sessionID string, expires int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%s:%d", sessionID, expires)))
	return hex.EncodeToString(mac.Sum(nil))
}
