// Package signing signs Google Maps web-service URLs for premium (client id) accounts.
//
// The signature is HMAC-SHA1 over "<path>?<query>&client=<id>" keyed with the
// base64url-decoded signing key, appended as the last query parameter. A single
// changed byte in that segment invalidates the signature server-side, so the raw
// query is used verbatim and never re-encoded.
package signing

import (
	"crypto/hmac"
	"crypto/sha1"
	"fmt"
	"net/url"
	"strings"
)

// ClientIDPrefix starts every premium client id.
const ClientIDPrefix = "gme-"

// Credentials carry the key and optional client id of a request.
//
// With no ClientID the request is unsigned and Key, if any, is sent as the plain
// "key" API parameter. With a ClientID, Key is the private signing key.
type Credentials struct {
	Key      string `json:"-" yaml:"key"`
	ClientID string `json:"client_id,omitempty" yaml:"client_id"`
}

// Signed reports whether requests carrying these credentials get signed.
func (c Credentials) Signed() bool { return c.ClientID != "" }

// Check validates credentials that will be used for signing. A bad client id is
// reported before a bad key.
func (c Credentials) Check() error {
	if !c.Signed() {
		return nil
	}
	if !strings.HasPrefix(c.ClientID, ClientIDPrefix) {
		return ErrInvalidClientID
	}
	if strings.TrimSpace(c.Key) == "" {
		return ErrInvalidKey
	}
	return nil
}

// Sign returns base with client and signature parameters appended. Without a
// client id base is returned untouched. A nil base is always an error.
func Sign(base *url.URL, creds Credentials) (*url.URL, error) {
	if base == nil {
		return nil, ErrNilURI
	}
	if !creds.Signed() {
		return base, nil
	}
	if err := creds.Check(); err != nil {
		return nil, err
	}

	key, err := DecodeBase64URL(creds.Key)
	if err != nil {
		return nil, &Error{Reason: ReasonUndecodableKey, Message: ErrInvalidKey.Message, Err: err}
	}

	segment := SegmentToSign(base, creds.ClientID)
	signature := Signature(key, segment)

	// segment carries the unescaped path; the emitted URL keeps the escaped one.
	query := segment[len(base.Path)+1:]
	signed, err := url.Parse(base.Scheme + "://" + base.Host + base.EscapedPath() + "?" + query + "&signature=" + signature)
	if err != nil {
		return nil, fmt.Errorf("parse signed url: %w", err)
	}
	return signed, nil
}

// SegmentToSign is "<path>?<raw query>&client=<id>". An empty query yields
// "<path>?client=<id>".
func SegmentToSign(u *url.URL, clientID string) string {
	if u.RawQuery == "" {
		return u.Path + "?client=" + clientID
	}
	return u.Path + "?" + u.RawQuery + "&client=" + clientID
}

// Signature is the base64url HMAC-SHA1 of segment under key.
func Signature(key []byte, segment string) string {
	mac := hmac.New(sha1.New, key)
	mac.Write([]byte(segment))
	return EncodeBase64URL(mac.Sum(nil))
}

// Verify recomputes the signature of a signed URL and compares it in constant time.
func Verify(signed *url.URL, key string) (bool, error) {
	if signed == nil {
		return false, ErrNilURI
	}
	raw, err := DecodeBase64URL(key)
	if err != nil {
		return false, &Error{Reason: ReasonUndecodableKey, Message: ErrInvalidKey.Message, Err: err}
	}
	idx := strings.LastIndex(signed.RawQuery, "&signature=")
	if idx < 0 {
		return false, nil
	}
	segment := signed.Path + "?" + signed.RawQuery[:idx]
	got := signed.RawQuery[idx+len("&signature="):]
	return hmac.Equal([]byte(Signature(raw, segment)), []byte(got)), nil
}
