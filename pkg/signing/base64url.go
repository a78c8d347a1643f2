package signing

import (
	"encoding/base64"
	"strings"
)

var (
	toURLSafe   = strings.NewReplacer("+", "-", "/", "_")
	fromURLSafe = strings.NewReplacer("-", "+", "_", "/")
)

// EncodeBase64URL encodes data as standard padded base64 with '+' and '/'
// replaced by '-' and '_'.
func EncodeBase64URL(data []byte) string {
	return toURLSafe.Replace(base64.StdEncoding.EncodeToString(data))
}

// DecodeBase64URL reverses EncodeBase64URL. Keys handed out without '=' padding
// are accepted too.
func DecodeBase64URL(s string) ([]byte, error) {
	std := fromURLSafe.Replace(s)
	if len(std)%4 != 0 && !strings.Contains(std, "=") {
		return base64.RawStdEncoding.DecodeString(std)
	}
	return base64.StdEncoding.DecodeString(std)
}
