package qrresolve

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// How the scanned payload was decoded into a lookup code.
const (
	DecodedRaw     = "raw"
	DecodedPercent = "percent"
	DecodedBase64  = "base64"
	DecodedURL     = "url"
	DecodedJSON    = "json"
)

var base64Shape = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)

// Decode normalizes whatever a QR scanner hands us into a lookup code.
// Scanners produce anything from the bare code to a percent-encoded URL to a
// base64-wrapped JSON blob, so each layer is peeled in turn and the chain
// restarts on the inner payload. An undecodable input falls through as raw.
func Decode(raw string) (code, how string) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", DecodedRaw
	}

	if strings.Contains(s, "%") {
		if dec, err := url.QueryUnescape(s); err == nil && dec != s {
			code, _ := Decode(dec)
			return code, DecodedPercent
		}
	}

	// Plain codes can be base64-shaped too, so only accept a decode that
	// yields valid UTF-8 and actually changed the payload.
	if len(s) >= 8 && len(s)%4 == 0 && base64Shape.MatchString(s) {
		if dec, err := base64.StdEncoding.DecodeString(s); err == nil && utf8.Valid(dec) {
			inner := strings.TrimSpace(string(dec))
			if inner != "" && inner != s && isPrintable(inner) {
				code, _ := Decode(inner)
				return code, DecodedBase64
			}
		}
	}

	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		if code := fromURL(s); code != "" {
			return code, DecodedURL
		}
		return s, DecodedRaw
	}

	if strings.HasPrefix(s, "{") {
		if code := fromJSON(s); code != "" {
			return code, DecodedJSON
		}
	}

	return s, DecodedRaw
}

func fromURL(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	for _, param := range []string{"qr", "code", "tracking"} {
		if v := u.Query().Get(param); v != "" {
			return strings.TrimSpace(v)
		}
	}
	if path := strings.Trim(u.Path, "/"); path != "" {
		segs := strings.Split(path, "/")
		return strings.TrimSpace(segs[len(segs)-1])
	}
	return ""
}

// JSON payload keys checked in priority order.
var jsonKeys = []string{"qr_code", "qr", "code", "package_qr", "tracking", "order_number", "package_id"}

func fromJSON(s string) string {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return ""
	}
	for _, k := range jsonKeys {
		if v, ok := m[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func isPrintable(s string) bool {
	for _, r := range s {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
