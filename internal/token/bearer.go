package token

import "strings"

// BearerPrefix is the Authorization scheme prefix, including the separator
const BearerPrefix = "Bearer "

// ParseBearer extracts the raw token from an Authorization header value.
// The scheme must be exactly "Bearer" followed by a single space and a
// non-empty credential without further whitespace.
func ParseBearer(header string) (string, error) {
	if header == "" {
		return "", &MalformedHeaderError{Reason: "header is empty"}
	}
	if len(header) <= len(BearerPrefix) || !strings.HasPrefix(header, BearerPrefix) {
		return "", &MalformedHeaderError{Reason: "expected \"Bearer <token>\""}
	}

	raw := header[len(BearerPrefix):]
	if strings.ContainsAny(raw, " \t\r\n") {
		return "", &MalformedHeaderError{Reason: "credential contains whitespace"}
	}
	return raw, nil
}

// FormatBearer prefixes raw with the bearer scheme
func FormatBearer(raw string) string {
	return BearerPrefix + raw
}
