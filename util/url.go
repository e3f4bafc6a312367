package util

import (
	"net/url"
	"strings"
)

const obscured = "XXXXXXXX"

// ObscurePassword replaces the password of a source URL so it can be logged
// or shown to users. Strings that aren't URLs with credentials are returned
// unchanged.
func ObscurePassword(source string) string {
	u, err := url.Parse(source)
	if err != nil || u.User == nil {
		// Passwords with reserved or badly escaped characters make the parse
		// fail or push the userinfo into the path or fragment.
		return obscureText(source)
	}
	if _, ok := u.User.Password(); !ok {
		return source
	}
	// url.UserPassword would escape the mask, so splice the userinfo in by hand.
	user := url.User(u.User.Username()).String()
	u.User = nil
	prefix := u.Scheme + "://"
	return prefix + user + ":" + obscured + "@" + strings.TrimPrefix(u.String(), prefix)
}

// obscureText masks everything between the first ':' after "://" and the
// last '@'.
func obscureText(source string) string {
	i := strings.Index(source, "://")
	if i < 0 {
		return source
	}
	prefix, rest := source[:i+3], source[i+3:]
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return source
	}
	colon := strings.Index(rest[:at], ":")
	if colon < 0 {
		return source
	}
	return prefix + rest[:colon+1] + obscured + rest[at:]
}
