package domain

import "regexp"

// usernamePattern mirrors GitHub's account-name rules: 1-39 alphanumerics or
// hyphens, no leading or trailing hyphen.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,37}[A-Za-z0-9])?$`)

// ValidUsername reports whether raw is a well-formed GitHub username. It is a
// pure predicate over the already-trimmed input; callers strip surrounding
// whitespace first. This gate runs before any remote call, so malformed input
// never consumes rate-limit budget or produces a misleading "not found".
func ValidUsername(raw string) bool {
	return usernamePattern.MatchString(raw)
}
