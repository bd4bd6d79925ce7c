package audit

import (
	"net/url"
	"strings"
)

// Normalize turns a raw input string into a well-formed, schemed URL.
// It trims surrounding whitespace and stray slashes and prefixes "http://"
// when no scheme is present. Syntax beyond the scheme is not validated;
// unresolvable hosts surface later as navigation errors.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "/")
	if s == "" {
		return "", ErrEmptyInput
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "http://" + s
	}
	return s, nil
}

// dedupeKey folds the scheme and host to lower case so casing variants of
// the same host collapse. Path case is preserved; scheme differences are
// kept distinct. Trailing slashes were already trimmed by Normalize.
func dedupeKey(normalized string) string {
	u, err := url.Parse(normalized)
	if err != nil || u.Host == "" {
		return strings.ToLower(normalized)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String()
}

// PrepareTargets normalizes raw inputs, silently dropping duplicates while
// preserving first-seen order. Invalid (empty) entries are skipped and
// reported back so the caller can log them.
func PrepareTargets(raws []string) (targets []Target, skipped []string) {
	seen := make(map[string]struct{}, len(raws))
	for _, raw := range raws {
		normalized, err := Normalize(raw)
		if err != nil {
			skipped = append(skipped, raw)
			continue
		}
		key := dedupeKey(normalized)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		targets = append(targets, Target{URL: normalized, Index: len(targets)})
	}
	return targets, skipped
}
