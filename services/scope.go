package services

import "strings"

// ParseScope splits a scope string on commas and whitespace. Empty
// elements are dropped.
func ParseScope(scope string) []string {
	return strings.FieldsFunc(scope, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}

// JoinScope joins scopes into the comma separated form used for storage.
func JoinScope(scopes []string) string {
	return strings.Join(scopes, ",")
}

// NormalizeScope rewrites a scope string into its stored form.
func NormalizeScope(scope string) string {
	return JoinScope(ParseScope(scope))
}

func containsAll(have, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, s := range have {
		set[s] = struct{}{}
	}

	for _, s := range want {
		if _, ok := set[s]; !ok {
			return false
		}
	}

	return true
}

// firstMissing returns the first element of want that is not in have.
func firstMissing(have, want []string) (string, bool) {
	set := make(map[string]struct{}, len(have))
	for _, s := range have {
		set[s] = struct{}{}
	}

	for _, s := range want {
		if _, ok := set[s]; !ok {
			return s, true
		}
	}

	return "", false
}
