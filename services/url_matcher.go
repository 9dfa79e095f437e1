package services

import (
	"regexp"
	"strings"
)

// URLMatcher decides whether a query-stripped redirect URL is covered by a
// client's allow-list.
type URLMatcher interface {
	Match(allowList []string, candidate string) bool
}

// URLMatcherFunc adapts a function to URLMatcher.
type URLMatcherFunc func(allowList []string, candidate string) bool

func (f URLMatcherFunc) Match(allowList []string, candidate string) bool {
	return f(allowList, candidate)
}

// ExactMatcher accepts a URL equal to an allow-list entry.
type ExactMatcher struct{}

func (ExactMatcher) Match(allowList []string, candidate string) bool {
	for _, allowed := range allowList {
		if allowed == candidate {
			return true
		}
	}

	return false
}

// PrefixMatcher accepts a URL starting with an allow-list entry.
type PrefixMatcher struct{}

func (PrefixMatcher) Match(allowList []string, candidate string) bool {
	for _, allowed := range allowList {
		if allowed != "" && strings.HasPrefix(candidate, allowed) {
			return true
		}
	}

	return false
}

// WildcardMatcher treats '*' in allow-list entries as any run of characters
// other than '/'. Entries without '*' must match exactly.
type WildcardMatcher struct{}

func (WildcardMatcher) Match(allowList []string, candidate string) bool {
	for _, allowed := range allowList {
		if !strings.Contains(allowed, "*") {
			if allowed == candidate {
				return true
			}
			continue
		}
		if wildcardPattern(allowed).MatchString(candidate) {
			return true
		}
	}

	return false
}

func wildcardPattern(entry string) *regexp.Regexp {
	parts := strings.Split(entry, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}

	return regexp.MustCompile("^" + strings.Join(parts, "[^/]*") + "$")
}
