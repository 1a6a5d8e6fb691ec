package domain

import "strings"

// MatchesKeywords reports whether any keyword occurs in the comment text.
// Both sides are trimmed and lowercased, so "Info " matches "more INFO
// please". An empty keyword set never matches.
func MatchesKeywords(text string, keywords []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return false
	}
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		if strings.Contains(normalized, keyword) {
			return true
		}
	}
	return false
}

// SelectRule returns the first rule whose keywords match the comment text.
// Callers pass rules already filtered to active comment_on_post rules and
// ordered by creation time ascending, so the oldest rule wins ties.
func SelectRule(rules []AutomationRule, text string) (AutomationRule, bool) {
	for _, rule := range rules {
		if MatchesKeywords(text, rule.Keywords) {
			return rule, true
		}
	}
	return AutomationRule{}, false
}

// NormalizeKeywords trims entries and drops empties and duplicates while
// preserving order. Used by rule create/update validation.
func NormalizeKeywords(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, keyword := range in {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		lowered := strings.ToLower(keyword)
		if _, ok := seen[lowered]; ok {
			continue
		}
		seen[lowered] = struct{}{}
		out = append(out, keyword)
	}
	return out
}
