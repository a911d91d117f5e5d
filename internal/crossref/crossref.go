package crossref

import (
	"regexp"
	"slices"
	"strings"
)

// jiraKeyPattern matches JIRA issue keys (e.g., WFLY-123, JBEAP-1).
var jiraKeyPattern = regexp.MustCompile(`\b([A-Z][A-Z0-9]+-\d+)\b`)

// bugzillaPattern matches Bugzilla show_bug links and "BZ-1234",
// "BZ 1234" or "bz#1234" style mentions.
var bugzillaPattern = regexp.MustCompile(`(?i)(?:show_bug\.cgi\?id=|\bbz[-# ]?)(\d+)\b`)

// ExtractIssueIDs returns the Bugzilla bug numbers and JIRA keys
// mentioned in text, deduplicated and in order of first occurrence. The
// result can be passed to a tracker lookup as is.
func ExtractIssueIDs(text string) []string {
	type match struct {
		pos int
		id  string
	}
	var matches []match

	for _, loc := range bugzillaPattern.FindAllStringSubmatchIndex(text, -1) {
		matches = append(matches, match{pos: loc[0], id: text[loc[2]:loc[3]]})
	}
	for _, loc := range jiraKeyPattern.FindAllStringIndex(text, -1) {
		key := text[loc[0]:loc[1]]
		// BZ-1234 is a Bugzilla mention, already captured above.
		if strings.HasPrefix(key, "BZ-") {
			continue
		}
		matches = append(matches, match{pos: loc[0], id: key})
	}
	if len(matches) == 0 {
		return nil
	}

	slices.SortStableFunc(matches, func(a, b match) int { return a.pos - b.pos })

	seen := make(map[string]bool)
	var result []string
	for _, m := range matches {
		if seen[m.id] {
			continue
		}
		seen[m.id] = true
		result = append(result, m.id)
	}
	return result
}

// MatchPullRequest extracts issue identifiers from a pull request's
// branch name, title and description, in that order. If known is
// non-empty, only identifiers in that set are returned.
func MatchPullRequest(branch, title, description string, known map[string]bool) []string {
	combined := branch + "\n" + title + "\n" + description
	ids := ExtractIssueIDs(combined)

	if len(known) == 0 {
		return ids
	}

	var filtered []string
	for _, id := range ids {
		if known[id] {
			filtered = append(filtered, id)
		}
	}
	return filtered
}
