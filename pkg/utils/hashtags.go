package utils

import (
	"regexp"
	"sort"
	"strings"
)

var hashtagRe = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// ExtractHashtags pulls lowercase hashtags out of a caption in order of
// appearance.
func ExtractHashtags(text string) []string {
	matches := hashtagRe.FindAllStringSubmatch(text, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, strings.ToLower(m[1]))
	}
	return tags
}

// TopHashtags ranks hashtags across captions by frequency, highest first.
// Ties keep the order the tags were first seen in, so the ranking is stable
// across runs over the same input.
func TopHashtags(captions []string, limit int) []string {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0

	for _, caption := range captions {
		for _, tag := range ExtractHashtags(caption) {
			if _, ok := counts[tag]; !ok {
				firstSeen[tag] = order
				order++
			}
			counts[tag]++
		}
	}

	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}

	sort.SliceStable(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return firstSeen[tags[i]] < firstSeen[tags[j]]
	})

	if limit > 0 && len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}
