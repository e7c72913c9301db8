package backfill

import (
	"fmt"
	"regexp"
)

var repoURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^git@[\w.-]+:([\w.-]+/[\w.-]+?)(?:\.git)?$`),
	regexp.MustCompile(`^https?://[\w.-]+/([\w.-]+/[\w.-]+?)(?:\.git)?/?$`),
	regexp.MustCompile(`^ssh://git@[\w.-]+/([\w.-]+/[\w.-]+?)(?:\.git)?$`),
}

// ParseRepoURL extracts the org/name form from a clone URL.
func ParseRepoURL(url string) (string, error) {
	for _, pattern := range repoURLPatterns {
		if m := pattern.FindStringSubmatch(url); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("cannot determine org/repo from url %q", url)
}
