package models

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// JobHash derives the dedup key for a job posting. It fingerprints only
// (title, company, location), so two fetches of the same logical job from
// different sources collide exactly when those three fields match. md5 is
// used as a fast content fingerprint, not for collision resistance.
func JobHash(title, company, location string) string {
	return fingerprint(title, company, location)
}

// PostHash derives the dedup key for a discussion post. An absent created
// time participates as the empty string, so two posts with identical title
// and subreddit but unknown times collide. Known limitation, kept on
// purpose.
func PostHash(title, subreddit, created string) string {
	return fingerprint(title, subreddit, created)
}

func fingerprint(parts ...string) string {
	trimmed := make([]string, len(parts))
	for i, p := range parts {
		trimmed[i] = strings.TrimSpace(strings.ToLower(p))
	}
	key := strings.Join(trimmed, "|")
	return fmt.Sprintf("%x", md5.Sum([]byte(key)))
}
