package skills

import (
	"regexp"
	"sort"
	"strings"

	"github.com/trendscope/skilltrends/internal/models"
)

// Extractor scans free text for known skill tokens. Matching is
// case-insensitive and word-boundary delimited; multi-word tokens match as
// literal phrases. No stemming, no fuzzy matching: false negatives on
// unknown skills are acceptable, loose-match false positives are not.
type Extractor struct {
	lexicon  Lexicon
	patterns []*regexp.Regexp // one per lexicon token, compiled once
	scanIdx  []int            // token indices, longest token first
}

// NewExtractor compiles the matching patterns for the given lexicon.
func NewExtractor(lexicon Lexicon) *Extractor {
	patterns := make([]*regexp.Regexp, len(lexicon.Skills))
	scanIdx := make([]int, len(lexicon.Skills))
	for i, skill := range lexicon.Skills {
		patterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(skill) + `\b`)
		scanIdx[i] = i
	}
	// Longer tokens claim their text first, so "react.js" is not also
	// counted as "react". Ties keep lexicon order.
	sort.SliceStable(scanIdx, func(a, b int) bool {
		return len(lexicon.Skills[scanIdx[a]]) > len(lexicon.Skills[scanIdx[b]])
	})
	return &Extractor{lexicon: lexicon, patterns: patterns, scanIdx: scanIdx}
}

// NewDefaultExtractor builds an extractor over the built-in lexicon.
func NewDefaultExtractor() *Extractor {
	return NewExtractor(DefaultLexicon())
}

// Extract returns mention counts for the canonical skills found in text.
// Counts are tallied per lexicon token, then folded into one entry per
// alias-resolved name, so "React" and "react.js" in the same text surface
// as a single "react" mention with count 2. SkillName keeps the first
// lexicon token that matched for that canonical skill. Empty input yields
// an empty result, not an error.
func (e *Extractor) Extract(text string) []models.SkillMention {
	if text == "" {
		return nil
	}

	lower := strings.ToLower(text)
	claimed := make([]bool, len(lower))
	counts := make([]int, len(e.lexicon.Skills))

	for _, i := range e.scanIdx {
		for _, loc := range e.patterns[i].FindAllStringIndex(lower, -1) {
			if overlaps(claimed, loc[0], loc[1]) {
				continue
			}
			claim(claimed, loc[0], loc[1])
			counts[i]++
		}
	}

	var mentions []models.SkillMention
	byCanonical := make(map[string]int) // canonical name -> index into mentions

	for i, skill := range e.lexicon.Skills {
		if counts[i] == 0 {
			continue
		}
		canonical := e.lexicon.Normalize(skill)
		if at, ok := byCanonical[canonical]; ok {
			mentions[at].MentionCount += counts[i]
			continue
		}
		byCanonical[canonical] = len(mentions)
		mentions = append(mentions, models.SkillMention{
			SkillName:           skill,
			SkillNameNormalized: canonical,
			MentionCount:        counts[i],
		})
	}

	return mentions
}

func overlaps(claimed []bool, start, end int) bool {
	for i := start; i < end; i++ {
		if claimed[i] {
			return true
		}
	}
	return false
}

func claim(claimed []bool, start, end int) {
	for i := start; i < end; i++ {
		claimed[i] = true
	}
}
