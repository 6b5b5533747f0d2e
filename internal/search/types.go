// Package search builds an in-memory bookmark index and answers substring
// queries against titles, URLs and transliterated titles, ranked by a fixed
// additive score.
package search

import (
	"fmt"

	"github.com/Aman-CERP/bmsearch/internal/bookmark"
)

// Result is one ranked match.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Browser string `json:"browser"`
	Profile string `json:"profile"`
	Score   int    `json:"score"`
}

// Weights are the score contributions of each matching field.
type Weights struct {
	Title    int `yaml:"title" json:"title"`
	URL      int `yaml:"url" json:"url"`
	Full     int `yaml:"full" json:"full"`
	Initials int `yaml:"initials" json:"initials"`
}

// DefaultWeights returns the standard ranking: a title hit always outranks a
// URL hit, which outranks either transliteration hit.
func DefaultWeights() Weights {
	return Weights{Title: 120, URL: 80, Full: 70, Initials: 60}
}

// Validate checks that all weights are positive and strictly ordered
// title > url > full > initials.
func (w Weights) Validate() error {
	if w.Title <= 0 || w.URL <= 0 || w.Full <= 0 || w.Initials <= 0 {
		return fmt.Errorf("weights must be positive: %+v", w)
	}
	if !(w.Title > w.URL && w.URL > w.Full && w.Full > w.Initials) {
		return fmt.Errorf("weights must satisfy title > url > full > initials: %+v", w)
	}
	return nil
}

// Options configures Build.
type Options struct {
	// Weights used for scoring. Zero value means DefaultWeights().
	Weights Weights

	// Transliterator produces the full and initials forms of each title.
	// Nil means Pinyin.
	Transliterator Transliterator
}

// entry is one record with its precomputed search keys.
type entry struct {
	record   bookmark.Record
	title    string
	url      string
	full     string
	initials string
}
