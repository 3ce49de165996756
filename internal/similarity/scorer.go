package similarity

import (
	"fmt"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Scorer measures how alike two normalized names are on a [0,1] scale.
// Implementations must be symmetric.
type Scorer interface {
	Name() string
	Score(a, b string) float64
}

const (
	// NameRatio selects the plain edit-distance ratio.
	NameRatio = "ratio"
	// NameTokenSort selects the token-order-invariant ratio.
	NameTokenSort = "token_sort"
)

// New returns the scorer registered under name. An empty name selects
// token_sort.
func New(name string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameTokenSort:
		return TokenSort{}, nil
	case NameRatio:
		return Ratio{}, nil
	default:
		return nil, fmt.Errorf("unknown similarity scorer %q (want %q or %q)", name, NameRatio, NameTokenSort)
	}
}

// Ratio compares the names character by character.
type Ratio struct{}

func (Ratio) Name() string { return NameRatio }

func (Ratio) Score(a, b string) float64 {
	if blank(a, b) {
		return 0
	}
	return percent(fuzzy.Ratio(a, b))
}

// TokenSort sorts whitespace-separated tokens before comparing, so
// "john smith" and "smith john" score 1.
type TokenSort struct{}

func (TokenSort) Name() string { return NameTokenSort }

func (TokenSort) Score(a, b string) float64 {
	if blank(a, b) {
		return 0
	}
	return percent(fuzzy.TokenSortRatio(a, b))
}

func blank(a, b string) bool {
	return strings.TrimSpace(a) == "" || strings.TrimSpace(b) == ""
}

// percent maps the library's 0..100 score onto [0,1].
func percent(score int) float64 {
	return min(max(float64(score)/100, 0), 1)
}
