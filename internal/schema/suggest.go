// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package schema

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// suggestion returns the candidate closest to given, or "" when nothing is
// within an edit distance of three.
func suggestion(given string, candidates []string, fold bool) string {
	if fold {
		given = strings.ToLower(given)
	}
	best, bestDist := "", 3
	for _, c := range candidates {
		cmp := c
		if fold {
			cmp = strings.ToLower(c)
		}
		if d := levenshtein.Distance(given, cmp, nil); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// SuggestKind returns the known block kind closest to name, or "".
func (s *Snapshot) SuggestKind(name string) string {
	return suggestion(name, s.kinds, false)
}

// SuggestParameter returns the parameter name closest to name, or "".
func (d *BlockDefinition) SuggestParameter(name string) string {
	names := make([]string, 0, len(d.Parameters))
	for _, p := range d.Parameters {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return suggestion(name, names, true)
}

// Match is a fuzzy search hit. Parameter is empty for block kind hits.
type Match struct {
	Kind      string
	Parameter string
	Distance  int
}

// Find fuzzy-searches block kinds and parameter names. Results are ordered
// from closest to farthest.
func (s *Snapshot) Find(term string) []Match {
	var targets []string
	var refs []Match
	for _, kind := range s.kinds {
		targets = append(targets, kind)
		refs = append(refs, Match{Kind: kind})
		def := s.blocks[kind]
		for _, p := range def.Parameters {
			targets = append(targets, p.Name)
			refs = append(refs, Match{Kind: kind, Parameter: p.Name})
		}
	}

	ranks := fuzzy.RankFindFold(term, targets)
	sort.Sort(ranks)
	out := make([]Match, 0, len(ranks))
	for _, r := range ranks {
		m := refs[r.OriginalIndex]
		m.Distance = r.Distance
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Parameter < out[j].Parameter
	})
	return out
}
