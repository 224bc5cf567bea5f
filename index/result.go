// Package index walks a project tree in the background and builds a path
// list and a symbol table the editing goroutine can query.
package index

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// FileIndexResult is one scan of a project tree.
type FileIndexResult struct {
	Root string
	// Paths are slash-separated and relative to Root.
	Paths      []string
	LowerPaths []string
	// Errors holds one line per entry that could not be read.
	Errors string
	// Err is set when the root itself could not be scanned.
	Err error
}

func (r *FileIndexResult) add(rel string) {
	r.Paths = append(r.Paths, rel)
	r.LowerPaths = append(r.LowerPaths, strings.ToLower(rel))
}

func (r *FileIndexResult) addError(format string, args ...any) {
	r.Errors += fmt.Sprintf(format, args...) + "\n"
}

type Match struct {
	Path    string
	Score   int
	Indexes []int // rune offsets of the matched query characters
}

// Find fuzzy matches query against the indexed paths, best first. A limit
// of zero or less returns every match.
func (r *FileIndexResult) Find(query string, limit int) []Match {
	query = strings.ToLower(query)
	if r == nil || query == "" {
		return nil
	}
	var out []Match
	for i, p := range r.Paths {
		if score, idxs := fuzzyScore(p, r.LowerPaths[i], query); score > 0 {
			out = append(out, Match{Path: p, Score: score, Indexes: idxs})
		}
	}
	slices.SortStableFunc(out, func(a, b Match) int { return b.Score - a.Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// fuzzyScore computes a fuzzy match score of path against a lowercase query.
// Returns 0 if no match. Higher is better.
func fuzzyScore(path, lowerPath, query string) (int, []int) {
	queryRunes := []rune(query)
	pathRunes := []rune(lowerPath)
	origRunes := []rune(path)
	if len(pathRunes) != len(origRunes) {
		pathRunes = []rune(path)
		for i, r := range pathRunes {
			pathRunes[i] = unicode.ToLower(r)
		}
	}

	if len(queryRunes) == 0 || len(queryRunes) > len(pathRunes) {
		return 0, nil
	}

	filenameStart := 0
	for i := len(origRunes) - 1; i >= 0; i-- {
		if origRunes[i] == '/' {
			filenameStart = i + 1
			break
		}
	}

	// Match all query chars in order.
	idxs := make([]int, 0, len(queryRunes))
	pi := 0
	for _, qr := range queryRunes {
		found := false
		for pi < len(pathRunes) {
			if pathRunes[pi] == qr {
				idxs = append(idxs, pi)
				pi++
				found = true
				break
			}
			pi++
		}
		if !found {
			return 0, nil
		}
	}

	score := 10

	// Consecutive matches
	for i := 1; i < len(idxs); i++ {
		if idxs[i] == idxs[i-1]+1 {
			score += 5
		}
	}

	// Segment boundaries (after /, _, -, .) and camelCase humps
	for _, idx := range idxs {
		if idx == 0 || idx == filenameStart {
			score += 10
			continue
		}
		prev := origRunes[idx-1]
		if prev == '/' || prev == '_' || prev == '-' || prev == '.' {
			score += 8
		}
		if unicode.IsLower(prev) && unicode.IsUpper(origRunes[idx]) {
			score += 6
		}
	}

	for _, idx := range idxs {
		if idx >= filenameStart {
			score += 3
		}
	}

	// Prefer less nested files.
	score -= strings.Count(path, "/")

	if strings.HasPrefix(string(pathRunes[filenameStart:]), query) {
		score += 20
	}

	return score, idxs
}
