package workflow

import (
	"regexp"
	"strconv"
	"strings"
)

const similarityThreshold = 0.6

var numberPattern = regexp.MustCompile(`\d+`)

// ResolveSelection maps free-text user input onto one of the presented
// options. Tiers are tried in order and the first hit wins:
//
//  1. case-insensitive exact label match
//  2. numeric substrings in the input matched against option ids
//  3. purely numeric input matched as a 1-based menu position
//  4. closest label by similarity ratio above the threshold
//  5. substring containment in either direction
//
// The second return value is false when nothing matched; the caller must
// re-render the same step rather than advance.
func ResolveSelection(input string, options OptionSet) (Option, bool) {
	if options.IsEmpty() {
		return Option{}, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return Option{}, false
	}

	// 1. Exact label
	for _, o := range options {
		if strings.ToLower(o.Label) == normalized {
			return o, true
		}
	}

	// 2. Numeric substrings against ids ("fix pump 12", "#12")
	for _, numStr := range numberPattern.FindAllString(input, -1) {
		if id, err := strconv.ParseInt(numStr, 10, 64); err == nil {
			for _, o := range options {
				if o.Id == id {
					return o, true
				}
			}
		}
	}

	// 3. Purely numeric input as a 1-based menu position
	if pos, err := strconv.Atoi(normalized); err == nil {
		if pos >= 1 && pos <= len(options) {
			return options[pos-1], true
		}
	}

	// 4. Closest label by similarity
	best := -1
	bestScore := 0.0
	for i, o := range options {
		score := similarityRatio(normalized, strings.ToLower(o.Label))
		if score >= similarityThreshold && score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best >= 0 {
		return options[best], true
	}

	// 5. Substring containment either way
	for _, o := range options {
		label := strings.ToLower(o.Label)
		if strings.Contains(label, normalized) || strings.Contains(normalized, label) {
			return o, true
		}
	}

	return Option{}, false
}
