// Package parse implements the robust-parsing strategy the Proposer and
// Evaluator both need for turning free-form LLM text into structured
// data: JSON first, falling back to line-oriented heuristics when the
// model didn't follow the requested format exactly.
package parse

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var ordinalPrefix = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)

// Thoughts parses a PROPOSE-style response into a list of candidate
// thoughts, truncated to at most k entries. It tries, in order:
//  1. a JSON array of strings
//  2. a JSON object with a "thoughts" array field
//  3. newline-split text with ordinal/bullet prefixes stripped
//
// Empty lines are discarded at every stage. A response that yields no
// usable thoughts returns an empty, non-nil slice — this is not an
// error; the Proposer treats it as "no children produced".
func Thoughts(raw string, k int) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	if list := tryJSONArray(raw); list != nil {
		return truncate(list, k)
	}
	if list := tryJSONThoughtsField(raw); list != nil {
		return truncate(list, k)
	}
	return truncate(splitLines(raw), k)
}

func tryJSONArray(raw string) []string {
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	return filterEmpty(list)
}

func tryJSONThoughtsField(raw string) []string {
	if !gjson.Valid(raw) {
		return nil
	}
	result := gjson.Get(raw, "thoughts")
	if !result.IsArray() {
		return nil
	}
	var list []string
	for _, item := range result.Array() {
		list = append(list, item.String())
	}
	return filterEmpty(list)
}

func splitLines(raw string) []string {
	lines := strings.Split(raw, "\n")
	var out []string
	for _, line := range lines {
		line = ordinalPrefix.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func filterEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func truncate(list []string, k int) []string {
	if list == nil {
		list = []string{}
	}
	if k > 0 && len(list) > k {
		return list[:k]
	}
	return list
}

// RawScores is the result of parsing a VALUE-style response.
type RawScores struct {
	Progress   float64
	Promise    float64
	Confidence float64
}

var numericField = regexp.MustCompile(`(?i)(progress|promise|confidence)\D{0,10}?(-?\d+(?:\.\d+)?)`)

// Scores parses a VALUE response requesting progress/promise/confidence
// numbers. It tries a JSON object first (via gjson, tolerant of
// surrounding prose or markdown fences), then falls back to scanning
// for "<label> ... <number>" occurrences anywhere in the text (the last
// number found for a label wins). ok is false unless all three fields
// are recovered; callers should treat that as a parse failure and
// substitute their own
// low-confidence defaults, per the evaluator's fallback policy.
func Scores(raw string) (RawScores, bool) {
	if js := extractJSONObject(raw); js != "" && gjson.Valid(js) {
		progress := gjson.Get(js, "progress")
		promise := gjson.Get(js, "promise")
		confidence := gjson.Get(js, "confidence")
		if progress.Exists() && promise.Exists() && confidence.Exists() {
			return RawScores{
				Progress:   progress.Float(),
				Promise:    promise.Float(),
				Confidence: confidence.Float(),
			}, true
		}
	}

	matches := numericField.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return RawScores{}, false
	}

	var scores RawScores
	found := make(map[string]bool, 3)
	for _, m := range matches {
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		label := strings.ToLower(m[1])
		switch label {
		case "progress":
			scores.Progress = v
		case "promise":
			scores.Promise = v
		case "confidence":
			scores.Confidence = v
		}
		found[label] = true
	}
	return scores, len(found) == 3
}

// extractJSONObject returns the substring of raw from its first '{' to
// its last '}', tolerating surrounding prose or a ```json fence, or ""
// if there is no such pair.
func extractJSONObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return raw[start : end+1]
}
