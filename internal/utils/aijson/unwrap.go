// Package aijson turns free-form model replies into JSON objects.
package aijson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrNoJSONObject = errors.New("no JSON object found in response")

// StripFences removes a surrounding ```json ... ``` or ``` ... ``` wrapper.
// Text without a leading fence is returned trimmed but otherwise untouched.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// language tag, e.g. ```json or ```JSON
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		if tag := strings.TrimSpace(s[:nl]); tag == "" || isLangTag(tag) {
			s = s[nl+1:]
		}
	} else if strings.HasPrefix(strings.ToLower(s), "json") {
		s = s[len("json"):]
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isLangTag(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// SliceObject returns the text between the first '{' and the last '}'.
func SliceObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end < start {
		return "", ErrNoJSONObject
	}
	return s[start : end+1], nil
}

// Unwrap strips fences, slices the outermost object and decodes it into a
// generic map so callers can validate field types themselves.
func Unwrap(raw string) (map[string]any, error) {
	body, err := SliceObject(StripFences(raw))
	if err != nil {
		return nil, err
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return nil, fmt.Errorf("decode model JSON: %w", err)
	}
	return obj, nil
}
