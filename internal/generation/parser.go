// Package generation talks to the external content-generation service and
// coerces its loosely-structured responses into a strict result shape. The
// service returns prose that should contain a JSON object; extraction takes
// the first balanced {...} block (optionally inside a fenced code block) and
// decodes it field by field.
package generation

import (
	"encoding/json"
	"strings"

	apperrors "github.com/pagemesh/pagemesh/pkg/errors"
)

// GeneratedArticle is the strict result shape produced from a generation
// response. Missing optional fields default independently: empty strings,
// empty collections, zero confidence. Only a payload that cannot be located
// or decoded at all is a hard error.
type GeneratedArticle struct {
	Title           string   `json:"title"`
	HTML            string   `json:"html"`
	MetaDescription string   `json:"meta_description"`
	Tags            []string `json:"tags"`
	Confidence      float64  `json:"confidence"`
}

// ExtractPayload locates and decodes the JSON payload in a raw generation
// response. It fails loudly on a missing or unparsable payload — a partially
// valid object is never substituted.
func ExtractPayload(raw string) (*GeneratedArticle, error) {
	body := stripCodeFence(raw)
	block, ok := firstBalancedBlock(body)
	if !ok {
		return nil, apperrors.New(apperrors.ErrMalformedPayload, 400, "no balanced JSON object in response")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(block), &fields); err != nil {
		return nil, apperrors.Newf(apperrors.ErrMalformedPayload, 400, "decoding payload: %v", err)
	}

	// Each field is decoded independently so one wrongly-typed optional
	// field degrades to its default instead of failing the whole result.
	art := &GeneratedArticle{Tags: []string{}}
	art.Title = stringField(fields, "title")
	art.HTML = stringField(fields, "html")
	art.MetaDescription = stringField(fields, "meta_description")
	if rawTags, ok := fields["tags"]; ok {
		var tags []string
		if err := json.Unmarshal(rawTags, &tags); err == nil {
			art.Tags = tags
		}
	}
	if rawConf, ok := fields["confidence"]; ok {
		var conf float64
		if err := json.Unmarshal(rawConf, &conf); err == nil {
			art.Confidence = conf
		}
	}
	return art, nil
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// stripCodeFence removes a surrounding ``` fence (with optional language
// tag) if one is present, returning the inner content.
func stripCodeFence(raw string) string {
	start := strings.Index(raw, "```")
	if start == -1 {
		return raw
	}
	rest := raw[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		// Drop the language tag line (e.g. "json").
		if fenceTag := strings.TrimSpace(rest[:nl]); len(fenceTag) <= 10 && !strings.ContainsAny(fenceTag, "{}") {
			rest = rest[nl+1:]
		}
	}
	if end := strings.Index(rest, "```"); end != -1 {
		rest = rest[:end]
	}
	return rest
}

// firstBalancedBlock returns the first balanced {...} block in s, tracking
// string literals and escapes so braces inside JSON strings do not skew the
// depth count.
func firstBalancedBlock(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
