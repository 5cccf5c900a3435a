package connector

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Social platforms ship post data as JSON blobs inside script tags
// rather than server-rendered markup. The helpers here locate those
// blobs, decode them, and walk the resulting trees without assuming
// any particular nesting, since the schemas shift between deploys.

const maxWalkDepth = 64

// scanScripts returns the text of every script tag containing marker.
func scanScripts(html, marker string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var scripts []string
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if strings.Contains(text, marker) {
			scripts = append(scripts, text)
		}
	})
	return scripts
}

// extractJSON pulls the largest decodable JSON object or array out of a
// script body. Script payloads usually wrap the data in an assignment
// or a function call, so it tries every balanced brace span starting at
// each opening bracket and keeps the longest one that parses.
func extractJSON(script string) (any, bool) {
	var best any
	bestLen := 0

	for i := 0; i < len(script); i++ {
		open := script[i]
		if open != '{' && open != '[' {
			continue
		}

		end := balancedSpan(script, i)
		if end < 0 || end-i <= bestLen {
			continue
		}

		var decoded any
		if err := json.Unmarshal([]byte(script[i:end]), &decoded); err != nil {
			continue
		}
		best = decoded
		bestLen = end - i
		// Nothing later can start a longer span than a successful
		// parse that reaches this far.
		i = end - 1
	}

	return best, bestLen > 0
}

// balancedSpan returns the index just past the bracket matching the one
// at start, honoring string literals and escapes. Returns -1 when the
// span never closes.
func balancedSpan(s string, start int) int {
	open := s[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// walkJSON visits every map and slice node in decoded JSON, bailing out
// early when visit returns false. Depth is capped to defuse
// pathological nesting.
func walkJSON(node any, visit func(node any) bool) {
	walkJSONDepth(node, visit, 0)
}

func walkJSONDepth(node any, visit func(node any) bool, depth int) bool {
	if depth > maxWalkDepth {
		return true
	}
	if !visit(node) {
		return false
	}

	switch v := node.(type) {
	case map[string]any:
		for _, child := range v {
			if !walkJSONDepth(child, visit, depth+1) {
				return false
			}
		}
	case []any:
		for _, child := range v {
			if !walkJSONDepth(child, visit, depth+1) {
				return false
			}
		}
	}
	return true
}

// findEdgeNodes collects every node reachable under a key named
// edgeKey whose value is a list of {"node": {...}} wrappers. This is
// the GraphQL connection shape all three platforms use.
func findEdgeNodes(root any, edgeKey string) []map[string]any {
	var nodes []map[string]any

	walkJSON(root, func(node any) bool {
		obj, ok := node.(map[string]any)
		if !ok {
			return true
		}
		edges, ok := obj[edgeKey].([]any)
		if !ok {
			return true
		}
		for _, edge := range edges {
			wrapper, ok := edge.(map[string]any)
			if !ok {
				continue
			}
			if inner, ok := wrapper["node"].(map[string]any); ok {
				nodes = append(nodes, inner)
			}
		}
		return true
	})

	return nodes
}

// jsonString digs a string out of nested maps following path keys.
func jsonString(node any, path ...string) string {
	cur := node
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = obj[key]
	}
	s, _ := cur.(string)
	return s
}

func jsonNumber(node any, path ...string) (float64, bool) {
	cur := node
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return 0, false
		}
		cur = obj[key]
	}
	n, ok := cur.(float64)
	return n, ok
}

func jsonMap(node any, path ...string) map[string]any {
	cur := node
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[key]
	}
	m, _ := cur.(map[string]any)
	return m
}

func jsonSlice(node any, path ...string) []any {
	cur := node
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[key]
	}
	s, _ := cur.([]any)
	return s
}
