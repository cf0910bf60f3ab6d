package properties

import (
	"regexp"

	"gradledeps/internal/engine/parser"
	"gradledeps/internal/engine/scope"
)

// recognizer is one ext assignment form. Recognizers run in table order and
// each may overwrite keys set by an earlier one. When block is non-zero the
// submatch at that index is parsed as an ext block body and merged.
type recognizer struct {
	name  string
	re    *regexp.Regexp
	apply func(m []string, into scope.Scope)
	block int
}

var (
	extBlock   = regexp.MustCompile(`(?s)\b(?:ext|project\.ext)\s*\{\s*(.*?)\s*\}`)
	nestedPair = regexp.MustCompile(`["']?(\w+)["']?\s*:\s*["']?([^"',]+)["']?`)
)

func setPair(m []string, into scope.Scope) {
	into.Set(m[1], m[2])
}

func mergeNestedPairs(body string, into scope.Scope) {
	for _, m := range nestedPair.FindAllStringSubmatch(body, -1) {
		into.Set(m[1], m[2])
	}
}

var blockRecognizers = []recognizer{
	{
		name:  "quoted",
		re:    regexp.MustCompile(`["']?(\w+)["']?\s*[=:]\s*["']([^"']+)["']`),
		apply: setPair,
	},
	{
		name:  "literal",
		re:    regexp.MustCompile(`["']?(\w+)["']?\s*[=:]\s*([\w()]+)`),
		apply: setPair,
	},
	{
		name:  "nested",
		re:    regexp.MustCompile(`(?s)["']?(\w+)["']?\s*=\s*\[(.*)\]`),
		block: 2,
	},
}

var scriptRecognizers = []recognizer{
	{
		name:  "ext-single-line",
		re:    regexp.MustCompile(`ext\.(\w+)\s*=\s*["']([^"']+)["']`),
		apply: setPair,
	},
	{
		name: "ext-dictionary",
		re:   regexp.MustCompile(`(?s)ext\.(\w+)\s*=\s*\[(.*?)\]`),
		apply: func(m []string, into scope.Scope) {
			mergeNestedPairs(m[2], into)
		},
	},
	{
		name:  "ext-block",
		re:    extBlock,
		block: 1,
	},
	{
		// single-line assignments win over values set inside blocks
		name:  "ext-inline",
		re:    regexp.MustCompile(`ext\.(\w+)\s*=\s*["']([^"']+)["']`),
		apply: setPair,
	},
	{
		name: "dictionary",
		re:   regexp.MustCompile(`(?s)(\w+)\s*=\s*\[\s*(.*?)\s*\]`),
		apply: func(m []string, into scope.Scope) {
			mergeNestedPairs(m[2], into)
		},
	},
	{
		name:  "extra-index",
		re:    regexp.MustCompile(`extra\[\s*"(\w+)"\s*\]\s*=\s*"([^"]+)"`),
		apply: setPair,
	},
	{
		name:  "extra-set",
		re:    regexp.MustCompile(`extra\.set\(\s*"(\w+)"\s*,\s*"([^"]+)"\s*\)`),
		apply: setPair,
	},
	{
		name:  "extra-delegate",
		re:    regexp.MustCompile(`val\s+(\w+)\s+by\s+extra\s*[\(\{]\s*"([^"]+)"\s*[\)\}]`),
		apply: setPair,
	},
}

func run(recognizers []recognizer, content string, into scope.Scope) {
	for _, r := range recognizers {
		for _, m := range r.re.FindAllStringSubmatch(content, -1) {
			if r.block > 0 {
				into.Merge(ParseExtBlock(m[r.block]))
				continue
			}
			r.apply(m, into)
		}
	}
}

// ParseExtBlock parses the body of an ext { } block. Nested list and map
// literals are flattened: their inner pairs land directly in the result and
// the outer key is dropped.
func ParseExtBlock(body string) scope.Scope {
	ext := scope.New()
	run(blockRecognizers, parser.StripComments(body), ext)
	return ext
}

// ExtFromScript collects every ext form in comment-stripped script text.
func ExtFromScript(content string) scope.Scope {
	ext := scope.New()
	run(scriptRecognizers, content, ext)
	return ext
}

// RecognizerNames lists the ext forms in the order they are applied.
func RecognizerNames() []string {
	names := make([]string, 0, len(scriptRecognizers))
	for _, r := range scriptRecognizers {
		names = append(names, r.name)
	}
	return names
}
