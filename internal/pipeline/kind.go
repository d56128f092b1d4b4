package pipeline

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind is a Filter node's predicate, tagged by Type with a string payload,
// matching the wire contract directly ("kind is itself tagged with a string
// payload") instead of a parallel Go interface hierarchy.
type Kind struct {
	Type  string `json:"type"`
	Value string `json:"value"`

	compiled *regexp.Regexp // set for Matches by compile; nil otherwise
}

const (
	KindContains    = "Contains"
	KindMatches     = "Matches"
	KindEquals      = "Equals"
	KindLessThan    = "LessThan"
	KindGreaterThan = "GreaterThan"
)

// compile validates k and, for Matches, compiles its regex once so Match
// doesn't recompile per entry. Called once at node construction.
func (k *Kind) compile() error {
	switch k.Type {
	case KindContains, KindEquals:
		return nil
	case KindMatches:
		re, err := regexp.Compile(k.Value)
		if err != nil {
			return &BuildError{Msg: "filter: invalid regex: " + err.Error()}
		}
		k.compiled = re
		return nil
	case KindLessThan, KindGreaterThan:
		if _, err := strconv.ParseFloat(k.Value, 64); err != nil {
			return &BuildError{Msg: "filter: " + k.Type + " requires a numeric value"}
		}
		return nil
	default:
		return &BuildError{Msg: "filter: unknown kind " + k.Type}
	}
}

// Match evaluates the predicate against a field's text value.
func (k *Kind) Match(text string) bool {
	switch k.Type {
	case KindContains:
		return strings.Contains(text, k.Value)
	case KindMatches:
		if k.compiled == nil {
			return false
		}
		return k.compiled.MatchString(text)
	case KindEquals:
		return text == k.Value
	case KindLessThan, KindGreaterThan:
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return false
		}
		want, _ := strconv.ParseFloat(k.Value, 64)
		if k.Type == KindLessThan {
			return n < want
		}
		return n > want
	default:
		return false
	}
}
