package filter

import (
	"strings"

	"github.com/antchfx/htmlquery"

	"github.com/fusefeed/fusefeed/internal/feedmodel"
)

// evalRule applies a single Rule to an Entry. A rule whose operator is
// unrecognized, or whose evaluation errors or panics, returns false:
// unknown ops degrade to always-false, and a rule evaluation error simply
// evaluates to false so the chain continues.
func evalRule(r feedmodel.Rule, e *feedmodel.Entry) (matched bool) {
	defer func() {
		if recover() != nil {
			matched = false
		}
	}()

	switch r.Op {
	case feedmodel.RuleOpContains:
		return evalContains(r, e)
	case feedmodel.RuleOpXPath:
		return evalXPath(r, e)
	default:
		return false
	}
}

func evalContains(r feedmodel.Rule, e *feedmodel.Entry) bool {
	if r.Value == "" {
		return false
	}
	text, ok := e.Field(r.Field)
	if !ok || text == "" {
		return false
	}
	return strings.Contains(text, r.Value)
}

func evalXPath(r feedmodel.Rule, e *feedmodel.Entry) bool {
	if r.Value == "" {
		return false
	}
	text, ok := e.Field(r.Field)
	if !ok || text == "" {
		return false
	}
	doc, err := htmlquery.Parse(strings.NewReader(text))
	if err != nil {
		return false
	}
	nodes, err := htmlquery.QueryAll(doc, r.Value)
	if err != nil {
		return false
	}
	return len(nodes) > 0
}
