package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fusefeed/fusefeed/internal/feedmodel"
)

func titledEntries(titles ...string) []feedmodel.Entry {
	entries := make([]feedmodel.Entry, len(titles))
	for i, t := range titles {
		entries[i] = feedmodel.Entry{GUID: t, Title: t}
	}
	return entries
}

func titles(entries []feedmodel.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Title
	}
	return out
}

func TestBlockOr_DropsAnyMatch(t *testing.T) {
	entries := titledEntries("cat", "dog", "catfish", "bird", "doghouse")

	f := feedmodel.Filter{
		Type: feedmodel.FilterTypeBlock,
		Mode: feedmodel.FilterModeOr,
		Rules: []feedmodel.Rule{
			{Op: feedmodel.RuleOpContains, Field: "title", Value: "cat"},
			{Op: feedmodel.RuleOpContains, Field: "title", Value: "dog"},
		},
	}

	result := Chain{f}.Apply(entries)
	assert.Equal(t, []string{"bird"}, titles(result))
}

func TestAllowAnd_KeepsOnlyAllRulesMatch(t *testing.T) {
	entry1 := feedmodel.Entry{GUID: "1", Summary: `<p>ok</p><span class="t">x</span>`}
	entry2 := feedmodel.Entry{GUID: "2", Summary: `<p>ok</p>`}

	f := feedmodel.Filter{
		Type: feedmodel.FilterTypeAllow,
		Mode: feedmodel.FilterModeAnd,
		Rules: []feedmodel.Rule{
			{Op: feedmodel.RuleOpXPath, Field: "summary", Value: "//p"},
			{Op: feedmodel.RuleOpXPath, Field: "summary", Value: `//span[@class='t']`},
		},
	}

	result := Chain{f}.Apply([]feedmodel.Entry{entry1, entry2})
	if assert.Len(t, result, 1) {
		assert.Equal(t, "1", result[0].GUID)
	}
}

func TestAllowOr_KeepsAnyRuleMatch(t *testing.T) {
	entries := titledEntries("golang news", "rust news", "other")
	f := feedmodel.Filter{
		Type: feedmodel.FilterTypeAllow,
		Mode: feedmodel.FilterModeOr,
		Rules: []feedmodel.Rule{
			{Op: feedmodel.RuleOpContains, Field: "title", Value: "golang"},
			{Op: feedmodel.RuleOpContains, Field: "title", Value: "rust"},
		},
	}
	result := Chain{f}.Apply(entries)
	assert.ElementsMatch(t, []string{"golang news", "rust news"}, titles(result))
}

func TestUnknownFilterType_IsIdentityPassthrough(t *testing.T) {
	entries := titledEntries("a", "b")
	f := feedmodel.Filter{Type: "mystery", Mode: feedmodel.FilterModeOr, Rules: []feedmodel.Rule{
		{Op: feedmodel.RuleOpContains, Field: "title", Value: "a"},
	}}
	result := Chain{f}.Apply(entries)
	assert.Equal(t, []string{"a", "b"}, titles(result))
}

func TestUnknownMode_YieldsEmptyResult(t *testing.T) {
	entries := titledEntries("a", "b")
	f := feedmodel.Filter{
		Type:  feedmodel.FilterTypeAllow,
		Mode:  "xor",
		Rules: []feedmodel.Rule{{Op: feedmodel.RuleOpContains, Field: "title", Value: "a"}},
	}
	result := Chain{f}.Apply(entries)
	assert.Empty(t, result)
}

func TestUnknownRuleOp_EvaluatesFalse(t *testing.T) {
	entries := titledEntries("a")
	f := feedmodel.Filter{
		Type:  feedmodel.FilterTypeAllow,
		Mode:  feedmodel.FilterModeOr,
		Rules: []feedmodel.Rule{{Op: "regex", Field: "title", Value: "a"}},
	}
	result := Chain{f}.Apply(entries)
	assert.Empty(t, result)
}

func TestChainAppliesSequentially(t *testing.T) {
	entries := titledEntries("golang", "golang-news", "rust")

	block := feedmodel.Filter{
		Type: feedmodel.FilterTypeBlock,
		Mode: feedmodel.FilterModeOr,
		Rules: []feedmodel.Rule{
			{Op: feedmodel.RuleOpContains, Field: "title", Value: "rust"},
		},
	}
	allow := feedmodel.Filter{
		Type: feedmodel.FilterTypeAllow,
		Mode: feedmodel.FilterModeOr,
		Rules: []feedmodel.Rule{
			{Op: feedmodel.RuleOpContains, Field: "title", Value: "news"},
		},
	}

	result := Chain{block, allow}.Apply(entries)
	assert.Equal(t, []string{"golang-news"}, titles(result))
}

func TestContains_CaseSensitive(t *testing.T) {
	entries := titledEntries("Golang")
	f := feedmodel.Filter{
		Type: feedmodel.FilterTypeAllow,
		Mode: feedmodel.FilterModeOr,
		Rules: []feedmodel.Rule{
			{Op: feedmodel.RuleOpContains, Field: "title", Value: "golang"},
		},
	}
	result := Chain{f}.Apply(entries)
	assert.Empty(t, result, "contains is case-sensitive")
}
