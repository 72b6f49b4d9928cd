// Package extract pulls factual statements out of user messages, either
// with local pattern rules or by asking a language model with a rule
// fallback.
package extract

import (
	"regexp"
	"strings"

	"github.com/scrypster/recall/pkg/types"
)

type rulePattern struct {
	re       *regexp.Regexp
	category types.Category
}

// localPatterns match common first-person statements. Input is lowercased
// before matching, so the patterns only need lowercase forms.
var localPatterns = []rulePattern{
	// Food
	{regexp.MustCompile(`(?:i (?:like|love|enjoy|prefer|don't like|hate)) (.+?)(?:\.|$|!)`), types.CategoryFood},
	{regexp.MustCompile(`(?:i'm )?(?:allergic to) (.+?)(?:\.|$|,|!)`), types.CategoryPersonal},
	{regexp.MustCompile(`(?:my favorite (?:food|cuisine|dish) (?:is )?)(.+?)(?:\.|$|!)`), types.CategoryFood},
	{regexp.MustCompile(`(?:i (?:am |'m )?)(vegan|vegetarian|pescatarian)`), types.CategoryFood},
	// Travel
	{regexp.MustCompile(`(?:i(?:'m| am) (?:going to|traveling to|visiting)) (.+?)(?:\.|$|,|!)`), types.CategoryTravel},
	{regexp.MustCompile(`(?:i (?:live in|live at|am from)) (.+?)(?:\.|$|,|!)`), types.CategoryPersonal},
	{regexp.MustCompile(`(?:my (?:hometown|city) (?:is )?)(.+?)(?:\.|$|!)`), types.CategoryPersonal},
	{regexp.MustCompile(`(?:i (?:visited|went to|traveled to)) (.+?)(?:\.|$|,|!)`), types.CategoryTravel},
	// Personal
	{regexp.MustCompile(`(?:i (?:work as|am a|am an)) (.+?)(?:\.|$|,|!)`), types.CategoryPersonal},
	{regexp.MustCompile(`(?:my name is) (.+?)(?:\.|$|,|!)`), types.CategoryPersonal},
	{regexp.MustCompile(`(?:i have a (?:dog|cat|pet)) (.+?)(?:\.|$|,|!)`), types.CategoryPersonal},
	{regexp.MustCompile(`(?:i (?:like|love|enjoy) (?:to )?)(.+?)(?:\.|$|!|\?)`), types.CategoryMisc},
}

var sentenceSplit = regexp.MustCompile(`[.!?]`)

// ExtractWithRules runs the local patterns over a message and returns the
// extracted facts, deduplicated by content. When no pattern matches but the
// message reads like a factual statement, its first sentence is returned as
// a misc fact.
func ExtractWithRules(text string) []types.Fact {
	lower := strings.ToLower(strings.TrimSpace(text))

	var facts []types.Fact
	seen := make(map[string]bool)

	for _, p := range localPatterns {
		for _, m := range p.re.FindAllStringSubmatch(lower, -1) {
			content := strings.TrimSpace(m[1])
			if len(content) > 2 && !seen[content] {
				seen[content] = true
				facts = append(facts, types.Fact{Content: content, Category: p.category})
			}
		}
	}

	if len(facts) == 0 && looksFactual(lower) {
		first := strings.TrimSpace(sentenceSplit.Split(text, 2)[0])
		if len(first) > 5 && len(first) < 200 {
			facts = append(facts, types.Fact{Content: first, Category: types.CategoryMisc})
		}
	}

	return facts
}

// looksFactual distinguishes factual statements from questions and greetings.
func looksFactual(text string) bool {
	text = strings.TrimSpace(strings.ToLower(text))

	for _, q := range []string{"what", "how", "why", "when", "where", "who", "which", "?"} {
		if strings.HasPrefix(text, q) {
			return false
		}
	}
	for _, f := range []string{"i ", "my ", "i'm ", "i am ", "we ", "we're "} {
		if strings.HasPrefix(text, f) {
			return true
		}
	}
	return strings.Contains(text, " is ") || strings.Contains(text, " are ") || strings.Contains(text, " have ")
}
