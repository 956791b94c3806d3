package voice

import (
	"strings"

	"cinevoice/internal/domain"
)

type Mode string

const (
	ModeConfirmation Mode = "confirmation"
	ModeNavigation   Mode = "navigation"
)

// Context parameterises interpretation for one page. Rules overrides the
// default tables for Mode when set.
type Context struct {
	Name     string
	Mode     Mode
	Rules    []Rule
	Reprompt string
}

func ConfirmationContext(name, reprompt string) Context {
	return Context{Name: name, Mode: ModeConfirmation, Reprompt: reprompt}
}

func NavigationContext(name, reprompt string) Context {
	return Context{Name: name, Mode: ModeNavigation, Reprompt: reprompt}
}

func (c Context) rules() []Rule {
	if len(c.Rules) > 0 {
		return c.Rules
	}
	if c.Mode == ModeConfirmation {
		return confirmationRules
	}
	return navigationRules
}

// Interpret maps a transcription onto an intent. A phrase matches when it is
// contained in the normalized text. When no rule or more than one distinct
// intent matches, the result is Unrecognized.
func Interpret(text string, c Context) domain.Intent {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return domain.Unrecognized
	}

	var (
		found   domain.Intent
		matched bool
	)
	for _, rule := range c.rules() {
		if !rule.matches(normalized) {
			continue
		}
		if matched && rule.Intent != found {
			return domain.Unrecognized
		}
		found = rule.Intent
		matched = true
	}

	if !matched {
		return domain.Unrecognized
	}
	return found
}

func (r Rule) matches(text string) bool {
	for _, phrase := range r.Phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
