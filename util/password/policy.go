// Package password evaluates candidate passwords against complexity rules and
// scores their strength.
package password

import (
	"unicode/utf8"
)

// Rule identifies one complexity requirement.
type Rule string

const (
	RuleMinLength Rule = "min_length"
	RuleUppercase Rule = "uppercase"
	RuleLowercase Rule = "lowercase"
	RuleDigit     Rule = "digit"
	RuleSpecial   Rule = "special"
)

// Policy configures which rules apply.
type Policy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigit     bool
	RequireSpecial   bool
}

// DefaultPolicy requires 8 characters and every character class.
var DefaultPolicy = Policy{
	MinLength:        8,
	RequireUppercase: true,
	RequireLowercase: true,
	RequireDigit:     true,
	RequireSpecial:   true,
}

type classes struct {
	upper, lower, digit, special bool
}

func scan(pw string) classes {
	var c classes
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			c.upper = true
		case r >= 'a' && r <= 'z':
			c.lower = true
		case r >= '0' && r <= '9':
			c.digit = true
		default:
			c.special = true
		}
	}
	return c
}

// Validate reports every rule pw violates. ok is true iff violations is empty.
func (p Policy) Validate(pw string) (ok bool, violations []Rule) {
	c := scan(pw)
	if utf8.RuneCountInString(pw) < p.MinLength {
		violations = append(violations, RuleMinLength)
	}
	if p.RequireUppercase && !c.upper {
		violations = append(violations, RuleUppercase)
	}
	if p.RequireLowercase && !c.lower {
		violations = append(violations, RuleLowercase)
	}
	if p.RequireDigit && !c.digit {
		violations = append(violations, RuleDigit)
	}
	if p.RequireSpecial && !c.special {
		violations = append(violations, RuleSpecial)
	}
	return len(violations) == 0, violations
}

// Requirements lists the enabled rules in evaluation order.
func (p Policy) Requirements() []Rule {
	rules := []Rule{RuleMinLength}
	if p.RequireUppercase {
		rules = append(rules, RuleUppercase)
	}
	if p.RequireLowercase {
		rules = append(rules, RuleLowercase)
	}
	if p.RequireDigit {
		rules = append(rules, RuleDigit)
	}
	if p.RequireSpecial {
		rules = append(rules, RuleSpecial)
	}
	return rules
}

// Validate checks pw against DefaultPolicy.
func Validate(pw string) (bool, []Rule) {
	return DefaultPolicy.Validate(pw)
}

// Strength scores pw from 0 (very weak) to 4 (very strong).
func Strength(pw string) int {
	score := 0
	switch n := utf8.RuneCountInString(pw); {
	case n >= 12:
		score += 2
	case n >= 8:
		score++
	}
	c := scan(pw)
	for _, present := range []bool{c.upper, c.lower, c.digit, c.special} {
		if present {
			score++
		}
	}
	return min(4, score/2)
}
