package audit

import (
	"regexp"
	"strings"
)

// RuleKind says which verdict a matching phrase contributes to.
type RuleKind int

// Rule kinds.
const (
	RuleParkedSale RuleKind = iota
	RuleParkedHosting
	RuleBroken
)

// PhraseRule is one (pattern, verdict-contribution) pair. Rules are matched
// as lower-cased substrings against the page title and body, in order, with
// the first hit short-circuiting.
type PhraseRule struct {
	Phrase string
	Kind   RuleKind
}

// RuleSet is a versioned, ordered collection of classification heuristics.
// Keeping it as data lets the phrase lists be unit-tested one by one and
// extended without touching the classifier control flow.
type RuleSet struct {
	Version        string
	Phrases        []PhraseRule
	BrokenPatterns []*regexp.Regexp
}

// DefaultRules returns the canonical rule set. Parked rules come first so
// the parked test always wins over the broken test on a shared match.
func DefaultRules() RuleSet {
	return RuleSet{
		Version: "2026-08",
		Phrases: []PhraseRule{
			// Domain marketplace and registrar placeholders.
			{Phrase: "domain for sale", Kind: RuleParkedSale},
			{Phrase: "this domain is for sale", Kind: RuleParkedSale},
			{Phrase: "buy this domain", Kind: RuleParkedSale},
			{Phrase: "domain is parked", Kind: RuleParkedSale},
			{Phrase: "parked domain", Kind: RuleParkedSale},
			{Phrase: "domain parking", Kind: RuleParkedSale},
			{Phrase: "sedo", Kind: RuleParkedSale},
			{Phrase: "godaddy", Kind: RuleParkedSale},
			{Phrase: "namecheap", Kind: RuleParkedSale},
			{Phrase: "afternic", Kind: RuleParkedSale},
			{Phrase: "hugedomains", Kind: RuleParkedSale},
			{Phrase: "dan.com", Kind: RuleParkedSale},
			{Phrase: "make an offer on this domain", Kind: RuleParkedSale},
			{Phrase: "renew this domain", Kind: RuleParkedSale},

			// Hosting provider default pages.
			{Phrase: "welcome to nginx", Kind: RuleParkedHosting},
			{Phrase: "it works!", Kind: RuleParkedHosting},
			{Phrase: "index of /", Kind: RuleParkedHosting},
			{Phrase: "apache2 ubuntu default page", Kind: RuleParkedHosting},
			{Phrase: "welcome to openresty", Kind: RuleParkedHosting},
			{Phrase: "default web site page", Kind: RuleParkedHosting},
			{Phrase: "web server is running", Kind: RuleParkedHosting},
			{Phrase: "website is ready. upload your content", Kind: RuleParkedHosting},
			{Phrase: "plesk default page", Kind: RuleParkedHosting},
			{Phrase: "cpanel, inc.", Kind: RuleParkedHosting},

			// Construction and error pages.
			{Phrase: "under construction", Kind: RuleBroken},
			{Phrase: "coming soon", Kind: RuleBroken},
			{Phrase: "internal server error", Kind: RuleBroken},
			{Phrase: "fatal error", Kind: RuleBroken},
			{Phrase: "service unavailable", Kind: RuleBroken},
			{Phrase: "database error", Kind: RuleBroken},
			{Phrase: "bad gateway", Kind: RuleBroken},
			{Phrase: "error establishing a database connection", Kind: RuleBroken},
			{Phrase: "this site can't be reached", Kind: RuleBroken},
		},
		BrokenPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\berror\s+\d{3}\b`),
			regexp.MustCompile(`(?i)\bserver\s+error\b`),
			regexp.MustCompile(`(?i)\bapplication\s+error\b`),
		},
	}
}

// MatchParked reports the first parked or hosting-default phrase found in
// title or body. Inputs are matched case-insensitively.
func (r RuleSet) MatchParked(title, body string) (string, bool) {
	return r.matchKind(title, body, func(k RuleKind) bool {
		return k == RuleParkedSale || k == RuleParkedHosting
	})
}

// MatchBroken reports the first construction/error phrase or pattern found
// in title or body.
func (r RuleSet) MatchBroken(title, body string) (string, bool) {
	if phrase, ok := r.matchKind(title, body, func(k RuleKind) bool { return k == RuleBroken }); ok {
		return phrase, true
	}
	for _, pattern := range r.BrokenPatterns {
		if m := pattern.FindString(body); m != "" {
			return m, true
		}
		if m := pattern.FindString(title); m != "" {
			return m, true
		}
	}
	return "", false
}

func (r RuleSet) matchKind(title, body string, want func(RuleKind) bool) (string, bool) {
	lowerTitle := strings.ToLower(title)
	lowerBody := strings.ToLower(body)
	for _, rule := range r.Phrases {
		if !want(rule.Kind) {
			continue
		}
		if strings.Contains(lowerTitle, rule.Phrase) || strings.Contains(lowerBody, rule.Phrase) {
			return rule.Phrase, true
		}
	}
	return "", false
}
