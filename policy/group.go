// Package policy resolves upstream operation names to per-group resilience
// policies, so call sites don't repeat TTLs and rate limits for every
// operation. Groups are built with a fluent builder and matched by exact
// name, prefix, or regex, with a fixed precedence among the three.
package policy

import (
	"regexp"
	"time"
)

// RateLimitRule describes a rate-limiting policy for a group of operations.
type RateLimitRule struct {
	// RequestsPerMinute is the sustained request budget for the group.
	RequestsPerMinute float64
	// Burst is the number of requests that may be issued back to back.
	Burst int
}

// Policy holds the configuration that applies to a matched operation group.
// Zero values mean "inherit the client default".
type Policy struct {
	// TTL is the cache TTL for read operations in the group.
	TTL time.Duration
	// StaleOnError opts the group into serving a stale cached value when the
	// upstream call fails.
	StaleOnError bool
	// RateLimit, when set, gives the group its own token bucket instead of
	// the client-wide one.
	RateLimit *RateLimitRule
}

// matchKind distinguishes the three matching strategies.
type matchKind int

const (
	kindExact  matchKind = iota // highest priority
	kindPrefix                  // medium priority
	kindRegex                   // lowest priority
)

// rule is a single matching rule inside a group.
type rule struct {
	kind    matchKind
	pattern string         // used for exact and prefix matches
	re      *regexp.Regexp // used for regex matches
}

// GroupBuilder constructs an operation group with one or more matching rules
// and a policy.
type GroupBuilder struct {
	name   string
	rules  []rule
	policy *Policy
}

// Group starts building a new operation group with the given name.
func Group(name string) *GroupBuilder {
	return &GroupBuilder{name: name}
}

// Exact adds an exact-match rule for pattern.
func (g *GroupBuilder) Exact(pattern string) *GroupBuilder {
	g.rules = append(g.rules, rule{kind: kindExact, pattern: pattern})
	return g
}

// Prefix adds a prefix-match rule for pattern.
func (g *GroupBuilder) Prefix(pattern string) *GroupBuilder {
	g.rules = append(g.rules, rule{kind: kindPrefix, pattern: pattern})
	return g
}

// Regex adds a regex-match rule for pattern.
// The pattern is compiled immediately; an invalid regex will panic.
func (g *GroupBuilder) Regex(pattern string) *GroupBuilder {
	g.rules = append(g.rules, rule{kind: kindRegex, pattern: pattern, re: regexp.MustCompile(pattern)})
	return g
}

// Policy attaches a Policy to the group and returns the finished builder.
func (g *GroupBuilder) Policy(p Policy) *GroupBuilder {
	g.policy = &p
	return g
}
