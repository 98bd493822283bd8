// Package filter provides the include/exclude predicates used to select
// scanned units and to filter query results.
//
// A Filter is an ordered chain of include and exclude rules. Rules are
// regular expressions that must match the whole name. Evaluation walks the
// chain: an include rule can turn a rejected name into an accepted one, an
// exclude rule can turn an accepted name into a rejected one and ends the
// walk. A chain starting with an include rule rejects by default; one
// starting with an exclude rule accepts by default.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	ierrors "github.com/Aman-CERP/typeindex/internal/errors"
)

// Predicate reports whether a name is accepted. A nil Predicate accepts all.
type Predicate func(name string) bool

// Test evaluates p, treating nil as accept-all.
func (p Predicate) Test(name string) bool {
	return p == nil || p(name)
}

type rule struct {
	pattern string
	re      *regexp.Regexp
	include bool
}

// Filter is an ordered include/exclude chain.
type Filter struct {
	rules []rule
}

// New creates an empty filter, which accepts everything.
func New() *Filter {
	return &Filter{}
}

// Include appends a rule accepting names fully matched by the regex.
func (f *Filter) Include(pattern string) error {
	return f.add(pattern, true)
}

// Exclude appends a rule rejecting names fully matched by the regex.
func (f *Filter) Exclude(pattern string) error {
	return f.add(pattern, false)
}

// IncludePackage accepts names under the dotted package prefix.
func (f *Filter) IncludePackage(pkg string) {
	f.mustAdd(PackagePattern(pkg), true)
}

// ExcludePackage rejects names under the dotted package prefix.
func (f *Filter) ExcludePackage(pkg string) {
	f.mustAdd(PackagePattern(pkg), false)
}

// IncludeGlob accepts '/'-separated paths matched by a glob (*, ** and ?).
func (f *Filter) IncludeGlob(glob string) error {
	return f.add(GlobPattern(glob), true)
}

// ExcludeGlob rejects '/'-separated paths matched by a glob.
func (f *Filter) ExcludeGlob(glob string) error {
	return f.add(GlobPattern(glob), false)
}

// Len returns the number of rules.
func (f *Filter) Len() int {
	return len(f.rules)
}

// Match evaluates the chain against name.
func (f *Filter) Match(name string) bool {
	if len(f.rules) == 0 {
		return true
	}

	accept := !f.rules[0].include
	for _, r := range f.rules {
		if accept == r.include {
			continue
		}
		matched := r.re.MatchString(name)
		if r.include {
			accept = matched
		} else {
			accept = !matched
			if !accept {
				break
			}
		}
	}
	return accept
}

// Predicate returns f as a Predicate, or nil when f has no rules.
func (f *Filter) Predicate() Predicate {
	if f == nil || len(f.rules) == 0 {
		return nil
	}
	return f.Match
}

// String renders the chain as "+re, -re".
func (f *Filter) String() string {
	parts := make([]string, len(f.rules))
	for i, r := range f.rules {
		sign := "-"
		if r.include {
			sign = "+"
		}
		parts[i] = sign + r.pattern
	}
	return strings.Join(parts, ", ")
}

func (f *Filter) add(pattern string, include bool) error {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return ierrors.ValidationError(fmt.Sprintf("invalid filter pattern %q", pattern), err)
	}
	f.rules = append(f.rules, rule{pattern: pattern, re: re, include: include})
	return nil
}

func (f *Filter) mustAdd(pattern string, include bool) {
	if err := f.add(pattern, include); err != nil {
		panic(err)
	}
}

// PackagePattern returns the regex matching every name under a dotted
// package prefix, such as "com.acme" or "com.acme.".
func PackagePattern(pkg string) string {
	pkg = strings.TrimSuffix(pkg, ".")
	return regexp.QuoteMeta(pkg+".") + ".*"
}

// Build assembles a filter from include regexes, package prefixes and
// exclude regexes, in that order. The result accepts a name when it matches
// any include or package (or none are given) and no exclude.
func Build(include, packages, exclude []string) (*Filter, error) {
	f := New()
	for _, p := range include {
		if err := f.Include(p); err != nil {
			return nil, err
		}
	}
	for _, p := range packages {
		f.IncludePackage(p)
	}
	for _, p := range exclude {
		if err := f.Exclude(p); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Regex returns a predicate accepting names fully matched by pattern.
func Regex(pattern string) (Predicate, error) {
	f := New()
	if err := f.Include(pattern); err != nil {
		return nil, err
	}
	return f.Match, nil
}
