// Package resolver decides which of a user's cases a chat query is about.
package resolver

import (
	"context"
	"regexp"
	"strings"

	"medscribe-be/internal/repository/contract"
	"medscribe-be/internal/repository/specification"
)

type Strategy string

const (
	StrategyExplicit Strategy = "explicit"
	StrategyLatest   Strategy = "latest"
	StrategyAll      Strategy = "all"
	StrategyDefault  Strategy = "default"
)

type Result struct {
	CaseIDs  []string
	Strategy Strategy
}

type Resolver struct {
	cases     contract.CaseRepository
	recency   *regexp.Regexp
	aggregate *regexp.Regexp
}

func NewResolver(cases contract.CaseRepository, recencyTerms, aggregateTerms []string) *Resolver {
	return &Resolver{
		cases:     cases,
		recency:   termPattern(recencyTerms),
		aggregate: termPattern(aggregateTerms),
	}
}

// termPattern matches any term at a word start, case-insensitively, allowing
// a common inflection ("compared", "trends", "recently") before the word end.
func termPattern(terms []string) *regexp.Regexp {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(t)))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)` + inflection + `\b`)
}

const inflection = `(?:s|es|d|ed|ing|ly|er|est)?`

func matches(re *regexp.Regexp, s string) bool {
	return re != nil && re.MatchString(s)
}

// Resolve applies, in order: explicit id, recency terms, aggregate terms,
// then falls back to the most recent case. An empty list is not an error.
func (r *Resolver) Resolve(ctx context.Context, userId, query, explicitCaseId string) (*Result, error) {
	if explicitCaseId != "" {
		return &Result{CaseIDs: []string{explicitCaseId}, Strategy: StrategyExplicit}, nil
	}

	if matches(r.recency, query) {
		ids, err := r.latest(ctx, userId)
		return &Result{CaseIDs: ids, Strategy: StrategyLatest}, err
	}

	if matches(r.aggregate, query) {
		ids, err := r.all(ctx, userId)
		return &Result{CaseIDs: ids, Strategy: StrategyAll}, err
	}

	ids, err := r.latest(ctx, userId)
	return &Result{CaseIDs: ids, Strategy: StrategyDefault}, err
}

func (r *Resolver) latest(ctx context.Context, userId string) ([]string, error) {
	c, err := r.cases.FindOne(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.MostRecentlyUploaded{},
	)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return []string{}, nil
	}
	return []string{c.Id}, nil
}

func (r *Resolver) all(ctx context.Context, userId string) ([]string, error) {
	cases, err := r.cases.FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.MostRecentlyUploaded{},
	)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(cases))
	for _, c := range cases {
		ids = append(ids, c.Id)
	}
	return ids, nil
}
