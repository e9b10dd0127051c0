package enrich

import (
	"context"

	"github.com/osgraph/osgraph/internal/graph"
	"github.com/osgraph/osgraph/internal/logger"
)

// Result holds everything found for one identifier. Lookup failures are
// recorded inline so one dead service never hides the rest of the report.
type Result struct {
	Identifier string   `json:"identifier"`
	Breaches   []Breach `json:"breaches,omitempty"`
	Accounts   []Hit    `json:"accounts,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

// Report aggregates enrichment across all of a person's identifiers.
type Report struct {
	Emails    []Result `json:"emails,omitempty"`
	Usernames []Result `json:"usernames,omitempty"`
}

// Runner wires the enrichment clients together.
type Runner struct {
	Breach    *BreachClient
	Usernames Enumerator
	Emails    Enumerator
}

// Run enriches every identifier sequentially. The breach service's pacing
// dominates the runtime, so there is nothing to gain from fanning out.
func (r *Runner) Run(ctx context.Context, ids graph.Identifiers) *Report {
	report := &Report{}

	for _, email := range ids.Emails {
		res := Result{Identifier: email}
		if r.Breach != nil && r.Breach.Configured() {
			if breaches, err := r.Breach.Lookup(ctx, email); err != nil {
				res.Errors = append(res.Errors, err.Error())
				logger.Warn("breach lookup failed", "email", email, "err", err)
			} else {
				res.Breaches = breaches
			}
		}
		if r.Emails != nil {
			if hits, err := r.Emails.Enumerate(ctx, email); err != nil {
				res.Errors = append(res.Errors, err.Error())
				logger.Warn("email enumeration failed", "email", email, "err", err)
			} else {
				res.Accounts = hits
			}
		}
		report.Emails = append(report.Emails, res)
	}

	for _, username := range ids.Usernames {
		res := Result{Identifier: username}
		if r.Usernames != nil {
			if hits, err := r.Usernames.Enumerate(ctx, username); err != nil {
				res.Errors = append(res.Errors, err.Error())
				logger.Warn("username enumeration failed", "username", username, "err", err)
			} else {
				res.Accounts = hits
			}
		}
		report.Usernames = append(report.Usernames, res)
	}

	return report
}
