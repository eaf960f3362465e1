// Package dataset loads the weakly-labeled relevance dataset that drives
// training and evaluation.
//
// The on-disk format is a markdown-style document: each "## query" heading
// opens a record, and each fenced code block under it is one passage the
// dataset declares relevant to that query. The fence info string may carry a
// language and filename ("```go internal/auth/session.go"); both are
// best-effort and never fail the record.
//
// Everything downstream treats the parsed Dataset as read-only.
package dataset
