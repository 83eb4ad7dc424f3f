// Package oracle classifies candidate secrets by invoking an external
// verification command once per candidate. The oracle's internals are opaque;
// only the process exit status, a bounded stderr excerpt, and the produced
// artifact are observed.
package oracle

import "context"

// Status is the classification of a single oracle invocation.
type Status string

const (
	// StatusSuccess means the oracle accepted the candidate.
	StatusSuccess Status = "success"
	// StatusRejected means the oracle ran to completion and refused the
	// candidate.
	StatusRejected Status = "rejected"
	// StatusError means the invocation itself failed: timeout, missing
	// binary, or process-level failure. Treated like a rejection for
	// search continuation.
	StatusError Status = "error"
)

// Outcome is the result of testing one candidate. ArtifactPath is set only on
// success and names the decrypted output; the caller owns its disposal.
type Outcome struct {
	Status       Status `json:"status"`
	ArtifactPath string `json:"artifactPath,omitempty"`
	Diagnostic   string `json:"diagnostic,omitempty"`
}

// Accepted reports whether the candidate passed verification.
func (o Outcome) Accepted() bool { return o.Status == StatusSuccess }

// Oracle tests one candidate per call. Implementations must be safe for
// concurrent use; every call is an isolated invocation with no shared mutable
// state.
type Oracle interface {
	Try(ctx context.Context, candidate string) Outcome
}
