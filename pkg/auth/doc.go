// Package auth provides the identity layer: signed credential tokens,
// password hashing, and the per-request authenticator that resolves a raw
// token into a fresh Principal.
//
// Token claims are treated as a hint only. The authenticator re-reads the
// user row on every request, so a role revoked after token issuance takes
// effect on the very next call. This is a deliberate freshness-over-
// performance tradeoff; do not cache principals.
package auth
