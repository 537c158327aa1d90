// Package auth implements the OpsHub authentication and authorization core.
//
// The package covers four concerns:
//
//  1. Password hashing: PBKDF2-HMAC-SHA256 credentials stored as a single
//     delimited string ("pbkdf2_sha256$<salt>$<hex hash>"). Verification
//     fails closed on anything it cannot parse.
//
//  2. Token service: stateless HMAC-SHA256 signed bearer tokens (JWT)
//     carrying the identity handle as subject plus a role claim. Tokens are
//     never persisted; their lifetime is bounded by the embedded expiry.
//
//  3. Authentication gate: Service.Resolve turns an inbound bearer token
//     into an active user record. The signature is checked before any
//     database access, and the active flag is re-checked on every request so
//     deactivation takes effect immediately.
//
//  4. Authorization gate: Service.Require tests role membership against the
//     fixed role set per endpoint. No hierarchy: admin does not implicitly
//     satisfy a viewer-only gate.
//
// Error taxonomy: ErrInvalidCredentials (login), ErrInvalidToken (signature,
// structure, expiry), ErrUnauthenticated (no usable identity), ErrForbidden
// (identity resolved, role not allowed). All four are terminal for the
// request; the package never retries.
package auth
