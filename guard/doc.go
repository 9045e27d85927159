// Package guard decides what a protected route serves based on the session
// store's state and two static per-mount flags.
//
// # Branches
//
// Every request resolves to exactly one of five outcomes, evaluated in a
// fixed precedence by [Evaluate]:
//
//   - [BranchLoading] — the store is restoring or has a login in flight.
//   - [BranchPassThrough] — the mount does not require authentication.
//   - [BranchAuthorized] — an authenticated session exists.
//   - [BranchRedirect] — unauthenticated and the mount redirects away,
//     carrying the original path so the destination can send the user back.
//   - [BranchPrompt] — unauthenticated and the mount renders an in-place
//     authentication prompt instead of redirecting.
//
// [Middleware] adapts the decision to HTTP. The flags are read once per
// mount; the store state is re-read per request, so an inline login flips
// the very next evaluation to authorized.
//
// # Architecture boundaries
//
// This package translates store state into render/redirect decisions. It
// never mutates the store, never writes durable storage, and never decides
// why a mount requires authentication — that is caller configuration.
package guard
