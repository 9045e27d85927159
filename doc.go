// Package sessiongate provides the RepeatHarmony client session core: a
// single process-wide session store with durable restore-on-boot, and the
// route-guard policy that gates protected views on its state.
//
// The package is designed for concurrent consumers: Store methods are safe
// to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// sessiongate is the public surface. It exposes [Store], [Builder],
// [Config], and value types (Session, LoginResult, MetricsSnapshot). Durable
// persistence lives in the storage subpackage behind [storage.Backend];
// guard evaluation lives in the guard subpackage; token issuance in token.
//
// # What this package must NOT do
//
//   - Render UI or write HTTP responses (the guard subpackage adapts HTTP).
//   - Validate credential format or uniqueness (caller concern; email is an
//     opaque key here).
//   - Retry corrupt durable records. A record that fails to decode is
//     purged and treated as "no session".
package sessiongate
