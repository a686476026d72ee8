// Package onboard provides the onboarding and risk-assessment core for a
// financial-planning client: a step-graph wizard with draft persistence,
// deterministic questionnaire scoring, an atomic registration orchestrator,
// and a session manager deciding post-auth routing.
//
// The package is designed for a single logical user per [Engine]: wizard and
// store operations are internally serialized, and at most one registration
// request is ever in flight per wizard session.
//
// # Architecture boundaries
//
// onboard is the public surface. It exposes [Engine], [Builder], [Config],
// [Wizard], and value types (Session, ValidationError, MetricsSnapshot, …).
// Pure scoring lives in the risk sub-package; Redis persistence lives in the
// draft and session sub-packages; the backend HTTP contract lives in the
// backend sub-package.
//
// # What this package must NOT do
//
//   - Expose Redis clients, raw HTTP responses, or encoding details in its
//     public API.
//   - Leave a draft in a state where the user believes they registered but
//     the backend has no record, or vice versa: registration either commits
//     atomically and clears the draft, or fails and leaves the draft intact.
//   - Apply a network response to a draft that was cleared or reset while the
//     request was in flight.
package onboard
