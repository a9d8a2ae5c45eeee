// Package identity implements the employer-user identity lifecycle:
// registration, credential verification, account lockout and unlock,
// password reset, email change, and account activation. Every flow is
// governed by short lived, single purpose security codes owned by the
// user aggregate.
//
// Command handlers:
//   - One handler per use case, each validates its message, loads the
//     aggregate through UserRepository, applies a state transition,
//     persists, and triggers at most one notification. Results travel
//     through OnResponse callbacks on the message.
//
// Security codes:
//   - A code moves Issued -> Valid -> Consumed or Expired. Codes of a
//     type are removed in bulk once the action they guard succeeds, an
//     expired code is ignored but not eagerly pruned. Handlers never
//     read a global clock, TTL math goes through an injected clock.
//
// Capabilities:
//   - CredentialHasher, CodeGenerator, NotificationSender and
//     EventPublisher are consumed, not implemented, by the handlers.
//     Default implementations (bcrypt hasher, crypto/rand generator,
//     bun backed repository) ship alongside.
package identity
