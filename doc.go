// Package speak is the Go client SDK for the Speak real-time
// sign-language/speech translation service. It owns the client side of the
// authentication session lifecycle and the presence channel that depends on
// it.
//
// Session lifecycle:
//   - SessionState is the single source of truth for the current token, the
//     decoded user, and the status of the last auth operation. It is an
//     explicitly owned object; inject it into the components that read it.
//   - The Orchestrator runs the three session-mutating operations (register,
//     login, update profile) against the remote AuthService, each through the
//     same Idle -> Pending -> Succeeded/Failed lifecycle, persisting tokens
//     through a TokenStore and decoding them with the Decoder.
//   - A token that fails structural decoding is purged from the store rather
//     than surfaced as a user error, so a corrupt token is never resident.
//
// Presence:
//   - PresenceController observes the authenticated state and keeps one
//     shared Channel open exactly while a valid session exists, announcing
//     the decoded user once connected. Connect and disconnect are idempotent
//     inside the controller, so observers may fire redundantly.
//
// Stores:
//   - FileTokenStore persists the token in a single file slot, surviving
//     process restarts. BunTokenStore offers the same contract on SQLite for
//     hosts that already carry a database.
package speak
