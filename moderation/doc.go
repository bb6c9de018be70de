// Multimodal content-safety engine for text, image, audio, and video payloads.
//
// This package (`github.com/Neil2813/Content-Room/moderation`) orchestrates a set of
// independent analysis providers (cloud classification APIs, local neural models,
// heuristic scanners, vision and language models) behind a uniform contract: every
// provider scores a payload on a 0-100 safety scale (higher is safer) and attaches
// content flags. Providers are combined either as a fallback chain (first usable
// answer wins) or as a concurrent ensemble (most conservative answer wins), and the
// merged assessment is mapped to an ALLOW / FLAG / ESCALATE routing decision.
// Results are cached by content fingerprint so repeated submissions of the same
// bytes skip provider calls entirely.
//
// See `cmd/warden` for an HTTP daemon built on this package.
package moderation
