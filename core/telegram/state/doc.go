// Package state keeps per-user conversation state for Telegram bots behind a
// small typed Store, with an in-process map backend and a Redis backend for
// deployments that run several bot replicas.
package state
