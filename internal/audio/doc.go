// Package audio plays and saves synthesized speech. Playback goes through
// oto/v3 when cgo is available and through external players (aplay,
// mpg123) otherwise.
package audio
