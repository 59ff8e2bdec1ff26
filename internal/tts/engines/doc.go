// Package engines contains the speech synthesis backends: espeak-ng for
// offline use and Google text-to-speech, through its REST API or gtts-cli,
// for cloud use. Each engine implements tts.Engine.
package engines
