// Package voiceover turns scene narration into audio. Two providers are
// supported: the edge-tts CLI (free Microsoft Edge neural voices) and the
// OpenAI speech API with an on-disk cache. A Selector maps scene speakers
// to voices so named characters sound distinct from the narrator.
package voiceover
