// Package config is the single entry point for Reelsmith settings.
//
// Load resolves the TOML file (explicit path or the XDG default), layers it
// over built-in defaults, expands tilde-prefixed paths, and fills provider
// API keys from the environment (OPENAI_API_KEY, GROQ_API_KEY,
// OPENROUTER_API_KEY) when the file leaves them blank. Validate rejects
// configurations the pipeline cannot run with: unknown providers, malformed
// schedule times, odd video dimensions, and the like.
//
// Downstream code should never read the TOML file or the environment
// directly; everything it needs arrives through Config with paths already
// absolute and values already checked.
package config
