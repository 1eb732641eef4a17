// Package llm provides a unified client for the text-generation backends
// used by script generation and metadata generation.
//
// Two providers are supported: a local Ollama server spoken to over its
// native HTTP API, and any OpenAI-compatible endpoint (OpenAI, Groq,
// OpenRouter) via the go-openai SDK behind a circuit breaker.
//
// Local models are sloppy JSON producers, so DecodeJSON applies a cleanup
// pipeline before giving up: code fences and <think> reasoning blocks are
// stripped, the largest decodable JSON object or array is extracted from
// surrounding prose, and a repair pass fixes trailing commas, single
// quotes, and raw control characters.
package llm
