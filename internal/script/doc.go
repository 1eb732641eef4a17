// Package script holds the script domain model: scene types stored on
// queue items, the tolerant parser for LLM script output, and the prompt
// builder used by script generation.
package script
