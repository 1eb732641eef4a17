// Package textutil provides text processing utilities for tokenization,
// similarity, and filename sanitization.
//
// The primary use cases are:
//   - Tokenizing titles for word-overlap comparison
//   - Computing Jaccard similarity between strings (topic deduplication)
//   - Sanitizing filenames and path segments for safe filesystem use
//
// The tokenization process lowercases text, splits on non-alphanumeric
// characters, and filters tokens shorter than 3 characters.
package textutil
