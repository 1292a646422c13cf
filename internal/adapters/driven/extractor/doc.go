// Package extractor groups the driven.Extractor adapters.
//
// Adapters:
//   - ollama: Derives records with a local Ollama model
//   - basic: Deterministic records built from the content preview
//   - ratelimit: Token bucket decorator around any extractor
package extractor
