// Package file stores corpuswatch settings and prompt templates under the
// user's configuration directory.
//
// ConfigStore keeps settings in config.toml, with CORPUSWATCH_* environment
// variables taking precedence. PromptStore serves the extraction prompt
// from editable text files seeded with built-in defaults.
package file
