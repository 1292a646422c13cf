package driven

// PromptStore provides access to extractor prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptExtract asks the model for question/answer records.
	// Placeholders: %[1]s filename, %[2]s description, %[3]d max records,
	// %[4]s content preview.
	PromptExtract = "extract"
)
