package models

// Passage is one retrieved text fragment. Search results come back ordered
// most-similar first.
type Passage struct {
	Content string
	Score   float64
}

// ComposedPrompt is the final text payload sent to the language model.
type ComposedPrompt struct {
	Tenant string
	Text   string
}
