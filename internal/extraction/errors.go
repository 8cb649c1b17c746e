package extraction

import "fmt"

// LLMError reports a model provider that could not be built or called.
type LLMError struct {
	Provider string
	Err      error
}

func (e *LLMError) Error() string {
	return fmt.Sprintf("llm provider %s: %v", e.Provider, e.Err)
}

func (e *LLMError) Unwrap() error { return e.Err }

// ParsingError reports a model reply that could not be turned into an order.
type ParsingError struct {
	Err error
}

func (e *ParsingError) Error() string {
	return fmt.Sprintf("failed to parse email: %v", e.Err)
}

func (e *ParsingError) Unwrap() error { return e.Err }
