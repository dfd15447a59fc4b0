package dto

// GenerateRequest is backend neutral; both the Vertex and the Gemini adapters accept it.
type GenerateRequest struct {
	Model           string
	System          string
	Prompt          string
	Temperature     *float32
	MaxOutputTokens *int32
}

type GenerateResponse struct {
	Text string
	Raw  any
}
