package backend

// TextGenRequest is the body of a Hugging Face text-generation inference call
type TextGenRequest struct {
	Inputs     string            `json:"inputs"`
	Parameters TextGenParameters `json:"parameters"`
	Options    TextGenOptions    `json:"options"`
}

// TextGenParameters controls generation
type TextGenParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

// TextGenOptions controls the inference endpoint itself
type TextGenOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// TextGenResponse is the list of generations returned by the endpoint
type TextGenResponse []struct {
	GeneratedText string `json:"generated_text"`
}
