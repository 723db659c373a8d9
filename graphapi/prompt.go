package graphapi

// Prompt is the envelope that is enqueued to an instance of the engine.
type Prompt struct {
	ClientID string `json:"client_id"`
	Graph    Graph  `json:"prompt"`
}

// NewPrompt wraps a validated graph for submission.
func NewPrompt(clientID string, g Graph) *Prompt {
	return &Prompt{ClientID: clientID, Graph: g}
}
