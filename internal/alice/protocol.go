package alice

// ProtocolVersion is echoed in every skill response
const ProtocolVersion = "1.0"

// Request is the webhook body sent by the voice platform
type Request struct {
	Session *RequestSession `json:"session"`
	Request *Utterance      `json:"request"`
	Version string          `json:"version,omitempty"`
}

// RequestSession identifies the dialog
type RequestSession struct {
	SessionID string `json:"session_id"`
	MessageID int    `json:"message_id"`
	SkillID   string `json:"skill_id,omitempty"`
	New       bool   `json:"new"`
}

// Utterance is what the user said
type Utterance struct {
	OriginalUtterance string `json:"original_utterance"`
	Command           string `json:"command,omitempty"`
	Type              string `json:"type,omitempty"`
}

// Response is the webhook reply
type Response struct {
	Response ResponseBody `json:"response"`
	Version  string       `json:"version"`
}

// ResponseBody carries the spoken text and whether the dialog ends
type ResponseBody struct {
	Text       string `json:"text"`
	EndSession bool   `json:"end_session"`
}

func reply(text string, endSession bool) Response {
	return Response{
		Response: ResponseBody{Text: text, EndSession: endSession},
		Version:  ProtocolVersion,
	}
}
