package trainlive

import "encoding/json"

// Envelope wraps every dashboard message with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EpochPayload is one run's reported epoch/loss pair.
type EpochPayload struct {
	RunID string  `json:"run_id"`
	Epoch int     `json:"epoch"`
	Loss  float64 `json:"loss"`
}

// HistoryPayload replays a run's history to a newly connected client.
type HistoryPayload struct {
	RunID   string         `json:"run_id"`
	Entries []EpochPayload `json:"entries"`
}

// Message type constants.
const (
	TypeEpoch   = "epoch"
	TypeHistory = "history"
)

// NewEnvelope marshals payload and wraps it with msgType.
func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}
