package domain

// GateCameraEvent is the message shape camera units publish to the gate
// event queue after on-device plate recognition. Timestamp is RFC3339Nano.
type GateCameraEvent struct {
	EventID    string  `json:"event_id"`
	Direction  string  `json:"direction"` // "entry" or "exit"
	LotID      int     `json:"lot_id"`    // required for entry events
	Plate      string  `json:"plate"`
	Confidence float32 `json:"confidence,omitempty"`
	Timestamp  string  `json:"timestamp"`
}
