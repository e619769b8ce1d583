package domain

// LPREntryDTO carries a base64-encoded gate camera frame for vehicle entry.
type LPREntryDTO struct {
	ImageBase64 string `json:"image_base64" binding:"required"`
	LotID       int    `json:"lot_id" binding:"required"`
	EntryTime   string `json:"entry_time,omitempty"`
}

// LPRExitDTO carries a frame captured at the exit gate; the lot is resolved
// from the plate's open session.
type LPRExitDTO struct {
	ImageBase64 string `json:"image_base64" binding:"required"`
	ExitTime    string `json:"exit_time,omitempty"`
}

type LPRResultDTO struct {
	DetectedPlate string          `json:"detected_plate"`
	Confidence    float32         `json:"confidence,omitempty"`
	Session       *ParkingSession `json:"session,omitempty"`
}
