package types

// ---- Common service state (retained) ----

type HALState struct {
	Level  string `json:"level"`  // e.g. "idle", "ready", "error", "stopped"
	Status string `json:"status"` // freeform short code
	Error  string `json:"error,omitempty"`
	TS     int64  `json:"ts_ms"`
}

// ---- Pin info (retained, one per configured table entry) ----

type PinInfo struct {
	SchemaVersion  int    `json:"schema_version"`
	Pin            int    `json:"pin"` // table index
	Port           string `json:"port"`
	Channel        uint8  `json:"channel"`
	Mode           string `json:"mode"`
	Direction      string `json:"direction"`
	Initial        string `json:"initial,omitempty"` // outputs only
	Pull           string `json:"pull,omitempty"`    // inputs only
	DirChangeable  bool   `json:"dir_changeable"`
	ModeChangeable bool   `json:"mode_changeable"`
}
