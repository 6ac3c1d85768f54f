package api

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Available bool   `json:"available"`
	State     string `json:"state"`
	Version   string `json:"version"`
}

// StateMessage is pushed to websocket clients of /ws/state.
type StateMessage struct {
	Session   string `json:"session"`
	Available bool   `json:"available"`
	State     string `json:"state"`
	Initial   bool   `json:"initial"`
}
