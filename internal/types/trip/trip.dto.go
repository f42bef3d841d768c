package trip

type EstimateRequest struct {
	FromLocation  string `json:"from_location" validate:"required"`
	ToLocation    string `json:"to_location" validate:"required"`
	TransportMode string `json:"transport_mode" validate:"required,oneof=walking jogging cycling driving car"`
}

// SaveTripRequest carries a previously estimated trip back for saving.
// Distance is in km and capped at 500; nothing inside Münster's cycling
// range comes close.
type SaveTripRequest struct {
	FromLocation  string      `json:"from_location" validate:"required"`
	ToLocation    string      `json:"to_location" validate:"required"`
	From          Coordinates `json:"from"`
	To            Coordinates `json:"to"`
	TransportMode string      `json:"transport_mode" validate:"required,oneof=walking jogging cycling driving car"`
	Distance      float64     `json:"distance" validate:"lte=500"`
}

// Candidate is a completed trip ready to be propagated.
type Candidate struct {
	FromLocation string
	ToLocation   string
	From         Coordinates
	To           Coordinates
	Mode         TransportMode
	Distance     float64
}
