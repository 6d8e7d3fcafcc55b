package model

// Operator identifies who triggered a diagnostic action.  It is taken from
// the verified token claims and the request id of the HTTP call.
type Operator struct {
	ID        string `json:"operatorId"`
	Role      string `json:"role"`
	RequestID string `json:"requestId,omitempty"`
}

// System is used for actions that are not attributable to a person.
var System = Operator{ID: "system", Role: "SYSTEM"}
