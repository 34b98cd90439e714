package model

// ResponderUser is the decision value meaning control returns to the human.
const ResponderUser = "user"

// Decision is the sole output of one orchestrator invocation. It is
// ephemeral and never persisted. The decision call must return exactly this
// JSON shape and nothing else.
type Decision struct {
	Responder string `json:"responder"`
	Reason    string `json:"reason"`
}

// WaitsForUser reports whether the decision hands control back to the human.
func (d *Decision) WaitsForUser() bool {
	return d.Responder == ResponderUser
}
