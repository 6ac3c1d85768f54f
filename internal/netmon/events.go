package netmon

// Reasons reported with a ChangeEvent. They are informational only; a
// consumer always re-queries connectivity after an event.
const (
	ReasonLink   = "link"
	ReasonAddr   = "addr"
	ReasonRoute  = "route"
	ReasonIfInfo = "ifinfo"
	ReasonPoll   = "poll"
)

// ChangeEvent signals that something about the host's network configuration
// changed. It carries no connectivity state.
type ChangeEvent struct {
	Reason string
}
