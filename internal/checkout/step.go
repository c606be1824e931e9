package checkout

// Step is one stage of the linear order-finalization flow. The upstream order
// state machine owns transitions; the gateway only mirrors them.
type Step string

const (
	StepAddress  Step = "address"
	StepDelivery Step = "delivery"
	StepPayment  Step = "payment"
	StepConfirm  Step = "confirm"
	StepComplete Step = "complete"
)

// ParseStep validates a server-echoed state tag against the closed step set.
// Unknown tags fall back instead of propagating into UI branching.
func ParseStep(raw string, fallback Step) Step {
	switch Step(raw) {
	case StepAddress, StepDelivery, StepPayment, StepConfirm, StepComplete:
		return Step(raw)
	default:
		return fallback
	}
}

// next returns the expected follow-on step, used as the fallback when the
// upstream reply omits or garbles its state field.
func (s Step) next() Step {
	switch s {
	case StepAddress:
		return StepDelivery
	case StepDelivery:
		return StepPayment
	case StepPayment:
		return StepConfirm
	default:
		return StepComplete
	}
}
