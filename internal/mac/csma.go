package mac

// State enumerates the CSMA-CA / radio states of §4.4.
type State int

const (
	StateDisabled State = iota
	StateSleep
	StateIdle
	StateActiveScan
	StateEnergyScan
	StateTransmitCCA
	StateTransmitBackoff
	StateTransmitSending
	StateTransmitAckWait
	StateTransmitRetrying
	StateReceive
)

func (s State) String() string {
	switch s {
	case StateDisabled:
		return "Disabled"
	case StateSleep:
		return "Sleep"
	case StateIdle:
		return "Idle"
	case StateActiveScan:
		return "ActiveScan"
	case StateEnergyScan:
		return "EnergyScan"
	case StateTransmitCCA:
		return "Transmit.Cca"
	case StateTransmitBackoff:
		return "Transmit.Backoff"
	case StateTransmitSending:
		return "Transmit.Sending"
	case StateTransmitAckWait:
		return "Transmit.AckWait"
	case StateTransmitRetrying:
		return "Transmit.Retrying"
	case StateReceive:
		return "Receive"
	default:
		return "Unknown"
	}
}

// CSMA-CA timing constants (§4.4).
const (
	minBackoffExponent = 3
	maxBackoffExponent = 5
	maxCCABackoffs     = 4 // plus the initial attempt: 5 CCA attempts total
	maxFrameRetries    = 3
	// ackTurnaroundMs approximates 864us * aTurnaroundTime scaled to
	// whole milliseconds for the millisecond-granularity timer this
	// runtime exposes; real PHY timing is sub-millisecond and handled by
	// the radio driver's own ack-wait window where available.
	ackTurnaroundMs = 16
)

// backoffExponentFor returns the CSMA backoff exponent (BE) to use for the
// given zero-based backoff attempt number, clamped between
// minBackoffExponent and maxBackoffExponent per §4.4.
func backoffExponentFor(attempt int) int {
	be := minBackoffExponent + attempt
	if be > maxBackoffExponent {
		be = maxBackoffExponent
	}
	return be
}

// backoffUnits returns a pseudo-randomized number of backoff periods in
// [0, 2^BE - 1], using the supplied randomness source (the HAL's
// random_get in production).
func backoffUnits(be int, random func() uint32) uint32 {
	max := uint32(1)<<uint(be) - 1
	if max == 0 {
		return 0
	}
	return random() % (max + 1)
}
