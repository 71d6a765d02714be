package mle

// Mode is the MLE Mode TLV's single-byte bitfield (§9 open question,
// resolved from original_source/'s mle.hpp): bit 0 rx-on-when-idle, bit 1
// secure-data-requests, bit 2 full-function-device, bit 3 full-network-data.
type Mode uint8

const (
	ModeRxOnWhenIdle       Mode = 1 << 0
	ModeSecureDataRequests Mode = 1 << 1
	ModeFullFunctionDevice Mode = 1 << 2
	ModeFullNetworkData    Mode = 1 << 3
)

// RxOnWhenIdle reports whether the device keeps its radio on between
// transmissions (a router or a non-sleepy end device) rather than relying
// on indirect transmission and polling.
func (m Mode) RxOnWhenIdle() bool { return m&ModeRxOnWhenIdle != 0 }

// IsFullFunctionDevice reports whether the device can route for others
// and is therefore eligible for promotion to Router.
func (m Mode) IsFullFunctionDevice() bool { return m&ModeFullFunctionDevice != 0 }

// HasFullNetworkData reports whether the device keeps the complete
// Network Data rather than the stable subset only.
func (m Mode) HasFullNetworkData() bool { return m&ModeFullNetworkData != 0 }
