package netmon

import "net"

// Querier reads the current connectivity of the host.
//
// IsNetworkAvailable returns true when the active network is connected or
// in the process of connecting. It never fails: when the OS cannot be
// queried the answer is false.
type Querier interface {
	IsNetworkAvailable() bool
}

// QueryFunc adapts a plain function to the Querier interface.
type QueryFunc func() bool

func (f QueryFunc) IsNetworkAvailable() bool {
	return f()
}

// usableIP reports whether ip can carry traffic beyond the local link.
func usableIP(ip net.IP) bool {
	if ip == nil || ip.IsLoopback() || ip.IsUnspecified() {
		return false
	}
	if ip.To4() != nil {
		return true
	}
	return !ip.IsLinkLocalUnicast()
}
