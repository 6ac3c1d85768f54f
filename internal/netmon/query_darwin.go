//go:build darwin

package netmon

import (
	"net"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/route"
	"golang.org/x/sys/unix"
)

type darwinQuerier struct{}

// NewQuerier creates a macOS-specific querier. The active network is the
// interface carrying a default route in the kernel routing table.
//
// The routing table and interface flags carry no link-negotiation state, so
// this querier only reports connected interfaces: an interface that is up but
// not yet running with a usable address counts as unavailable, where Linux
// would report a dormant link as connecting.
func NewQuerier() Querier {
	return darwinQuerier{}
}

func (darwinQuerier) IsNetworkAvailable() bool {
	for _, family := range []int{unix.AF_INET, unix.AF_INET6} {
		index, ok := defaultRouteIndex(family)
		if !ok {
			continue
		}
		iface, err := net.InterfaceByIndex(index)
		if err != nil {
			log.WithError(err).WithField("index", index).Debug("Failed to get default route interface")
			continue
		}
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if iface.Flags&net.FlagRunning != 0 && hasUsableAddr(iface) {
			return true
		}
	}
	return false
}

func defaultRouteIndex(family int) (int, bool) {
	rib, err := route.FetchRIB(family, route.RIBTypeRoute, 0)
	if err != nil {
		log.WithError(err).Debug("Failed to fetch routing table")
		return 0, false
	}
	msgs, err := route.ParseRIB(route.RIBTypeRoute, rib)
	if err != nil {
		log.WithError(err).Debug("Failed to parse routing table")
		return 0, false
	}
	for _, m := range msgs {
		rm, ok := m.(*route.RouteMessage)
		if !ok || len(rm.Addrs) <= unix.RTAX_DST {
			continue
		}
		if isZeroAddr(rm.Addrs[unix.RTAX_DST]) && rm.Index != 0 {
			return rm.Index, true
		}
	}
	return 0, false
}

func isZeroAddr(a route.Addr) bool {
	switch t := a.(type) {
	case *route.Inet4Addr:
		return t.IP == [4]byte{}
	case *route.Inet6Addr:
		return t.IP == [16]byte{}
	default:
		return false
	}
}
