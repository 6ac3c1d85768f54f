//go:build !linux

package netmon

import (
	"net"

	log "github.com/sirupsen/logrus"
)

// interfaceQuerier treats any up, non-loopback interface with a routable
// address as the active network.
type interfaceQuerier struct {
	interfaces func() ([]net.Interface, error)
}

func newInterfaceQuerier() Querier {
	return &interfaceQuerier{interfaces: net.Interfaces}
}

func (q *interfaceQuerier) IsNetworkAvailable() bool {
	ifaces, err := q.interfaces()
	if err != nil {
		log.WithError(err).Debug("Failed to list interfaces")
		return false
	}
	for i := range ifaces {
		iface := &ifaces[i]
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if hasUsableAddr(iface) {
			return true
		}
	}
	return false
}

func hasUsableAddr(iface *net.Interface) bool {
	addrs, err := iface.Addrs()
	if err != nil {
		return false
	}
	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if usableIP(ip) {
			return true
		}
	}
	return false
}
