//go:build linux

package netmon

import (
	"net"

	log "github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
)

type linuxQuerier struct {
	routeList   func(link netlink.Link, family int) ([]netlink.Route, error)
	linkByIndex func(index int) (netlink.Link, error)
	linkList    func() ([]netlink.Link, error)
}

// NewQuerier creates a Linux-specific querier backed by netlink. The active
// network is the link carrying the preferred default route.
func NewQuerier() Querier {
	return &linuxQuerier{
		routeList:   netlink.RouteList,
		linkByIndex: netlink.LinkByIndex,
		linkList:    netlink.LinkList,
	}
}

func (q *linuxQuerier) IsNetworkAvailable() bool {
	routes, err := q.routeList(nil, netlink.FAMILY_ALL)
	if err != nil {
		log.WithError(err).Debug("Failed to list routes")
		return false
	}

	if route, ok := preferredDefaultRoute(routes); ok {
		link, err := q.linkByIndex(route.LinkIndex)
		if err != nil {
			log.WithError(err).WithField("index", route.LinkIndex).Debug("Failed to get default route link")
			return false
		}
		return connectedOrConnecting(link.Attrs())
	}

	// Without a default route the only thing left is a link still
	// negotiating, which counts as connecting.
	links, err := q.linkList()
	if err != nil {
		log.WithError(err).Debug("Failed to list links")
		return false
	}
	for _, link := range links {
		attrs := link.Attrs()
		if usableLink(attrs) && attrs.OperState == netlink.OperDormant {
			log.WithField("interface", attrs.Name).Trace("No default route, link is connecting")
			return true
		}
	}
	return false
}

// preferredDefaultRoute picks the default route with the lowest metric.
func preferredDefaultRoute(routes []netlink.Route) (netlink.Route, bool) {
	var best netlink.Route
	found := false
	for _, r := range routes {
		if !isMainTable(r) || !isDefaultRoute(r) || r.LinkIndex == 0 {
			continue
		}
		if !found || r.Priority < best.Priority {
			best = r
			found = true
		}
	}
	return best, found
}

func usableLink(attrs *netlink.LinkAttrs) bool {
	if attrs == nil {
		return false
	}
	return attrs.Flags&net.FlagUp != 0 && attrs.Flags&net.FlagLoopback == 0
}

func connectedOrConnecting(attrs *netlink.LinkAttrs) bool {
	if !usableLink(attrs) {
		return false
	}
	switch attrs.OperState {
	case netlink.OperUp, netlink.OperUnknown, netlink.OperDormant:
		return true
	default:
		return false
	}
}
