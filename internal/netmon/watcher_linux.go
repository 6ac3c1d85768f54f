//go:build linux

package netmon

import (
	"context"
	"errors"
	"net"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

var errSubscriptionClosed = errors.New("netlink subscription closed")

// linkState is the part of a link that matters for connectivity. Netlink
// repeats RTM_NEWLINK for statistics and other noise; only a change here is
// reported.
type linkState struct {
	up        bool
	operState netlink.LinkOperState
}

type linuxWatcher struct {
	mu      sync.Mutex
	tracked map[int]linkState
}

// NewWatcher creates a Linux-specific watcher using netlink.
func NewWatcher() Watcher {
	return &linuxWatcher{
		tracked: make(map[int]linkState),
	}
}

func (w *linuxWatcher) Start(ctx context.Context, callback func(ChangeEvent)) error {
	linkCh := make(chan netlink.LinkUpdate)
	linkDone := make(chan struct{})

	addrCh := make(chan netlink.AddrUpdate)
	addrDone := make(chan struct{})

	routeCh := make(chan netlink.RouteUpdate)
	routeDone := make(chan struct{})

	if err := netlink.LinkSubscribe(linkCh, linkDone); err != nil {
		return err
	}

	if err := netlink.AddrSubscribe(addrCh, addrDone); err != nil {
		close(linkDone)
		return err
	}

	if err := netlink.RouteSubscribe(routeCh, routeDone); err != nil {
		close(linkDone)
		close(addrDone)
		return err
	}

	defer close(linkDone)
	defer close(addrDone)
	defer close(routeDone)

	log.Debug("Netlink watcher subscribed to link, address and route updates")

	for {
		select {
		case <-ctx.Done():
			return nil

		case update, ok := <-linkCh:
			if !ok {
				return errSubscriptionClosed
			}
			w.handleLinkUpdate(update, callback)

		case update, ok := <-addrCh:
			if !ok {
				return errSubscriptionClosed
			}
			w.handleAddrUpdate(update, callback)

		case update, ok := <-routeCh:
			if !ok {
				return errSubscriptionClosed
			}
			w.handleRouteUpdate(update, callback)
		}
	}
}

func (w *linuxWatcher) handleLinkUpdate(update netlink.LinkUpdate, callback func(ChangeEvent)) {
	attrs := update.Link.Attrs()
	if attrs == nil || attrs.Flags&net.FlagLoopback != 0 {
		return
	}

	w.mu.Lock()
	prev, isTracked := w.tracked[attrs.Index]
	if update.Header.Type == unix.RTM_DELLINK {
		delete(w.tracked, attrs.Index)
		w.mu.Unlock()
		log.WithField("interface", attrs.Name).Debug("Link removed")
		callback(ChangeEvent{Reason: ReasonLink})
		return
	}

	next := linkState{
		up:        attrs.Flags&net.FlagUp != 0,
		operState: attrs.OperState,
	}
	w.tracked[attrs.Index] = next
	w.mu.Unlock()

	if isTracked && prev == next {
		return
	}

	log.WithFields(log.Fields{
		"interface": attrs.Name,
		"up":        next.up,
		"operState": next.operState.String(),
	}).Debug("Link state changed")
	callback(ChangeEvent{Reason: ReasonLink})
}

func (w *linuxWatcher) handleAddrUpdate(update netlink.AddrUpdate, callback func(ChangeEvent)) {
	if update.LinkAddress.IP == nil || update.LinkAddress.IP.IsLoopback() {
		return
	}

	log.WithFields(log.Fields{
		"address": update.LinkAddress.String(),
		"index":   update.LinkIndex,
		"new":     update.NewAddr,
	}).Debug("Address changed")
	callback(ChangeEvent{Reason: ReasonAddr})
}

func (w *linuxWatcher) handleRouteUpdate(update netlink.RouteUpdate, callback func(ChangeEvent)) {
	if !isMainTable(update.Route) || !isDefaultRoute(update.Route) {
		return
	}

	log.WithFields(log.Fields{
		"index":    update.Route.LinkIndex,
		"gateway":  update.Route.Gw,
		"priority": update.Route.Priority,
	}).Debug("Default route changed")
	callback(ChangeEvent{Reason: ReasonRoute})
}

// isDefaultRoute reports whether r matches every destination. Depending on
// the kernel and library version a default route carries either no Dst or a
// zero-length prefix.
func isDefaultRoute(r netlink.Route) bool {
	if r.Dst == nil {
		return true
	}
	ones, _ := r.Dst.Mask.Size()
	return ones == 0
}

func isMainTable(r netlink.Route) bool {
	return r.Table == 0 || r.Table == unix.RT_TABLE_MAIN
}
