package mdns

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/dmdmdm-nz/zeroconf"
	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/netlistend/pkg/version"
)

const (
	ServiceType = "_netlistend._tcp"
	Domain      = "local."
)

// Server is the part of a zeroconf registration the advertiser needs.
type Server interface {
	Shutdown()
}

// RegisterFunc publishes a service record and returns its server.
type RegisterFunc func(instance, service, domain string, port int, text []string) (Server, error)

func zeroconfRegister(instance, service, domain string, port int, text []string) (Server, error) {
	server, err := zeroconf.Register(instance, service, domain, port, text, nil)
	if err != nil {
		return nil, err
	}
	return server, nil
}

// Advertiser announces the API over mDNS while the network is available.
// It is a netstate.Listener: interfaces change with connectivity, so the
// record is re-registered on every available notification and withdrawn
// on unavailable.
type Advertiser struct {
	instance string
	port     int
	register RegisterFunc

	mu     sync.Mutex
	server Server
}

func NewAdvertiser(port int) *Advertiser {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "netlistend"
	}
	return &Advertiser{
		instance: fmt.Sprintf("netlistend on %s", host),
		port:     port,
		register: zeroconfRegister,
	}
}

func (a *Advertiser) OnNetworkAvailable() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.shutdownLocked()

	server, err := a.register(a.instance, ServiceType, Domain, a.port, []string{"version=" + version.Version})
	if err != nil {
		log.WithError(err).WithField("service", ServiceType).Warn("Failed to advertise API")
		return
	}
	a.server = server
	log.WithFields(log.Fields{
		"instance": a.instance,
		"service":  ServiceType,
		"port":     a.port,
	}).Info("Advertising API over mDNS")
}

func (a *Advertiser) OnNetworkUnavailable() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		log.WithField("instance", a.instance).Info("Withdrawing mDNS advertisement")
	}
	a.shutdownLocked()
}

// Advertising reports whether a record is currently registered.
func (a *Advertiser) Advertising() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.server != nil
}

// Start blocks until ctx is cancelled; registration itself is driven by
// connectivity notifications.
func (a *Advertiser) Start(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (a *Advertiser) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.shutdownLocked()
	return nil
}

func (a *Advertiser) shutdownLocked() {
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}
