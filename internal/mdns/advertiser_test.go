package mdns

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmdmdm-nz/netlistend/pkg/netstate"
)

type fakeServer struct {
	shutdowns int
}

func (f *fakeServer) Shutdown() { f.shutdowns++ }

type fakeRegistry struct {
	servers []*fakeServer
	ports   []int
	err     error
}

func (r *fakeRegistry) register(instance, service, domain string, port int, text []string) (Server, error) {
	if r.err != nil {
		return nil, r.err
	}
	s := &fakeServer{}
	r.servers = append(r.servers, s)
	r.ports = append(r.ports, port)
	return s, nil
}

func newTestAdvertiser(reg *fakeRegistry) *Advertiser {
	a := NewAdvertiser(60106)
	a.register = reg.register
	return a
}

func TestAdvertiser_IsListener(t *testing.T) {
	var _ netstate.Listener = &Advertiser{}
}

func TestAdvertiser_RegistersOnAvailable(t *testing.T) {
	reg := &fakeRegistry{}
	a := newTestAdvertiser(reg)

	a.OnNetworkAvailable()
	require.Len(t, reg.servers, 1)
	assert.Equal(t, []int{60106}, reg.ports)
	assert.True(t, a.Advertising())

	// A second available notification re-registers on the new interfaces.
	a.OnNetworkAvailable()
	require.Len(t, reg.servers, 2)
	assert.Equal(t, 1, reg.servers[0].shutdowns)
	assert.Equal(t, 0, reg.servers[1].shutdowns)
}

func TestAdvertiser_WithdrawsOnUnavailable(t *testing.T) {
	reg := &fakeRegistry{}
	a := newTestAdvertiser(reg)

	a.OnNetworkUnavailable()
	assert.False(t, a.Advertising())

	a.OnNetworkAvailable()
	a.OnNetworkUnavailable()
	assert.False(t, a.Advertising())
	assert.Equal(t, 1, reg.servers[0].shutdowns)

	require.NoError(t, a.Close())
	assert.Equal(t, 1, reg.servers[0].shutdowns)
}

func TestAdvertiser_RegisterFailure(t *testing.T) {
	reg := &fakeRegistry{err: errors.New("no multicast interface")}
	a := newTestAdvertiser(reg)

	require.NotPanics(t, a.OnNetworkAvailable)
	assert.False(t, a.Advertising())
}

func TestAdvertiser_ManagerDrivesRegistration(t *testing.T) {
	reg := &fakeRegistry{}
	a := newTestAdvertiser(reg)

	available := true
	o := netstate.New(
		netstate.WithWatcher(nopWatcher{}),
		netstate.WithQuerier(netstate.QueryFunc(func() bool { return available })),
	)
	o.Manager().AddListener(a)
	assert.True(t, a.Advertising())

	available = false
	o.Manager().AddListener(a)
	assert.False(t, a.Advertising())
}

type nopWatcher struct{}

func (nopWatcher) Start(ctx context.Context, _ func(netstate.ChangeEvent)) error {
	<-ctx.Done()
	return nil
}
