package posix

import (
	"context"
	"os"
	"strings"

	"github.com/brutella/dnssd"
)

// defaultBorderAgentName mirrors the teacher's dns_sd_common.go default
// service name derivation: "<role> on <hostname>", FQDN domain stripped.
func defaultBorderAgentName() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "Thread Border Agent"
	}
	hostname, _, _ = strings.Cut(hostname, ".")
	return "Thread Border Agent on " + hostname
}

// BorderAgentAdvertiser publishes this node's border-agent service via
// mDNS-SD (`_meshcop._udp`) so commissioners can find it on the local
// network, grounded on the teacher's dns_sd.go Dire Wolf TNC advertisement
// (same "responder holding one registered service for this process's
// lifetime" shape).
type BorderAgentAdvertiser struct {
	responder dnssd.Responder
	handle    dnssd.ServiceHandle
	cancel    context.CancelFunc
}

// StartBorderAgentAdvertiser registers and begins advertising the border agent service on
// port, returning once advertisement has begun. networkName and extPANID
// are carried as TXT records so a commissioner can identify the partition
// before connecting, the way MeshCoP discovery works.
func StartBorderAgentAdvertiser(ctx context.Context, port int, networkName string, extPANID []byte) (*BorderAgentAdvertiser, error) {
	cfg := dnssd.Config{
		Name: defaultBorderAgentName(),
		Type: "_meshcop._udp",
		Port: port,
		Text: map[string]string{
			"nn": networkName,
			"xp": string(extPANID),
		},
	}
	service, err := dnssd.NewService(cfg)
	if err != nil {
		return nil, err
	}

	responder, err := dnssd.NewResponder()
	if err != nil {
		return nil, err
	}
	handle, err := responder.Add(service)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	go func() {
		_ = responder.Respond(runCtx)
	}()

	return &BorderAgentAdvertiser{responder: responder, handle: handle, cancel: cancel}, nil
}

// Stop withdraws the advertisement.
func (a *BorderAgentAdvertiser) Stop() {
	a.cancel()
}
