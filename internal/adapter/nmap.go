package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/rs/zerolog"
)

// NmapProber drives the nmap binary through github.com/Ullaakut/nmap
type NmapProber struct {
	binaryPath string
	timing     nmap.Timing
	scripts    []string
	logger     zerolog.Logger
}

// NewNmapProber creates a new nmap-based prober
func NewNmapProber(opts ...NmapOption) *NmapProber {
	prober := &NmapProber{
		timing:  nmap.TimingAggressive,
		scripts: []string{"banner"},
		logger:  zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(prober)
	}

	return prober
}

// Probe runs a port and service scan of cidr
func (n *NmapProber) Probe(ctx context.Context, cidr string, profile Profile) ([]HostResult, error) {
	if err := ValidateRange(cidr); err != nil {
		return nil, err
	}

	opts := []nmap.Option{
		nmap.WithTargets(cidr),
		nmap.WithServiceInfo(),
		nmap.WithTimingTemplate(n.timing),
	}

	switch profile {
	case ProfilePrivileged:
		opts = append(opts, nmap.WithSYNScan(), nmap.WithOSDetection())
		if len(n.scripts) > 0 {
			opts = append(opts, nmap.WithScripts(n.scripts...))
		}
	case ProfileUnprivileged:
		opts = append(opts, nmap.WithConnectScan())
	default:
		return nil, fmt.Errorf("unknown scan profile %q", profile)
	}

	n.logger.Info().Str("target", cidr).Str("profile", string(profile)).Msg("Starting nmap scan")

	result, err := n.run(ctx, cidr, opts)
	if err != nil {
		return nil, err
	}

	hosts := hostsFromRun(result)
	n.logger.Info().Str("target", cidr).Int("hosts", len(hosts)).Msg("Nmap scan complete")
	return hosts, nil
}

// Discover runs a ping sweep of cidr
func (n *NmapProber) Discover(ctx context.Context, cidr string) ([]HostResult, error) {
	if err := ValidateRange(cidr); err != nil {
		return nil, err
	}

	opts := []nmap.Option{
		nmap.WithTargets(cidr),
		nmap.WithPingScan(),
	}

	n.logger.Info().Str("target", cidr).Msg("Starting nmap host discovery")

	result, err := n.run(ctx, cidr, opts)
	if err != nil {
		return nil, err
	}

	return hostsFromRun(result), nil
}

// run creates a scanner, runs it and maps engine failures to adapter errors
func (n *NmapProber) run(ctx context.Context, target string, opts []nmap.Option) (*nmap.Run, error) {
	if n.binaryPath != "" {
		opts = append(opts, nmap.WithBinaryPath(n.binaryPath))
	}

	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		if errors.Is(err, nmap.ErrNmapNotInstalled) {
			return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
		}
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	result, warnings, err := scanner.Run()
	if warnings != nil && len(*warnings) > 0 {
		n.logger.Warn().Str("target", target).Strs("warnings", *warnings).Msg("Nmap reported warnings")
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("scan of %s aborted: %w", target, ctxErr)
	}
	if err != nil {
		return nil, fmt.Errorf("scan of %s failed: %w", target, err)
	}
	if result == nil {
		return nil, fmt.Errorf("scan of %s returned no result", target)
	}

	return result, nil
}

// hostsFromRun converts the parsed nmap XML into HostResults
func hostsFromRun(result *nmap.Run) []HostResult {
	if result == nil {
		return nil
	}

	hosts := make([]HostResult, 0, len(result.Hosts))
	for _, host := range result.Hosts {
		if len(host.Addresses) == 0 {
			continue
		}

		hr := HostResult{
			State: host.Status.State,
		}

		for _, addr := range host.Addresses {
			switch addr.AddrType {
			case "ipv4":
				if hr.Address == "" {
					hr.Address = addr.Addr
				}
			case "mac":
				hr.LinkLayerAddress = strings.ToUpper(addr.Addr)
				hr.VendorByMAC = addr.Vendor
			}
		}

		if hr.Address == "" {
			// Fallback to first non-MAC address
			for _, addr := range host.Addresses {
				if addr.AddrType != "mac" {
					hr.Address = addr.Addr
					break
				}
			}
		}
		if hr.Address == "" {
			continue
		}

		if len(host.Hostnames) > 0 {
			hr.Hostname = host.Hostnames[0].Name
		}

		for _, m := range host.OS.Matches {
			hr.OSMatches = append(hr.OSMatches, OSMatch{
				Name:     m.Name,
				Accuracy: int(m.Accuracy),
			})
		}

		for _, p := range host.Ports {
			if p.Protocol != "tcp" {
				continue
			}
			hr.TCPPorts = append(hr.TCPPorts, PortResult{
				Port:        int(p.ID),
				State:       p.State.State,
				ServiceName: p.Service.Name,
				Version:     p.Service.Version,
				Product:     p.Service.Product,
			})
		}

		hosts = append(hosts, hr)
	}

	return hosts
}
