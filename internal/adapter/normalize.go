package adapter

import (
	"netinventory/internal/domain"
)

// Normalize converts a raw host into a DeviceObservation.
// DeviceType is left empty for the classifier.
func Normalize(host HostResult) domain.DeviceObservation {
	obs := domain.DeviceObservation{
		IPAddress:  host.Address,
		Hostname:   orUnknown(host.Hostname),
		MACAddress: domain.Unknown,
		Vendor:     domain.Unknown,
		OSGuess:    domain.Unknown,
		Status:     domain.HostStatus(host.State),
		Services:   []domain.ServiceObservation{},
	}

	if host.LinkLayerAddress != "" {
		obs.MACAddress = host.LinkLayerAddress
		obs.Vendor = orUnknown(host.VendorByMAC)
	}

	if len(host.OSMatches) > 0 && host.OSMatches[0].Name != "" {
		obs.OSGuess = host.OSMatches[0].Name
	}

	for _, p := range host.TCPPorts {
		if p.State != "open" {
			continue
		}
		obs.Services = append(obs.Services, domain.ServiceObservation{
			Port:        p.Port,
			ServiceName: p.ServiceName,
			Version:     orUnknown(p.Version),
			Product:     orUnknown(p.Product),
		})
	}

	return obs
}

// NormalizeAll normalizes and classifies every host
func NormalizeAll(hosts []HostResult) []domain.DeviceObservation {
	observations := make([]domain.DeviceObservation, 0, len(hosts))
	for _, h := range hosts {
		obs := Normalize(h)
		obs.DeviceType = domain.Classify(obs)
		observations = append(observations, obs)
	}
	return observations
}

// QuickScanHosts converts discovery results to the quick scan shape
func QuickScanHosts(hosts []HostResult) []domain.QuickScanHost {
	out := make([]domain.QuickScanHost, 0, len(hosts))
	for _, h := range hosts {
		q := domain.QuickScanHost{
			IP:       h.Address,
			Hostname: orUnknown(h.Hostname),
			MAC:      domain.Unknown,
			Vendor:   domain.Unknown,
			Status:   domain.HostStatus(h.State),
		}
		if h.LinkLayerAddress != "" {
			q.MAC = h.LinkLayerAddress
			q.Vendor = orUnknown(h.VendorByMAC)
		}
		out = append(out, q)
	}
	return out
}

func orUnknown(s string) string {
	if s == "" {
		return domain.Unknown
	}
	return s
}
