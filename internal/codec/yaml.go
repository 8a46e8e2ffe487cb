package codec

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"netinventory/internal/domain"
)

// YAMLCodec exports devices as a YAML document
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// ContentType returns the MIME type of the export
func (c *YAMLCodec) ContentType() string {
	return "application/yaml"
}

// yamlInventory is the document root
type yamlInventory struct {
	Version int          `yaml:"version"`
	Devices []yamlDevice `yaml:"devices"`
}

type yamlDevice struct {
	IP         string `yaml:"ip"`
	MAC        string `yaml:"mac"`
	Hostname   string `yaml:"hostname"`
	Vendor     string `yaml:"vendor"`
	OS         string `yaml:"os"`
	DeviceType string `yaml:"device_type"`
	Status     string `yaml:"status"`
	FirstSeen  string `yaml:"first_seen"`
	LastSeen   string `yaml:"last_seen"`
	OpenPorts  []int  `yaml:"open_ports,flow"`
}

// Export writes devices as YAML
func (c *YAMLCodec) Export(devices []domain.Device, w io.Writer) error {
	inv := yamlInventory{
		Version: 1,
		Devices: make([]yamlDevice, 0, len(devices)),
	}

	for _, d := range devices {
		inv.Devices = append(inv.Devices, yamlDevice{
			IP:         d.IPAddress,
			MAC:        d.MACAddress,
			Hostname:   d.Hostname,
			Vendor:     d.Vendor,
			OS:         d.OSGuess,
			DeviceType: string(d.DeviceType),
			Status:     string(d.Status),
			FirstSeen:  d.FirstSeen.UTC().Format(time.RFC3339),
			LastSeen:   d.LastSeen.UTC().Format(time.RFC3339),
			OpenPorts:  domain.SortedPorts(d.Ports),
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&inv); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
