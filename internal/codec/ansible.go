package codec

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"netinventory/internal/domain"
)

// AnsibleCodec exports devices as an Ansible YAML inventory with one group
// per device type
type AnsibleCodec struct{}

// NewAnsibleCodec creates a new Ansible codec
func NewAnsibleCodec() *AnsibleCodec {
	return &AnsibleCodec{}
}

// Format returns the codec format identifier
func (c *AnsibleCodec) Format() string {
	return "ansible-inventory"
}

// ContentType returns the MIME type of the export
func (c *AnsibleCodec) ContentType() string {
	return "application/yaml"
}

// ansibleInventory represents the Ansible inventory structure
type ansibleInventory struct {
	All ansibleGroup `yaml:"all"`
}

type ansibleGroup struct {
	Children map[string]ansibleGroupDef `yaml:"children,omitempty"`
}

type ansibleGroupDef struct {
	Hosts map[string]ansibleHost `yaml:"hosts,omitempty"`
}

type ansibleHost struct {
	AnsibleHost string `yaml:"ansible_host"`
	MAC         string `yaml:"mac_address,omitempty"`
	Vendor      string `yaml:"vendor,omitempty"`
	OS          string `yaml:"os_guess,omitempty"`
	OpenPorts   []int  `yaml:"open_ports,flow,omitempty"`
}

// Export writes devices as an Ansible inventory.
// Hosts are keyed by hostname when known, otherwise by IP address.
func (c *AnsibleCodec) Export(devices []domain.Device, w io.Writer) error {
	inv := ansibleInventory{
		All: ansibleGroup{
			Children: make(map[string]ansibleGroupDef),
		},
	}

	for _, d := range devices {
		groupName := GroupName(d.DeviceType)
		group, ok := inv.All.Children[groupName]
		if !ok {
			group = ansibleGroupDef{Hosts: make(map[string]ansibleHost)}
			inv.All.Children[groupName] = group
		}

		group.Hosts[hostKey(d, group.Hosts)] = ansibleHost{
			AnsibleHost: d.IPAddress,
			MAC:         knownOrEmpty(d.MACAddress),
			Vendor:      knownOrEmpty(d.Vendor),
			OS:          knownOrEmpty(d.OSGuess),
			OpenPorts:   domain.SortedPorts(d.Ports),
		}
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&inv); err != nil {
		return fmt.Errorf("failed to encode Ansible inventory: %w", err)
	}

	return nil
}

// GroupName converts a device type label to an Ansible group name,
// e.g. "Linux Server" becomes "linux_server"
func GroupName(t domain.DeviceType) string {
	name := strings.ToLower(string(t))
	if name == "" {
		name = strings.ToLower(string(domain.DeviceTypeUnknown))
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, name)
}

func hostKey(d domain.Device, taken map[string]ansibleHost) string {
	if d.Hostname != "" && d.Hostname != domain.Unknown {
		if _, dup := taken[d.Hostname]; !dup {
			return d.Hostname
		}
	}
	return d.IPAddress
}

func knownOrEmpty(s string) string {
	if s == domain.Unknown {
		return ""
	}
	return s
}
