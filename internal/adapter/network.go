package adapter

import (
	"fmt"
	"net"
)

// DetectLocalNetwork infers the /24 of the primary outbound IPv4 address.
// No packets are sent; dialing UDP only selects a route.
func DetectLocalNetwork() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:53")
	if err != nil {
		return "", fmt.Errorf("detect local address: %w", err)
	}
	defer conn.Close()

	localAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", fmt.Errorf("detect local address: unexpected address type %T", conn.LocalAddr())
	}

	return SubnetFor(localAddr.IP)
}

// SubnetFor returns a.b.c.0/24 for the IPv4 address a.b.c.d
func SubnetFor(ip net.IP) (string, error) {
	ip4 := ip.To4()
	if ip4 == nil {
		return "", fmt.Errorf("%s is not an IPv4 address", ip)
	}
	if ip4.IsLoopback() || ip4.IsUnspecified() {
		return "", fmt.Errorf("%s is not a LAN address", ip4)
	}
	return fmt.Sprintf("%d.%d.%d.0/24", ip4[0], ip4[1], ip4[2]), nil
}
