package domain

import "strings"

// DeviceType is the heuristic category assigned to a device
type DeviceType string

const (
	DeviceTypeApple       DeviceType = "Apple Device"
	DeviceTypeAndroid     DeviceType = "Android Device"
	DeviceTypeRaspberryPi DeviceType = "Raspberry Pi"
	DeviceTypeAlexa       DeviceType = "Amazon Alexa"
	DeviceTypeGoogle      DeviceType = "Google Smart Device"
	DeviceTypeNetwork     DeviceType = "Network Device"
	DeviceTypeLinux       DeviceType = "Linux Server"
	DeviceTypeWindows     DeviceType = "Windows Computer"
	DeviceTypeWebServer   DeviceType = "Web Server"
	DeviceTypeIoT         DeviceType = "Generic IoT Device"
	DeviceTypeUnknown     DeviceType = "Unknown Device"
)

// DeviceTypes lists every label Classify can return, in rule order
var DeviceTypes = []DeviceType{
	DeviceTypeApple,
	DeviceTypeAndroid,
	DeviceTypeRaspberryPi,
	DeviceTypeAlexa,
	DeviceTypeGoogle,
	DeviceTypeNetwork,
	DeviceTypeLinux,
	DeviceTypeWindows,
	DeviceTypeWebServer,
	DeviceTypeIoT,
	DeviceTypeUnknown,
}

// vendorRule maps vendor substrings to a device type
type vendorRule struct {
	keywords []string
	typ      DeviceType
}

// vendorRules are evaluated before any port rule; order matters
var vendorRules = []vendorRule{
	{[]string{"apple", "iphone", "ipad", "mac"}, DeviceTypeApple},
	{[]string{"samsung", "android"}, DeviceTypeAndroid},
	{[]string{"raspberry", "pi"}, DeviceTypeRaspberryPi},
	{[]string{"amazon", "echo"}, DeviceTypeAlexa},
	{[]string{"google", "nest"}, DeviceTypeGoogle},
	{[]string{"tp-link", "netgear", "asus", "d-link", "linksys"}, DeviceTypeNetwork},
}

// windowsPorts are the RPC/NetBIOS/SMB ports
var windowsPorts = []int{135, 139, 445}

// Classify infers a device type from vendor, OS guess and open ports.
// The first matching rule wins.
func Classify(obs DeviceObservation) DeviceType {
	vendor := strings.ToLower(obs.Vendor)
	osGuess := strings.ToLower(obs.OSGuess)

	for _, rule := range vendorRules {
		if containsAny(vendor, rule.keywords) {
			return rule.typ
		}
	}

	if obs.HasPort(22) && (strings.Contains(osGuess, "linux") || osGuess == "") {
		return DeviceTypeLinux
	}

	for _, port := range windowsPorts {
		if obs.HasPort(port) {
			return DeviceTypeWindows
		}
	}

	if obs.HasPort(80) || obs.HasPort(443) {
		return DeviceTypeWebServer
	}

	if len(obs.Services) == 0 && obs.Status == HostStatusUp {
		return DeviceTypeIoT
	}

	return DeviceTypeUnknown
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
