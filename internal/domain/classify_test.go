package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func services(ports ...int) []ServiceObservation {
	out := make([]ServiceObservation, 0, len(ports))
	for _, p := range ports {
		out = append(out, ServiceObservation{Port: p, ServiceName: "svc", Version: Unknown, Product: Unknown})
	}
	return out
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		obs  DeviceObservation
		want DeviceType
	}{
		{
			name: "apple vendor",
			obs:  DeviceObservation{Vendor: "Apple, Inc.", Status: HostStatusUp},
			want: DeviceTypeApple,
		},
		{
			name: "apple vendor wins over ssh port",
			obs:  DeviceObservation{Vendor: "Apple", OSGuess: "Linux 5.x", Status: HostStatusUp, Services: services(22)},
			want: DeviceTypeApple,
		},
		{
			name: "vendor match is case insensitive",
			obs:  DeviceObservation{Vendor: "SAMSUNG ELECTRONICS", Status: HostStatusUp},
			want: DeviceTypeAndroid,
		},
		{
			name: "raspberry pi foundation",
			obs:  DeviceObservation{Vendor: "Raspberry Pi Foundation", OSGuess: "", Status: HostStatusUp},
			want: DeviceTypeRaspberryPi,
		},
		{
			name: "amazon",
			obs:  DeviceObservation{Vendor: "Amazon Technologies Inc.", Status: HostStatusUp},
			want: DeviceTypeAlexa,
		},
		{
			name: "google",
			obs:  DeviceObservation{Vendor: "Google, Inc.", Status: HostStatusUp},
			want: DeviceTypeGoogle,
		},
		{
			name: "network gear",
			obs:  DeviceObservation{Vendor: "TP-LINK TECHNOLOGIES", Status: HostStatusUp, Services: services(80)},
			want: DeviceTypeNetwork,
		},
		{
			name: "linux server with os guess",
			obs:  DeviceObservation{Vendor: Unknown, OSGuess: "Linux 5.x", Status: HostStatusUp, Services: services(22)},
			want: DeviceTypeLinux,
		},
		{
			name: "ssh with empty os guess",
			obs:  DeviceObservation{Vendor: Unknown, OSGuess: "", Status: HostStatusUp, Services: services(22)},
			want: DeviceTypeLinux,
		},
		{
			name: "ssh on non-linux os falls through to web",
			obs:  DeviceObservation{Vendor: Unknown, OSGuess: "FreeBSD 13", Status: HostStatusUp, Services: services(22, 443)},
			want: DeviceTypeWebServer,
		},
		{
			name: "smb means windows",
			obs:  DeviceObservation{Vendor: Unknown, OSGuess: Unknown, Status: HostStatusUp, Services: services(445, 80)},
			want: DeviceTypeWindows,
		},
		{
			name: "web server",
			obs:  DeviceObservation{Vendor: Unknown, OSGuess: Unknown, Status: HostStatusUp, Services: services(80)},
			want: DeviceTypeWebServer,
		},
		{
			name: "no ports and up",
			obs:  DeviceObservation{Vendor: Unknown, OSGuess: "", Status: HostStatusUp},
			want: DeviceTypeIoT,
		},
		{
			name: "no ports and down",
			obs:  DeviceObservation{Vendor: Unknown, OSGuess: "", Status: HostStatusDown},
			want: DeviceTypeUnknown,
		},
		{
			name: "unmatched ports",
			obs:  DeviceObservation{Vendor: Unknown, OSGuess: Unknown, Status: HostStatusUp, Services: services(8080)},
			want: DeviceTypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.obs))
		})
	}
}

// TestClassify_Total checks that every combination lands on a known label
func TestClassify_Total(t *testing.T) {
	known := make(map[DeviceType]bool, len(DeviceTypes))
	for _, dt := range DeviceTypes {
		known[dt] = true
	}

	vendors := []string{"", Unknown, "Apple", "Nest Labs", "Linksys", "Intel Corporate"}
	osGuesses := []string{"", Unknown, "Linux 4.15", "Microsoft Windows 10"}
	portSets := [][]int{nil, {22}, {135}, {443}, {22, 445}, {9100}}
	statuses := []HostStatus{HostStatusUp, HostStatusDown, HostStatusUnknown}

	for _, v := range vendors {
		for _, o := range osGuesses {
			for _, ports := range portSets {
				for _, s := range statuses {
					obs := DeviceObservation{Vendor: v, OSGuess: o, Status: s, Services: services(ports...)}
					got := Classify(obs)
					assert.True(t, known[got], "unexpected label %q for %+v", got, obs)
					assert.Equal(t, got, Classify(obs), "classification must be deterministic")
				}
			}
		}
	}
}
