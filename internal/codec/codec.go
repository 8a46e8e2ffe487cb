// Package codec exports the current device inventory in several formats.
package codec

import (
	"fmt"
	"io"
	"sort"

	"netinventory/internal/domain"
)

// Exporter writes a device inventory in one format
type Exporter interface {
	Export(devices []domain.Device, w io.Writer) error
	Format() string
	ContentType() string
}

// Exporters returns every supported exporter keyed by format
func Exporters() map[string]Exporter {
	out := make(map[string]Exporter)
	for _, e := range []Exporter{NewJSONCodec(), NewYAMLCodec(), NewAnsibleCodec()} {
		out[e.Format()] = e
	}
	return out
}

// Formats returns the supported format identifiers, sorted
func Formats() []string {
	var formats []string
	for f := range Exporters() {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// ForFormat returns the exporter for format
func ForFormat(format string) (Exporter, error) {
	e, ok := Exporters()[format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format %q (supported: %v)", format, Formats())
	}
	return e, nil
}
