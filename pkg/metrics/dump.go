package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/common/expfmt"
)

// WriteText gathers every metric of the global registry and writes it to w
// in the Prometheus text exposition format.
//
// Used by one-shot CLI commands that cannot be scraped. Writes nothing when
// metrics are disabled.
func WriteText(w io.Writer) error {
	reg := GetRegistry()
	if reg == nil {
		return nil
	}

	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := enc.Encode(family); err != nil {
			return fmt.Errorf("failed to encode metric family %s: %w", family.GetName(), err)
		}
	}
	return nil
}
