package bridge

import (
	"strings"

	"github.com/muurk/mezzobridge/internal/dmt"
	"github.com/muurk/mezzobridge/internal/link"
)

// statusRenderer shows link transitions on the display.
type statusRenderer struct {
	display *dmt.Display
	ready   bool
}

func (r *statusRenderer) LinkEvent(ev link.Event) {
	host := hostOf(ev.Endpoint)

	switch ev.Kind {
	case link.EventConnecting:
		r.display.ShowConnecting("Connecting to " + host)

	case link.EventConnected:
		r.display.ShowStatus("Link up " + host)
		r.display.ClearError()
		r.display.SetLinkIcon(true)
		if !r.ready {
			r.display.ShowReady()
			r.ready = true
		}

	case link.EventFailed:
		r.display.ShowStatus("...")
		r.display.ShowError("Link failed")
		r.display.SetLinkIcon(false)

	case link.EventAllFailed:
		r.display.ShowStatus("All links failed")
		r.display.ShowError("Link failed")

	case link.EventLost:
		r.display.ShowStatus("...")
		r.display.ShowError("Link lost")
		r.display.SetLinkIcon(false)
	}
}

func hostOf(endpoint string) string {
	if i := strings.Index(endpoint, "://"); i >= 0 {
		return endpoint[i+3:]
	}
	return endpoint
}
