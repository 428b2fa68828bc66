package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/mezzobridge/internal/bridge"
	"github.com/muurk/mezzobridge/internal/config"
	"github.com/muurk/mezzobridge/internal/gain"
	"github.com/muurk/mezzobridge/internal/link"
	"github.com/muurk/mezzobridge/internal/mezzo"
	"github.com/muurk/mezzobridge/internal/ui"
	"github.com/muurk/mezzobridge/internal/zone"
)

// connectInterval paces link probes for one-shot commands.
const connectInterval = 50 * time.Millisecond

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "List the configured zones",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		reg, err := zone.NewRegistry(cfg.Zones)
		if err != nil {
			return err
		}

		t := ui.NewTable("ADDRESS", "ZONE ID", "ZONE", "LABEL")
		for _, z := range reg.All() {
			t.AddRow(fmt.Sprintf("0x%04X", z.Address), fmt.Sprint(z.ZoneID), fmt.Sprint(z.ZoneNumber), z.Label)
		}
		fmt.Print(t.Render())
		return nil
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Read every zone's gain from the device",
	Long: `Connect to the first reachable device endpoint and read the current gain
of every configured zone, showing the raw value the display would be given.`,
	RunE: runProbe,
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := zone.NewRegistry(cfg.Zones)
	if err != nil {
		return err
	}
	client, endpoint, err := connectClient(cmd, cfg)
	if err != nil {
		return err
	}

	fmt.Println(ui.Render(ui.MutedStyle, "Device: "+endpoint))
	t := ui.NewTable("ADDRESS", "LABEL", "GAIN", "PERCENT", "RAW")
	failed := 0
	for _, z := range reg.All() {
		g, err := client.GetGain(background(cmd), z)
		if err != nil {
			failed++
			t.AddRow(fmt.Sprintf("0x%04X", z.Address), z.Label, ui.Render(ui.ErrorStyle, mezzo.ShortMessage(err)))
			continue
		}
		raw := gain.GainToRaw(g)
		t.AddRow(
			fmt.Sprintf("0x%04X", z.Address),
			z.Label,
			fmt.Sprintf("%.4f", g),
			fmt.Sprintf("%.0f%%", gain.RawToPercent(raw)),
			fmt.Sprintf("0x%04X", raw),
		)
	}
	fmt.Print(t.Render())

	if failed > 0 {
		return fmt.Errorf("%d of %d zones could not be read", failed, reg.Len())
	}
	return nil
}

// Set command flags
var (
	setAddress string
	setPercent float64
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Set one zone's volume",
	Long: `Push a volume to the zone bound to a display address, exactly as a gesture
on the display would.`,
	Example: `  # Set the zone on VP 0x1100 to 50 %
  mezzobridge set --address 0x1100 --percent 50`,
	RunE: runSet,
}

func init() {
	setCmd.Flags().StringVar(&setAddress, "address", "", "Display VP address of the zone (e.g. 0x1100)")
	setCmd.Flags().Float64Var(&setPercent, "percent", 0, "Volume in percent (0-100)")
	_ = setCmd.MarkFlagRequired("address")
	_ = setCmd.MarkFlagRequired("percent")
}

func runSet(cmd *cobra.Command, args []string) error {
	addr, err := strconv.ParseUint(setAddress, 0, 16)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", setAddress, err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := zone.NewRegistry(cfg.Zones)
	if err != nil {
		return err
	}
	z, ok := reg.Lookup(uint16(addr))
	if !ok {
		return fmt.Errorf("no zone configured for address 0x%04X", addr)
	}

	client, _, err := connectClient(cmd, cfg)
	if err != nil {
		return err
	}

	raw := gain.PercentToRaw(setPercent)
	g := gain.RawToGain(raw)

	// Gesture pushes use the short timeout; a CLI call can afford the long one.
	client.SetTimeout = cfg.Device.ReadTimeout
	if err := client.SetGain(background(cmd), z, g); err != nil {
		fmt.Print(ui.NewFailureResult("Gain not set", fmt.Errorf("%s", mezzo.ShortMessage(err))).
			AddDetail("Zone", z.String()).
			Render())
		return err
	}

	fmt.Print(ui.NewSuccessResult("Gain set").
		AddDetail("Zone", z.String()).
		AddDetail("Percent", fmt.Sprintf("%.0f%%", gain.RawToPercent(raw))).
		AddDetail("Gain", fmt.Sprintf("%.4f", g)).
		Render())
	return nil
}

// connectClient brings the link up once and returns a client bound to it.
func connectClient(cmd *cobra.Command, cfg *config.Config) (*mezzo.Client, string, error) {
	m := link.NewManager(bridge.LinkConfig(cfg), link.HTTPProber{Timeout: cfg.Link.ProbeTimeout}, nil)
	if err := m.Connect(background(cmd), connectInterval); err != nil {
		return nil, "", fmt.Errorf("device unreachable at %v: %w", cfg.Device.Endpoints, err)
	}
	return bridge.NewClient(cfg, m), m.Endpoint(), nil
}
