package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"rfchat/internal/device"
	"rfchat/util"
)

// DevicesMode prints the bonded-device directory and the address each
// device resolves to on the configured channel.
type DevicesMode struct {
	Directory device.Directory
	Channel   int
	Logger    *util.Logger

	// Stdout defaults to os.Stdout when nil.
	Stdout io.Writer
}

func (m *DevicesMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run lists the devices.
func (m *DevicesMode) Run(_ context.Context) error {
	devices, err := m.Directory.Bonded()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		m.Logger.Info("no bonded devices")
		return nil
	}

	tw := tabwriter.NewWriter(m.stdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tNETWORK\tADDRESS")
	for _, name := range device.Names(devices) {
		ref := devices[name]
		addr := util.FormatAddr(ref.Host, util.ChannelPort(ref.BasePort, m.Channel))
		if ref.Network == "ws" || ref.Network == "wss" {
			addr = ref.Network + "://" + addr + ref.Path
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, ref.Network, addr)
	}
	return tw.Flush()
}
