package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
)

func printListDevicesUsage() {
	fmt.Printf("predatorkey list-devices v%s\n", version)
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  predatorkey list-devices [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Lists readable input devices with their names and whether they report")
	fmt.Println("  ABS_MISC, the axis the Predator key uses. Use it to pick -device or")
	fmt.Println("  device.name_contains.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -enumerator string")
	fmt.Printf("        Device enumeration backend: evdev|udev (default %q)\n", defaultEnumerator)
	fmt.Println()
}

// runListDevicesSubcommand handles the list-devices subcommand
func runListDevicesSubcommand(args []string) {
	fs := flag.NewFlagSet("list-devices", flag.ExitOnError)
	enumerator := fs.String("enumerator", defaultEnumerator, "Device enumeration backend: evdev|udev")
	fs.Usage = printListDevicesUsage
	_ = fs.Parse(args)

	src, err := newDeviceSource(*enumerator)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if err := listDevices(os.Stdout, src); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// listDevices writes one line per device: path, ABS_MISC marker, name.
func listDevices(w io.Writer, src deviceSource) error {
	paths, err := src.List()
	if err != nil {
		return fmt.Errorf("list input devices: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tABS_MISC\tNAME")
	for _, p := range paths {
		dev, err := src.Open(p)
		if err != nil {
			fmt.Fprintf(tw, "%s\t-\t<%v>\n", p, err)
			continue
		}
		name, err := dev.Name()
		if err != nil {
			name = fmt.Sprintf("<%v>", err)
		}
		absMisc := "no"
		if hasCapability(dev, EV_ABS, ABS_MISC) {
			absMisc = "yes"
		}
		_ = dev.Close()
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p, absMisc, name)
	}
	return tw.Flush()
}
