package main

import (
	"errors"
	"flag"
	"os"

	"grimm.is/linkctl/cmd"
	"grimm.is/linkctl/internal/brand"
	"grimm.is/linkctl/internal/i18n"
)

var printer = i18n.NewCLIPrinter()

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	args := os.Args[2:]
	var err error
	switch os.Args[1] {
	case "show":
		err = cmd.RunShow(args)
	case "set":
		err = cmd.RunSet(args)
	case "up":
		err = cmd.RunUpDown(args, true)
	case "down":
		err = cmd.RunUpDown(args, false)
	case "manage":
		err = cmd.RunManage(args, true)
	case "unmanage":
		err = cmd.RunManage(args, false)
	case "channels":
		err = cmd.RunChannels(args)
	case "apply":
		err = cmd.RunApply(args)
	case "oui":
		err = cmd.RunOUI(args)
	case "version", "-v", "--version":
		cmd.RunVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		printer.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		printer.Fprintf(os.Stderr, "%s: %v\n", brand.BinaryName, err)
		os.Exit(1)
	}
}

func printUsage() {
	printer.Printf(`%s - %s

Usage:
  %s <command> [options]

Commands:
  show      Print interface attributes
            Options: -json (-j)
  set       Change one attribute and verify it
            Attributes: name, alias, address, state, flag, mode, channel
  up        Bring an interface up
  down      Bring an interface down
  manage    Hand an interface to the network manager
            Options: -manager (-m) networkmanager|nmcli
  unmanage  Take an interface away from the network manager
  channels  List the channels a wireless interface supports
  apply     Drive interfaces to the state in a config file
            Options: -dry-run (-n)
  oui       Vendor database: fetch [-o file], lookup MAC...
  version   Print build information

Common options:
  -config (-c) <file>   Configuration file (default %s)
  -strict               Return verification failures as errors
  -timeout <duration>   Timeout for each ip/iw invocation
  -parser text|json     How to read ip output
  -netns <name>         Operate inside a named network namespace
  -log-level <level>    debug, info, warn or error
  -log-json             Log as JSON
  -syslog <target>      Also log to a remote syslog server
  -metrics-file <file>  Write Prometheus metrics on exit

Examples:
  %s show eth0 wlan0
  %s set eth0 alias "uplink to isp"
  %s set -strict eth0 flag promisc off
  %s set wlan0 mode monitor
  %s apply -n /etc/linkctl/linkctl.hcl
`,
		brand.Name, brand.Description,
		brand.LowerName,
		brand.ConfigPath(),
		brand.LowerName, brand.LowerName, brand.LowerName, brand.LowerName, brand.LowerName)
}
