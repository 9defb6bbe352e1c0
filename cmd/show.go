package cmd

import (
	"encoding/json"
	"flag"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"grimm.is/linkctl/internal/brand"
	"grimm.is/linkctl/internal/network"
)

var (
	colorAccent = lipgloss.Color("#A8D8EA")
	colorMuted  = lipgloss.Color("#596E79")
	colorGood   = lipgloss.Color("#4ECDC4")
	colorAlert  = lipgloss.Color("#FF6B6B")

	styleHeader = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Padding(0, 1)
	styleCell   = lipgloss.NewStyle().Padding(0, 1)
	styleUp     = styleCell.Foreground(colorGood).Bold(true)
	styleDown   = styleCell.Foreground(colorAlert)
	styleBorder = lipgloss.NewStyle().Foreground(colorMuted)
)

// showEntry is one row of `show` output.
type showEntry struct {
	network.Snapshot
	Vendor string `json:"vendor,omitempty"`
}

// RunShow prints the attributes of one or more interfaces.
func RunShow(args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	var c Common
	c.Register(fs)
	asJSON := fs.Bool("json", false, "Print JSON instead of a table")
	fs.BoolVar(asJSON, "j", false, "Alias for -json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: %s show [-json] IFACE...", brand.BinaryName)
	}

	return run(fs, &c, false, func(s *session) error {
		return s.show(fs.Args(), *asJSON)
	})
}

func (s *session) show(names []string, asJSON bool) error {
	vendors := s.vendors()

	entries := make([]showEntry, 0, len(names))
	for _, name := range names {
		iface, err := s.bind(name)
		if err != nil {
			return err
		}
		e := showEntry{Snapshot: iface.Snapshot()}
		if vendors != nil {
			addr := e.PermanentAddr
			if addr == "" {
				addr = e.HardwareAddr
			}
			e.Vendor = vendors.Lookup(addr)
		}
		entries = append(entries, e)
		if err := iface.Close(); err != nil {
			s.log.Debug("close failed", "name", name, "error", err)
		}
	}

	if asJSON {
		enc := json.NewEncoder(s.out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	_, err := fmt.Fprintln(s.out, renderTable(entries, vendors != nil))
	return err
}

func renderTable(entries []showEntry, withVendor bool) string {
	headers := []string{"NAME", "INDEX", "KIND", "STATE", "OPER", "ADDRESS", "ALIAS", "FLAGS", "MODE", "CHANNEL"}
	if withVendor {
		headers = append(headers, "VENDOR")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styleBorder).
		Headers(headers...)

	for _, e := range entries {
		alias := "-"
		if e.Alias != nil {
			alias = strconv.Quote(*e.Alias)
		}
		channel := ""
		if e.Channel > 0 {
			channel = strconv.Itoa(e.Channel)
		}
		row := []string{
			e.Name,
			strconv.Itoa(e.Index),
			string(e.Kind),
			string(e.AdminState),
			e.OperState,
			e.HardwareAddr,
			alias,
			e.Flags.String(),
			string(e.Mode),
			channel,
		}
		if withVendor {
			row = append(row, e.Vendor)
		}
		t.Row(row...)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return styleHeader
		case col == 3 && row >= 0 && row < len(entries):
			if entries[row].AdminState == network.StateUp {
				return styleUp
			}
			return styleDown
		default:
			return styleCell
		}
	})
	return t.String()
}
