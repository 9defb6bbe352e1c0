package cmd

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"grimm.is/linkctl/internal/brand"
	"grimm.is/linkctl/internal/oui"
)

// RunOUI handles the "oui" command: fetch builds the vendor database from
// the IEEE registries, lookup resolves addresses against it.
func RunOUI(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s oui fetch [-o FILE] | lookup MAC...", brand.BinaryName)
	}

	switch args[0] {
	case "fetch":
		fs := flag.NewFlagSet("oui fetch", flag.ContinueOnError)
		output := fs.String("output", brand.OUIPath(), "Where to write the database")
		fs.StringVar(output, "o", brand.OUIPath(), "Alias for -output")
		timeout := fs.Duration("timeout", 5*time.Minute, "Overall download timeout")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, *timeout)
		defer cancel()
		return fetchOUI(ctx, http.DefaultClient, *output, oui.DefaultSources...)

	case "lookup":
		fs := flag.NewFlagSet("oui lookup", flag.ContinueOnError)
		db := fs.String("oui-db", brand.OUIPath(), "Vendor database written by 'oui fetch'")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		return lookupOUI(*db, fs.Args())

	default:
		return fmt.Errorf("unknown oui subcommand %q", args[0])
	}
}

func fetchOUI(ctx context.Context, client *http.Client, output string, sources ...string) error {
	db, err := oui.Build(ctx, client, sources...)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return err
	}

	// Write next to the target and rename so readers never see a partial file.
	tmp := output + ".tmp"
	if err := db.Save(tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, output); err != nil {
		return err
	}
	Printer.Printf("%d prefixes written to %s\n", db.Len(), output)
	return nil
}

func lookupOUI(path string, macs []string) error {
	db, err := oui.LoadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load vendor database (run '%s oui fetch'): %w", brand.BinaryName, err)
	}
	for _, mac := range macs {
		vendor := db.Lookup(mac)
		if vendor == "" {
			vendor = "unknown"
		}
		Printer.Printf("%s\t%s\n", mac, vendor)
	}
	return nil
}
