package cmd

import (
	"runtime"

	"grimm.is/linkctl/internal/brand"
)

// RunVersion prints build information.
func RunVersion() {
	Printer.Printf("%s %s\n", brand.Name, brand.Version)
	Printer.Printf("  commit:  %s\n", brand.GitCommit)
	Printer.Printf("  built:   %s\n", brand.BuildTime)
	Printer.Printf("  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
