package cmd

import (
	"flag"
	"fmt"

	"grimm.is/linkctl/internal/brand"
)

// RunChannels lists the channels a wireless interface can tune to.
func RunChannels(args []string) error {
	fs := flag.NewFlagSet("channels", flag.ContinueOnError)
	var c Common
	c.Register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: %s channels IFACE", brand.BinaryName)
	}

	return run(fs, &c, false, func(s *session) error {
		return s.channels(fs.Arg(0))
	})
}

func (s *session) channels(name string) error {
	iface, err := s.bind(name)
	if err != nil {
		return err
	}
	defer iface.Close()

	w, ok := iface.Wireless()
	if !ok {
		return fmt.Errorf("%s is not a wireless interface", iface.Name())
	}
	seq, err := w.SupportedChannels(s.ctx)
	if err != nil {
		return err
	}
	for ch := range seq {
		fmt.Fprintln(s.out, ch)
	}
	return nil
}
