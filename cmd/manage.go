package cmd

import (
	"flag"
	"fmt"

	"grimm.is/linkctl/internal/brand"
	"grimm.is/linkctl/internal/network"
	"grimm.is/linkctl/internal/nmbackend"
)

// RunManage hands an interface to the network manager, or takes it back
// when include is false.
func RunManage(args []string, include bool) error {
	verb := "unmanage"
	if include {
		verb = "manage"
	}
	fs := flag.NewFlagSet(verb, flag.ContinueOnError)
	var c Common
	c.Register(fs)
	manager := fs.String("manager", "", "Manager backend (networkmanager, nmcli); defaults to the interface block")
	fs.StringVar(manager, "m", "", "Alias for -manager")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: %s %s [-manager networkmanager|nmcli] IFACE", brand.BinaryName, verb)
	}
	name := fs.Arg(0)

	return run(fs, &c, false, func(s *session) error {
		backendName := *manager
		if backendName == "" {
			if block, ok := s.cfg.Interface(name); ok {
				backendName = block.Manager
			}
		}
		backend, err := s.backend(backendName)
		if err != nil {
			return err
		}
		return s.manage(name, backendName, backend, include)
	})
}

func (s *session) backend(name string) (network.ManagerBackend, error) {
	return nmbackend.New(name, s.exec, s.log.WithComponent("nmbackend"))
}

func (s *session) manage(name, backendName string, backend network.ManagerBackend, include bool) error {
	opts := []network.Option{}
	if backend != nil {
		opts = append(opts, network.WithManager(backend))
	}
	iface, err := s.bind(name, opts...)
	if err != nil {
		return err
	}
	defer iface.Close()

	if include {
		if err := iface.StartManagement(s.ctx); err != nil {
			return err
		}
		s.p.Fprintf(s.out, "%s handed to %s\n", iface.Name(), backendName)
		return nil
	}
	if err := iface.StopManagement(s.ctx); err != nil {
		return err
	}
	s.p.Fprintf(s.out, "%s released from %s\n", iface.Name(), backendName)
	return nil
}
