// Package network inspects and mutates Linux network interfaces by running
// iproute2 (`ip`) and `iw` and parsing their output.
//
// # Overview
//
// [Bind] returns an [Interface] bound to the kernel ifindex of a named device
// and populated with a snapshot of its name, alias, hardware addresses,
// administrative state and device flags. Wireless devices additionally carry
// a [Wireless] view with mode and channel.
//
// # Verified Mutation
//
// Every setter follows the same contract: read the current value, run the
// mutation, read again and compare. A command that exits 0 but leaves the
// value unchanged is reported as [ErrNotChanged]. Command failures are
// *[CommandError] values carrying argv, exit code and stderr.
//
// # Error Modes
//
// An Interface is strict or permissive ([WithStrictErrors]). Strict mode
// returns every anomaly. Permissive mode logs verification and validation
// anomalies and returns (false, nil). Command failures, stale handles,
// [ErrManagerNotConfigured] and [ErrNotImplemented] are returned in both modes.
//
// # Identity
//
// Commands target the current name, but the handle belongs to the ifindex.
// [Interface.SetName] retargets the handle. An external rename is followed
// through a [LinkResolver]; a device that vanished or whose name now belongs
// to another index yields [ErrStale].
//
// # Example
//
//	iface, err := network.Bind(ctx, "eth0", network.WithStrictErrors(true))
//	if err != nil {
//	    return err
//	}
//	defer iface.Close()
//
//	if _, err := iface.SetDeviceFlag(ctx, "promisc", "on"); err != nil {
//	    return err
//	}
package network
