// Package config loads the linkctl HCL configuration.
//
// A file holds one optional settings block and any number of labelled
// interface blocks describing the desired state of each link:
//
//	settings {
//	  strict          = true
//	  command_timeout = "5s"
//	  parser          = "json"
//	}
//
//	interface "eth0" {
//	  manager = "networkmanager"
//	  managed = false
//	  rename  = "wan0"
//	  alias   = "uplink"
//	  state   = "up"
//	  flags   = { promisc = "off" }
//	}
//
//	interface "wlan0" {
//	  kind    = "wireless"
//	  mode    = "monitor"
//	  channel = 6
//	}
//
// Load and LoadHCL only parse; call Validate before acting on the result.
package config
