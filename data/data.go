// Package data embeds the read-only templates hornetd's command
// emulators and config loader consume: the canonical Linux directory
// list used to pre-seed a fresh vhost filesystem, the --help/--version
// text for each emulated utility, the ifconfig output template, and the
// bundled default config.json copied in when an operator's working
// directory has none yet.
//
// Everything here is loaded once at startup and treated as immutable
// in-memory data for the life of the process.
package data

import "embed"

//go:embed default_config.json
var DefaultConfigJSON []byte

//go:embed linux_fs_list.txt
var LinuxFSListRaw string

//go:embed commands
var Commands embed.FS
