// Command hornetd runs the SSH honeypot: a root cobra command with
// "serve", "version", and "genkey" subcommands, following the same
// persistent-flag-plus-subcommand-file layout as matchlock's CLI.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
