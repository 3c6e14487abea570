package command

import (
	"fmt"
	"strings"

	"github.com/aniketpanse/hornetd/data"
)

type ifaceStanza struct {
	name string
	text string
}

// parseIfconfigTemplate splits data/commands/ifconfig/output_template on
// blank lines into per-interface stanzas, keyed by the first whitespace
// token of each stanza's first line (e.g. "eth0", "lo").
func parseIfconfigTemplate() []ifaceStanza {
	b, err := data.Commands.ReadFile("commands/ifconfig/output_template")
	if err != nil {
		return nil
	}
	raw := strings.ReplaceAll(string(b), "\r\n", "\n")
	blocks := strings.Split(raw, "\n\n")

	var stanzas []ifaceStanza
	for _, block := range blocks {
		block = strings.Trim(block, "\n")
		if block == "" {
			continue
		}
		firstLine := block
		if i := strings.IndexByte(block, '\n'); i >= 0 {
			firstLine = block[:i]
		}
		fields := strings.Fields(firstLine)
		if len(fields) == 0 {
			continue
		}
		stanzas = append(stanzas, ifaceStanza{name: fields[0], text: block})
	}
	return stanzas
}

// Ifconfig: no params renders every stanza; two or more params always
// yields the permission-denied line real ifconfig gives an unprivileged
// flag-setting attempt; one param renders the matching stanza or a
// device-not-found error.
func Ifconfig(params []string, ctx *Context) {
	if helpVersion("ifconfig", params, ctx) {
		return
	}

	if len(params) >= 2 {
		ctx.Term.WriteLine("SIOCSIFFLAGS: Operation not permitted")
		return
	}

	stanzas := parseIfconfigTemplate()
	substitute := strings.NewReplacer(
		"${ip_addr}", ctx.Host.IPAddress,
		"${broadcast_addr}", ctx.Network.Broadcast(),
		"${subnet_mask}", ctx.Network.Netmask(),
	).Replace

	if len(params) == 0 {
		out := make([]string, 0, len(stanzas))
		for _, s := range stanzas {
			out = append(out, substitute(s.text))
		}
		ctx.Term.WriteLine(strings.Join(out, "\n\n"))
		return
	}

	iface := params[0]
	for _, s := range stanzas {
		if s.name == iface {
			ctx.Term.WriteLine(substitute(s.text))
			return
		}
	}
	ctx.Term.WriteLine(fmt.Sprintf("%s: error fetching interface information: Device not found", iface))
}
