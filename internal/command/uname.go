package command

import (
	"fmt"
	"strings"
)

var unameFields = []struct {
	flag  string
	field string
}{
	{"-s", "kernel"},
	{"-n", "node"},
	{"-r", "release"},
	{"-v", "version"},
	{"-m", "machine"},
	{"-p", "processor"},
	{"-i", "platform"},
	{"-o", "os"},
}

func unameFacts(ctx *Context) map[string]string {
	return map[string]string{
		"kernel":    "Linux",
		"node":      ctx.Host.Hostname,
		"release":   "3.13.0-37-generic",
		"version":   "#64-Ubuntu SMP Mon Sep 22 21:30:01 UTC 2014",
		"machine":   "i686",
		"processor": "i686",
		"platform":  "i686",
		"os":        "GNU/Linux",
	}
}

// Uname: no params prints just the kernel name; -a prints all eight
// fields in a fixed order; other recognized flags append their field to
// the output in that same fixed order regardless of the order given; an
// unrecognized flag is an invalid-option error.
func Uname(params []string, ctx *Context) {
	if helpVersion("uname", params, ctx) {
		return
	}

	facts := unameFacts(ctx)

	if len(params) == 0 {
		ctx.Term.WriteLine(facts["kernel"])
		return
	}

	for _, p := range params {
		if p == "-a" || p == "--all" {
			out := make([]string, 0, len(unameFields))
			for _, f := range unameFields {
				out = append(out, facts[f.field])
			}
			ctx.Term.WriteLine(strings.Join(out, " "))
			return
		}
	}

	requested := make(map[string]bool, len(params))
	for _, p := range params {
		matched := false
		for _, f := range unameFields {
			if p == f.flag {
				requested[f.field] = true
				matched = true
				break
			}
		}
		if !matched {
			ctx.Term.WriteError(fmt.Sprintf("uname: invalid option -- '%s'", strings.TrimLeft(p, "-")))
			return
		}
	}

	out := make([]string, 0, len(requested))
	for _, f := range unameFields {
		if requested[f.field] {
			out = append(out, facts[f.field])
		}
	}
	ctx.Term.WriteLine(strings.Join(out, " "))
}
