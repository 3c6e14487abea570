package command

import "strings"

// Echo: no params prints an empty line; a single "$NAME" token looks
// NAME up in the host's environment (missing → empty); a standalone "*"
// token is replaced by the current working directory's listing (no
// recursive glob expansion); otherwise tokens are joined with single
// spaces.
func Echo(params []string, ctx *Context) {
	if len(params) == 0 {
		ctx.Term.WriteLine("")
		return
	}

	if len(params) == 1 && strings.HasPrefix(params[0], "$") {
		ctx.Term.WriteLine(ctx.Host.Env[params[0][1:]])
		return
	}

	out := make([]string, 0, len(params))
	for _, p := range params {
		if p == "*" {
			entries, err := ctx.Host.FS.ListDir(ctx.Host.WorkingPath())
			if err == nil {
				out = append(out, entries...)
				continue
			}
		}
		out = append(out, p)
	}
	ctx.Term.WriteLine(strings.Join(out, " "))
}
