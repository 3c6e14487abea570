package command

import (
	"errors"
	"path"

	"github.com/aniketpanse/hornetd/internal/vfs"
)

// Cd: no params resets the working path to "/"; a single param is
// normalized against the working path and, absent a back-reference
// escape or a missing target, becomes the new working path. A
// back-reference escape is silently rewritten to "/".
func Cd(params []string, ctx *Context) {
	if len(params) == 0 {
		ctx.Host.SetWorkingPath("/")
		return
	}

	target := params[0]
	cdPath := path.Clean(path.Join(ctx.Host.WorkingPath(), target))

	if _, err := ctx.Host.FS.GetSysPath(cdPath); errors.Is(err, vfs.ErrBackReference) {
		ctx.Host.SetWorkingPath("/")
		return
	}

	if !ctx.Host.FS.Exists(cdPath) {
		ctx.Term.WriteError("cd: " + target + ": No such file or directory")
		return
	}

	ctx.Host.SetWorkingPath(cdPath)
}
