package command

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aniketpanse/hornetd/internal/vfs"
)

type lsFlags struct {
	all       bool
	directory bool
	long      bool
}

// parseLsFlags recognizes -a/--all, -d/--directory, -l (including
// bundled short forms like -la or -ld) and silently ignores every other
// GNU ls flag. Remaining tokens are returned as paths.
func parseLsFlags(params []string) (lsFlags, []string) {
	var fl lsFlags
	var paths []string
	for _, p := range params {
		switch {
		case p == "--all":
			fl.all = true
		case p == "--directory":
			fl.directory = true
		case p == "--":
			// end of flags marker; GNU ls treats the rest as paths.
		case strings.HasPrefix(p, "--"):
			// unrecognized long flag, ignored.
		case strings.HasPrefix(p, "-") && len(p) > 1:
			for _, c := range p[1:] {
				switch c {
				case 'a':
					fl.all = true
				case 'd':
					fl.directory = true
				case 'l':
					fl.long = true
				}
			}
		default:
			paths = append(paths, p)
		}
	}
	return fl, paths
}

// Ls lists one or more sandboxed paths, in plain or long (-l) format.
func Ls(params []string, ctx *Context) {
	if helpVersion("ls", params, ctx) {
		return
	}

	fl, paths := parseLsFlags(params)
	if len(paths) == 0 {
		paths = []string{ctx.Host.WorkingPath()}
	}

	type resolved struct {
		key       string
		virtual   string
		missing   bool
		isDir     bool
	}

	results := make([]resolved, 0, len(paths))
	for _, p := range paths {
		virtual := normalizeLsPath(ctx, p)
		r := resolved{key: p, virtual: virtual}
		if !ctx.Host.FS.Exists(virtual) {
			r.missing = true
		} else {
			r.isDir = ctx.Host.FS.IsDir(virtual)
		}
		results = append(results, r)
	}

	var blocks []string
	for _, r := range results {
		if r.missing {
			blocks = append(blocks, fmt.Sprintf("ls: cannot access %s: No such file or directory", r.key))
			continue
		}

		var header string
		var lines []string
		if fl.directory || !r.isDir {
			lines = []string{formatEntry(ctx, r.virtual, "", r.key, fl.long)}
		} else {
			entries, err := ctx.Host.FS.ListDir(r.virtual)
			if err != nil {
				blocks = append(blocks, fmt.Sprintf("ls: cannot access %s: No such file or directory", r.key))
				continue
			}
			names := filterHidden(entries, fl.all)
			if fl.all {
				names = append([]string{".", ".."}, names...)
			}
			var total int64
			for _, name := range names {
				total += blockCount(ctx, r.virtual, name)
			}
			if fl.long {
				header = fmt.Sprintf("total %d", total/2)
			}

			for _, name := range names {
				lines = append(lines, formatEntry(ctx, r.virtual, name, name, fl.long))
			}
		}

		var block strings.Builder
		if len(results) > 1 && !fl.directory && r.isDir {
			block.WriteString(r.key + ":\n")
		}
		if header != "" {
			block.WriteString(header + "\n")
		}
		if fl.long {
			block.WriteString(strings.Join(lines, "\n"))
		} else {
			block.WriteString(strings.Join(lines, " "))
		}
		blocks = append(blocks, block.String())
	}

	ctx.Term.WriteLine(strings.TrimRight(strings.Join(blocks, "\n\n"), "\n"))
}

// normalizeLsPath normalizes against the working path, and on a
// back-reference escape strips all leading '.'/'/' characters before
// retrying rather than resetting to root outright.
func normalizeLsPath(ctx *Context, p string) string {
	virtual := path.Clean(path.Join(ctx.Host.WorkingPath(), p))
	if _, err := ctx.Host.FS.GetSysPath(virtual); errors.Is(err, vfs.ErrBackReference) {
		stripped := strings.TrimLeft(p, "./")
		virtual = path.Clean(path.Join(ctx.Host.WorkingPath(), stripped))
	}
	return virtual
}

func filterHidden(entries []string, all bool) []string {
	if all {
		out := make([]string, len(entries))
		copy(out, entries)
		sort.Strings(out)
		return out
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if !strings.HasPrefix(e, ".") {
			out = append(out, e)
		}
	}
	sort.Strings(out)
	return out
}

// statEntry resolves the os.FileInfo backing dirVirtual (when name is ""
// it means dirVirtual itself is the target, i.e. a non-directory path or
// -d mode) or dirVirtual/name, special-casing "." and ".." to stat the
// real backing directory and its parent.
func statEntry(ctx *Context, dirVirtual, name string) (os.FileInfo, error) {
	switch name {
	case "":
		return ctx.Host.FS.Stat(dirVirtual)
	case ".":
		return ctx.Host.FS.Stat(dirVirtual)
	case "..":
		sysPath, err := ctx.Host.FS.GetSysPath(dirVirtual)
		if err != nil {
			return ctx.Host.FS.Stat(dirVirtual)
		}
		return os.Stat(filepath.Dir(sysPath))
	default:
		return ctx.Host.FS.Stat(path.Join(dirVirtual, name))
	}
}

// blockCount estimates an entry's 512-byte block count: 8 for a
// directory, the file size rounded up to whole blocks for anything else.
// The real st_blocks value is not read.
func blockCount(ctx *Context, dirVirtual, name string) int64 {
	info, err := statEntry(ctx, dirVirtual, name)
	if err != nil {
		return 0
	}
	if info.IsDir() {
		return 8
	}
	return (info.Size() + 511) / 512
}

func formatEntry(ctx *Context, dirVirtual, name, display string, long bool) string {
	if !long {
		return display
	}
	info, err := statEntry(ctx, dirVirtual, name)
	if err != nil {
		return display
	}
	nlink := 1
	if info.IsDir() {
		nlink = 2
	}
	return fmt.Sprintf("%s %d ftp ftp %8d %s %s",
		info.Mode().String(), nlink, info.Size(), lsTimestamp(info.ModTime()), display)
}

func lsTimestamp(t time.Time) string {
	return t.Format("Jan _2 15:04")
}
