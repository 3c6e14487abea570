package command

import (
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	wgetChunkSize    = 128
	wgetProgressTick = 300 * time.Millisecond
	wgetBarCells     = 50
)

// normalizeWgetFlags rewrites wget's short help/version flags to their
// long form so the shared helpVersion check (which only recognizes
// --help/--version) handles -h and -V too.
func normalizeWgetFlags(params []string) []string {
	out := make([]string, len(params))
	for i, p := range params {
		switch p {
		case "-h":
			out[i] = "--help"
		case "-V":
			out[i] = "--version"
		default:
			out[i] = p
		}
	}
	return out
}

// Wget performs a real HTTP GET of the attacker-supplied URL — this is
// the one command that touches a live endpoint rather than pure
// simulation, so the honeypot can capture whatever payload an attacker
// tries to download — but it only ever follows GET against http(s) and
// writes the response into the sandboxed FS; it never proxies the
// response anywhere else.
func Wget(params []string, ctx *Context) {
	normalized := normalizeWgetFlags(params)
	if helpVersion("wget", normalized, ctx) {
		return
	}

	var outfile, rawURL string
	for i := 0; i < len(normalized); i++ {
		p := normalized[i]
		switch {
		case p == "-O" || p == "--output-document":
			if i+1 < len(normalized) {
				outfile = normalized[i+1]
				i++
			}
		case strings.HasPrefix(p, "-"):
			// unrecognized flag, ignored.
		default:
			rawURL = p
		}
	}

	if rawURL == "" {
		ctx.Term.WriteLine("wget: missing URL")
		ctx.Term.WriteLine("Usage: wget [OPTION]... [URL]...")
		ctx.Term.WriteLine("Try `wget --help' for more options.")
		return
	}

	parsed, parseErr := url.Parse(rawURL)
	fail := parseErr != nil || parsed.Host == "" ||
		(parsed.Scheme != "http" && parsed.Scheme != "https")

	hostname := rawURL
	if parsed != nil && parsed.Hostname() != "" {
		hostname = parsed.Hostname()
	}

	if outfile == "" && parsed != nil {
		if base := path.Base(parsed.Path); base != "" && base != "." && base != "/" {
			outfile = base
		}
	}
	if outfile == "" {
		outfile = "index.html"
	}

	ctx.Term.WriteLine(fmt.Sprintf("--%s--  %s", wgetTimestamp(), rawURL))

	var resp *http.Response
	if !fail {
		client := &http.Client{Timeout: 15 * time.Second}
		r, err := client.Get(rawURL)
		if err != nil || r.StatusCode != http.StatusOK || r.ContentLength < 0 {
			fail = true
			if r != nil {
				r.Body.Close()
			}
		} else {
			resp = r
		}
	}

	if fail {
		ctx.Term.WriteLine(fmt.Sprintf("Resolving %s... failed: Name or service not known.", hostname))
		ctx.Term.WriteLine(fmt.Sprintf("wget: unable to resolve host address '%s'", hostname))
		return
	}
	defer resp.Body.Close()

	ip := wgetResolveIP(hostname)
	ctx.Term.WriteLine(fmt.Sprintf("Resolving %s... %s", hostname, ip))

	port := parsed.Port()
	if port == "" {
		if parsed.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}
	ctx.Term.WriteLine(fmt.Sprintf("Connecting to %s|%s|:%s... connected.", hostname, ip, port))
	ctx.Term.WriteLine("HTTP request sent, awaiting response... 200 OK")

	total := resp.ContentLength
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ctx.Term.WriteLine(fmt.Sprintf("Length: %d (%s) [%s]", total, sizeofFmt(float64(total)), contentType))
	ctx.Term.WriteLine(fmt.Sprintf("Saving to: '%s'", outfile))
	ctx.Term.WriteLine("")

	destPath := path.Clean(path.Join(ctx.Host.WorkingPath(), outfile))
	f, err := ctx.Host.FS.Create(destPath)
	if err != nil {
		ctx.Term.WriteLine(fmt.Sprintf("%s: Permission denied", outfile))
		return
	}
	defer f.Close()

	start := time.Now()
	var got int64
	lastRender := start
	buf := make([]byte, wgetChunkSize)

	for {
		if ctx.Term.Interrupted() {
			break
		}
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr == nil {
				got += int64(n)
			}
		}
		if time.Since(lastRender) >= wgetProgressTick {
			renderWgetProgress(ctx, got, total, start, false)
			lastRender = time.Now()
		}
		if rerr != nil {
			break
		}
	}

	renderWgetProgress(ctx, got, total, start, true)
	ctx.Term.WriteLine("")
	ctx.Term.WriteLine(fmt.Sprintf("%s - '%s' saved [%d/%d]", wgetTimestamp(), outfile, got, total))
}

func wgetTimestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

// wgetResolveIP does a best-effort DNS lookup for display purposes only;
// on failure it synthesizes a plausible dotted quad rather than leaking
// resolver errors.
func wgetResolveIP(hostname string) string {
	if ip := net.ParseIP(hostname); ip != nil {
		return ip.String()
	}
	if addrs, err := net.LookupHost(hostname); err == nil && len(addrs) > 0 {
		return addrs[0]
	}
	return fmt.Sprintf("%d.%d.%d.%d", rand.Intn(254)+1, rand.Intn(255), rand.Intn(255), rand.Intn(255))
}

// renderWgetProgress draws one frame of the ~3Hz progress bar via
// Terminal.UpdateLine, matching wget's own percent/bar/speed layout.
func renderWgetProgress(ctx *Context, got, total int64, start time.Time, final bool) {
	var pct int
	if total > 0 {
		pct = int(float64(got) / float64(total) * 100)
		if pct > 100 {
			pct = 100
		}
	}
	filled := pct * wgetBarCells / 100
	var bar strings.Builder
	bar.WriteString(strings.Repeat("=", filled))
	if filled < wgetBarCells {
		bar.WriteString(">")
		bar.WriteString(strings.Repeat(" ", wgetBarCells-filled-1))
	}

	// Clamp elapsed to avoid a divide-by-zero when a download completes
	// inside one tick.
	elapsed := time.Since(start)
	if elapsed < time.Millisecond {
		elapsed = time.Millisecond
	}
	speed := float64(got) / elapsed.Seconds()

	line := fmt.Sprintf("%3d%%[%s] %s  %s/s", pct, bar.String(), humanize.Comma(got), sizeofFmt(speed))
	if final {
		line += fmt.Sprintf("  in %.1fs", elapsed.Seconds())
	}
	ctx.Term.UpdateLine(line)
}

// sizeofFmt renders num by successive 1024 divisions through units K M
// G T P E Z, falling back to a "Yi" sentinel unit beyond Z.
func sizeofFmt(num float64) string {
	for _, unit := range []string{"", "K", "M", "G", "T", "P", "E", "Z"} {
		if num < 1024.0 {
			return fmt.Sprintf("%3.1f%s", num, unit)
		}
		num /= 1024.0
	}
	return fmt.Sprintf("%.1fYi", num)
}
