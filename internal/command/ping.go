package command

import (
	"fmt"
	"math/rand"
	"regexp"
	"time"
)

var ipv4Pattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

const (
	pingMeanLow         = 13.0
	pingMeanHigh        = 140.0
	pingStddev          = 3.0
	pingSuccessProb     = 0.93
	pingTick            = time.Second
	pingPollGranularity = 100 * time.Millisecond
)

// resolvePingTarget: an IPv4-looking target is reverse-looked-up against
// the fleet (falling back to itself as both host and address when no
// vhost owns it); any other target is looked up as a hostname directly.
func resolvePingTarget(ctx *Context, target string) (host, ip string, ok bool) {
	if ipv4Pattern.MatchString(target) {
		if h, found := ctx.Fleet.ByIP(target); found {
			return h.Hostname, h.IPAddress, true
		}
		return target, target, true
	}
	if h, found := ctx.Fleet[target]; found {
		return h.Hostname, h.IPAddress, true
	}
	return "", "", false
}

// Ping runs a randomized-latency simulation until the shell's interrupt
// flag is set, then prints the standard statistics summary. The
// packet-loss percentage intentionally divides by the total tick count
// including the one during which Ctrl-C arrived.
func Ping(params []string, ctx *Context) {
	if helpVersion("ping", params, ctx) {
		return
	}

	var target string
	for _, p := range params {
		if len(p) > 0 && p[0] != '-' {
			target = p
			break
		}
	}
	if target == "" {
		ctx.Term.WriteError("ping: usage error: Destination address required")
		return
	}

	host, ip, ok := resolvePingTarget(ctx, target)
	if !ok {
		ctx.Term.WriteLine("ping: unknown host " + target)
		return
	}

	ctx.Term.WriteLine(fmt.Sprintf("PING %s (%s) 56(84) bytes of data.", host, ip))

	mean := pingMeanLow + rand.Float64()*(pingMeanHigh-pingMeanLow)

	totalCount := 1
	successCount := 0
	var times []float64
	seq := 1

	for !ctx.Term.Interrupted() {
		if rand.Float64() < pingSuccessProb {
			t := rand.NormFloat64()*pingStddev + mean
			if t < 0 {
				t = 0
			}
			ctx.Term.WriteLine(fmt.Sprintf("64 bytes from %s (%s): icmp_seq=%d ttl=53 time=%.1f ms", host, ip, seq, t))
			successCount++
			times = append(times, t)
			seq++
		}
		totalCount++
		if !sleepInterruptible(ctx, pingTick) {
			break
		}
	}

	ctx.Term.WriteLine("^C")
	loss := 100.0
	if totalCount > 0 {
		loss = 100.0 * float64(totalCount-successCount) / float64(totalCount)
	}
	var timeSum float64
	for _, t := range times {
		timeSum += t
	}
	ctx.Term.WriteLine(fmt.Sprintf("--- %s ping statistics ---", host))
	ctx.Term.WriteLine(fmt.Sprintf("%d packets transmitted, %d received, %.2f%% packet loss, time %.2fms",
		totalCount, successCount, loss, timeSum))

	if successCount > 0 {
		min, avg, max, mdev := pingRTTStats(times)
		ctx.Term.WriteLine(fmt.Sprintf("rtt min/avg/max/mdev = %.3f/%.3f/%.3f/%.3f ms", min, avg, max, mdev))
	}
}

// sleepInterruptible sleeps in small increments so Ctrl-C is noticed
// promptly rather than only at the end of a full tick, and reports
// whether d elapsed without an interrupt.
func sleepInterruptible(ctx *Context, d time.Duration) bool {
	var waited time.Duration
	for waited < d {
		if ctx.Term.Interrupted() {
			return false
		}
		step := pingPollGranularity
		if d-waited < step {
			step = d - waited
		}
		time.Sleep(step)
		waited += step
	}
	return !ctx.Term.Interrupted()
}

func pingRTTStats(times []float64) (min, avg, max, mdev float64) {
	min, max = times[0], times[0]
	var sum float64
	for _, t := range times {
		if t < min {
			min = t
		}
		if t > max {
			max = t
		}
		sum += t
	}
	avg = sum / float64(len(times))
	var devSum float64
	for _, t := range times {
		d := t - avg
		if d < 0 {
			d = -d
		}
		devSum += d
	}
	mdev = devSum / float64(len(times))
	return
}
