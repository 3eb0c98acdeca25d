package sensor

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"codeberg.org/mutker/deepcoolctl/internal/errors"
)

const percentScale = 100

// readLoad computes aggregate CPU utilization from the delta between the
// current and previous /proc/stat readings. The first call only primes the
// counters and reports zero load.
func (h *Hwmon) readLoad() (float64, error) {
	busy, total, err := h.readStatCounters()
	if err != nil {
		return 0, err
	}

	defer func() {
		h.prevBusy = busy
		h.prevTotal = total
		h.hasPrev = true
	}()

	if !h.hasPrev || total <= h.prevTotal {
		return 0, nil
	}

	deltaBusy := busy - h.prevBusy
	deltaTotal := total - h.prevTotal

	return float64(deltaBusy) / float64(deltaTotal) * percentScale, nil
}

func (h *Hwmon) readStatCounters() (busy, total uint64, err error) {
	errFactory := errors.New()

	f, err := os.Open(h.statPath)
	if err != nil {
		return 0, 0, errFactory.Wrap(ErrLoadRead, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}

		return parseStatLine(line)
	}

	return 0, 0, errFactory.New(ErrLoadRead)
}

// parseStatLine parses the aggregate "cpu" line:
// user nice system idle iowait irq softirq steal [guest guest_nice]
func parseStatLine(line string) (busy, total uint64, err error) {
	errFactory := errors.New()

	fields := strings.Fields(line)[1:]
	if len(fields) < 8 {
		return 0, 0, errFactory.WithData(ErrMalformedStatLine, line)
	}

	values := make([]uint64, len(fields))
	for i, field := range fields {
		if values[i], err = strconv.ParseUint(field, 10, 64); err != nil {
			return 0, 0, errFactory.Wrap(ErrMalformedStatLine, err)
		}
	}

	user, nice, system := values[0], values[1], values[2]
	idle, iowait := values[3], values[4]
	irq, softirq, steal := values[5], values[6], values[7]

	busy = user + nice + system + irq + softirq + steal
	total = busy + idle + iowait

	return busy, total, nil
}
