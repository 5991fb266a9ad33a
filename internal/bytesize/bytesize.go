// Package bytesize parses and formats byte quantities such as transfer
// buffer and chunk sizes.
package bytesize

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteSize is a size in bytes. It decodes from plain numbers or from
// strings with a decimal (K, MB) or binary (Ki, MiB) unit suffix, case
// insensitively.
type ByteSize uint64

const (
	B  ByteSize = 1
	KB ByteSize = 1000
	MB ByteSize = 1000 * KB
	GB ByteSize = 1000 * MB

	KiB ByteSize = 1024
	MiB ByteSize = 1024 * KiB
	GiB ByteSize = 1024 * MiB
)

var units = map[string]ByteSize{
	"": B, "b": B,
	"k": KB, "kb": KB,
	"m": MB, "mb": MB,
	"g": GB, "gb": GB,
	"ki": KiB, "kib": KiB,
	"mi": MiB, "mib": MiB,
	"gi": GiB, "gib": GiB,
}

// binary lists the units String and MarshalText pick from, largest first.
var binary = []struct {
	suffix string
	size   ByteSize
}{
	{"GiB", GiB},
	{"MiB", MiB},
	{"KiB", KiB},
}

// Parse parses s into a ByteSize. Fractions are allowed with a unit
// ("1.5MiB") and truncated to whole bytes.
func Parse(s string) (ByteSize, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	i := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if i < 0 {
		i = len(s)
	}
	num, suffix := s[:i], strings.ToLower(strings.TrimSpace(s[i:]))
	if num == "" {
		return 0, fmt.Errorf("invalid byte size %q: missing number", s)
	}

	unit, ok := units[suffix]
	if !ok {
		return 0, fmt.Errorf("invalid byte size %q: unknown unit %q", s, s[i:])
	}

	if strings.Contains(num, ".") {
		f, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
		}
		return ByteSize(f * float64(unit)), nil
	}
	n, err := strconv.ParseUint(num, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	return ByteSize(n) * unit, nil
}

// String formats b for humans with two decimals in the largest binary unit
// that fits, e.g. "1.50MiB".
func (b ByteSize) String() string {
	for _, u := range binary {
		if b >= u.size {
			return fmt.Sprintf("%.2f%s", float64(b)/float64(u.size), u.suffix)
		}
	}
	return fmt.Sprintf("%dB", uint64(b))
}

// MarshalText encodes b exactly: in the largest binary unit dividing it, or
// as a plain number.
func (b ByteSize) MarshalText() ([]byte, error) {
	if b != 0 {
		for _, u := range binary {
			if b%u.size == 0 {
				return []byte(strconv.FormatUint(uint64(b/u.size), 10) + u.suffix), nil
			}
		}
	}
	return []byte(strconv.FormatUint(uint64(b), 10)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *ByteSize) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// Int returns b as an int, saturating at the maximum int value.
func (b ByteSize) Int() int {
	const maxInt = int(^uint(0) >> 1)
	if uint64(b) > uint64(maxInt) {
		return maxInt
	}
	return int(b)
}
