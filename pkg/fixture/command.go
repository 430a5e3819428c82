package fixture

import (
	"io"
	"strconv"
)

// Command is one unit of the fixture mini-language. It serializes to one
// line, or two when a reset follows a set.
type Command interface {
	// AppendTo appends the serialized command to buf.
	AppendTo(buf []byte) []byte
	// Key returns the key the command operates on.
	Key() int
}

// GetKey serializes to "k <key>\n".
type GetKey struct {
	K int
}

// SetKey serializes to "s k <key>\n", followed by a "r\n" line when Reset is set.
type SetKey struct {
	K     int
	Reset bool
}

var (
	setPrefix = []byte("s ")
	keyPrefix = []byte("k ")
	resetLine = []byte("r\n")
)

func (c GetKey) Key() int { return c.K }

func (c GetKey) AppendTo(buf []byte) []byte {
	buf = append(buf, keyPrefix...)
	buf = strconv.AppendInt(buf, int64(c.K), 10)
	return append(buf, '\n')
}

func (c SetKey) Key() int { return c.K }

func (c SetKey) AppendTo(buf []byte) []byte {
	buf = append(buf, setPrefix...)
	buf = GetKey{K: c.K}.AppendTo(buf)
	if c.Reset {
		buf = append(buf, resetLine...)
	}
	return buf
}

// WriteCommand serializes c to w.
func WriteCommand(w io.Writer, c Command) (int, error) {
	var scratch [32]byte
	return w.Write(c.AppendTo(scratch[:0]))
}
