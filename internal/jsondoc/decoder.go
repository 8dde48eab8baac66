package jsondoc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tidwall/gjson"
)

const (
	// NestingLimit is the deepest container nesting a document may have.
	NestingLimit = 20

	growthFactor = 2

	// Every value takes one slot; strings and keys also take their bytes
	// plus a terminator.
	slotSize       = 16
	stringOverhead = 1
)

var (
	ErrNoMemory     = errors.New("not enough memory")
	ErrInvalidInput = errors.New("invalid input")
	ErrTooDeep      = errors.New("too deep")

	errBufferFull = errors.New("buffer full")
)

type Decoder struct {
	mem          Memory
	nestingLimit int
	log          *slog.Logger
}

func NewDecoder(mem Memory, log *slog.Logger) *Decoder {
	return &Decoder{
		mem:          mem,
		nestingLimit: NestingLimit,
		log:          log,
	}
}

// Decode parses data into a Document. The buffer starts at one and a half
// times the input size, capped by the available memory, and doubles each time
// it runs out until doubling would reach the available memory.
func (d *Decoder) Decode(ctx context.Context, data []byte) (*Document, error) {
	free := d.mem.Available()
	size := min(free, len(data)+len(data)/2)

	if size <= 0 {
		d.log.ErrorContext(ctx, "Failed to allocate JSON buffer",
			"requestedBytes", size,
			"freeBytes", free)

		return nil, fmt.Errorf("allocate buffer (size = %d, free = %d): %w", size, free, ErrNoMemory)
	}

	for attempt := 1; ; attempt++ {
		used, err := d.measure(data, size)

		switch {
		case err == nil:
			return &Document{
				root:     gjson.ParseBytes(data),
				capacity: used,
				attempts: attempt,
			}, nil

		case errors.Is(err, errBufferFull):
			if size*growthFactor >= free {
				d.log.ErrorContext(ctx, "Failed to grow JSON buffer",
					"bufferBytes", size,
					"freeBytes", free,
					"inputBytes", len(data),
					"attempts", attempt)

				return nil, fmt.Errorf("grow buffer (size = %d, free = %d): %w", size, free, ErrNoMemory)
			}

			d.log.DebugContext(ctx, "Growing JSON buffer",
				"bufferBytes", size,
				"nextBufferBytes", size*growthFactor,
				"attempt", attempt)

			size *= growthFactor

		default:
			d.log.ErrorContext(ctx, "Failed to parse JSON",
				"error", err,
				"inputBytes", len(data))

			return nil, err
		}
	}
}

// measure walks the document as a parse into a buffer of the given size would
// and returns the number of bytes the tree occupies.
func (d *Decoder) measure(data []byte, size int) (int, error) {
	if !gjson.ValidBytes(data) {
		return 0, ErrInvalidInput
	}

	b := &buffer{size: size}
	if err := d.walk(gjson.ParseBytes(data), 0, b); err != nil {
		return 0, err
	}

	return b.used, nil
}

func (d *Decoder) walk(v gjson.Result, depth int, b *buffer) error {
	if !b.take(slotSize) {
		return errBufferFull
	}

	switch {
	case v.IsObject() || v.IsArray():
		if depth >= d.nestingLimit {
			return fmt.Errorf("nesting limit %d: %w", d.nestingLimit, ErrTooDeep)
		}

		var err error
		v.ForEach(func(key, value gjson.Result) bool {
			if key.Type == gjson.String && !b.take(len(key.Str)+stringOverhead) {
				err = errBufferFull
				return false
			}

			err = d.walk(value, depth+1, b)
			return err == nil
		})

		return err

	case v.Type == gjson.String:
		if !b.take(len(v.Str) + stringOverhead) {
			return errBufferFull
		}
	}

	return nil
}

type buffer struct {
	size int
	used int
}

func (b *buffer) take(n int) bool {
	b.used += n
	return b.used <= b.size
}
