// Package frame holds ensemble snapshots handed to consumers of the
// simulation, and their binary encoding.
//
// A frame is encoded as a protobuf message:
//
//	message Frame {
//	  uint64 index         = 1;
//	  double order         = 2;
//	  repeated double x    = 3 [packed = true];
//	  repeated double y    = 4 [packed = true];
//	  repeated double theta = 5 [packed = true];
//	}
//
// so any protobuf runtime can read the files written by Writer.
package frame

import (
	"errors"
	"fmt"
	"math"

	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/analysis"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/vicsek"
	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformed is wrapped by decoding errors.
var ErrMalformed = errors.New("malformed frame")

const (
	fieldIndex   protowire.Number = 1
	fieldOrder   protowire.Number = 2
	fieldX       protowire.Number = 3
	fieldY       protowire.Number = 4
	fieldHeading protowire.Number = 5
)

// Frame is a read-only copy of the ensemble after Index steps.
type Frame struct {
	Index     uint64
	Order     float64
	Positions []geometry.Vector2D
	Headings  []float64
}

// Capture snapshots sim. The slices are copies, safe to hand to another
// goroutine.
func Capture(sim *vicsek.Simulator) *Frame {
	headings := sim.Headings()
	return &Frame{
		Index:     sim.StepCount(),
		Order:     analysis.OrderParameter(headings),
		Positions: sim.Positions(),
		Headings:  headings,
	}
}

// Len returns the particle count.
func (f *Frame) Len() int { return len(f.Positions) }

// MarshalBinary implements encoding.BinaryMarshaler.
func (f *Frame) MarshalBinary() ([]byte, error) {
	if len(f.Positions) != len(f.Headings) {
		return nil, fmt.Errorf("%w: %d positions for %d headings", ErrMalformed, len(f.Positions), len(f.Headings))
	}
	n := len(f.Positions)
	b := make([]byte, 0, 24+3*(8*n+protowire.SizeVarint(uint64(8*n))+1))

	b = protowire.AppendTag(b, fieldIndex, protowire.VarintType)
	b = protowire.AppendVarint(b, f.Index)
	b = protowire.AppendTag(b, fieldOrder, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(f.Order))

	b = appendPacked(b, fieldX, n, func(i int) float64 { return f.Positions[i].X })
	b = appendPacked(b, fieldY, n, func(i int) float64 { return f.Positions[i].Y })
	b = appendPacked(b, fieldHeading, n, func(i int) float64 { return f.Headings[i] })
	return b, nil
}

func appendPacked(b []byte, num protowire.Number, n int, at func(i int) float64) []byte {
	if n == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(8*n))
	for i := 0; i < n; i++ {
		b = protowire.AppendFixed64(b, math.Float64bits(at(i)))
	}
	return b
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. Unknown fields
// are skipped.
func (f *Frame) UnmarshalBinary(b []byte) error {
	var xs, ys, headings []float64
	*f = Frame{}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldIndex && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("%w: index: %v", ErrMalformed, protowire.ParseError(n))
			}
			f.Index = v
			b = b[n:]
		case num == fieldOrder && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return fmt.Errorf("%w: order: %v", ErrMalformed, protowire.ParseError(n))
			}
			f.Order = math.Float64frombits(v)
			b = b[n:]
		case (num == fieldX || num == fieldY || num == fieldHeading) && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			values, err := decodePacked(v)
			if err != nil {
				return fmt.Errorf("field %d: %w", num, err)
			}
			switch num {
			case fieldX:
				xs = append(xs, values...)
			case fieldY:
				ys = append(ys, values...)
			default:
				headings = append(headings, values...)
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	if len(xs) != len(ys) || len(xs) != len(headings) {
		return fmt.Errorf("%w: %d x, %d y and %d headings", ErrMalformed, len(xs), len(ys), len(headings))
	}
	f.Positions = make([]geometry.Vector2D, len(xs))
	for i := range xs {
		f.Positions[i] = geometry.Vector2D{X: xs[i], Y: ys[i]}
	}
	f.Headings = headings
	return nil
}

func decodePacked(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("%w: packed doubles of %d bytes", ErrMalformed, len(b))
	}
	values := make([]float64, 0, len(b)/8)
	for len(b) > 0 {
		v, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		values = append(values, math.Float64frombits(v))
		b = b[n:]
	}
	return values, nil
}
