// Package frame holds the numeric frame type recorded in transitions and the
// sliding window of recent frames the gatherer keeps.
package frame

import (
	"fmt"
	"image"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var f Frame
	serializer.RegisterTypedDeserializer(f.SerializerType(), DeserializeFrame)
}

// Frame is a Height x Width x Channels array of float32 values, stored
// row-major with channels innermost.
type Frame struct {
	Height   int
	Width    int
	Channels int
	Data     []float32
}

// New creates an all-zero frame
func New(height, width, channels int) *Frame {
	if height <= 0 || width <= 0 || channels <= 0 {
		panic(fmt.Sprintf("invalid frame shape %dx%dx%d", height, width, channels))
	}
	return &Frame{
		Height:   height,
		Width:    width,
		Channels: channels,
		Data:     make([]float32, height*width*channels),
	}
}

// Terminal returns the placeholder recorded once the simulation has no
// further observation: zeros in the given shape.
func Terminal(height, width, channels int) *Frame {
	return New(height, width, channels)
}

// Shape returns (height, width, channels)
func (f *Frame) Shape() [3]int {
	return [3]int{f.Height, f.Width, f.Channels}
}

// At returns the value at row y, column x, channel c
func (f *Frame) At(y, x, c int) float32 {
	return f.Data[f.index(y, x, c)]
}

// Set stores v at row y, column x, channel c
func (f *Frame) Set(y, x, c int, v float32) {
	f.Data[f.index(y, x, c)] = v
}

// IsZero reports whether every value is zero
func (f *Frame) IsZero() bool {
	for _, x := range f.Data {
		if x != 0 {
			return false
		}
	}
	return true
}

func (f *Frame) index(y, x, c int) int {
	return (y*f.Width+x)*f.Channels + c
}

// FromRGB24 converts a packed RGB24 screen buffer into an opaque image.
func FromRGB24(buf []uint8, width, height int) (*image.NRGBA, error) {
	if len(buf) != width*height*3 {
		return nil, fmt.Errorf("RGB24 buffer has %d bytes, want %d for %dx%d",
			len(buf), width*height*3, width, height)
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i < len(buf); i, j = i+3, j+4 {
		img.Pix[j] = buf[i]
		img.Pix[j+1] = buf[i+1]
		img.Pix[j+2] = buf[i+2]
		img.Pix[j+3] = 0xff
	}
	return img, nil
}

// DeserializeFrame deserializes a Frame.
func DeserializeFrame(d []byte) (*Frame, error) {
	var res Frame
	var data serializer.Float32Slice
	if err := serializer.DeserializeAny(d, &res.Height, &res.Width, &res.Channels, &data); err != nil {
		return nil, essentials.AddCtx("deserialize Frame", err)
	}
	res.Data = []float32(data)
	if res.Height*res.Width*res.Channels != len(res.Data) {
		return nil, fmt.Errorf("deserialize Frame: shape %dx%dx%d does not hold %d values",
			res.Height, res.Width, res.Channels, len(res.Data))
	}
	return &res, nil
}

// SerializerType returns the unique ID used to serialize a Frame with the
// serializer package.
func (f *Frame) SerializerType() string {
	return "github.com/mitchelldurbincs/DoomGatherer/internal/frame.Frame"
}

// Serialize serializes the Frame.
func (f *Frame) Serialize() ([]byte, error) {
	return serializer.SerializeAny(
		f.Height, f.Width, f.Channels,
		serializer.Float32Slice(f.Data),
	)
}
