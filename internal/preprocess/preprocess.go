// Package preprocess turns raw screen images into the normalized frames that
// are recorded in transitions.
package preprocess

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"golang.org/x/image/draw"

	"github.com/mitchelldurbincs/DoomGatherer/internal/frame"
)

const (
	// DefaultBlurKernel is the side of the Gaussian blur kernel
	DefaultBlurKernel = 39
	// DefaultCropFraction keeps the central half of each side
	DefaultCropFraction = 0.5
	// DefaultClusters is the number of colours a frame is reduced to
	DefaultClusters = 4
)

// Luma weights used for greyscale conversion
const (
	lumaR = 0.2989
	lumaG = 0.5870
	lumaB = 0.1140
)

// ErrEmptyImage is returned for images without pixels
var ErrEmptyImage = errors.New("image has no pixels")

// Config describes the output frame and the fixed pipeline parameters
type Config struct {
	Height   int
	Width    int
	Channels int

	// BlurKernel is the side of the Gaussian kernel, odd
	BlurKernel int
	// CropFraction is the share of each side kept by the central crop
	CropFraction float64
	// Clusters is the number of colours left after quantization
	Clusters int
}

// NewConfig returns the standard pipeline producing height x width x channels
// frames.
func NewConfig(height, width, channels int) Config {
	return Config{
		Height:       height,
		Width:        width,
		Channels:     channels,
		BlurKernel:   DefaultBlurKernel,
		CropFraction: DefaultCropFraction,
		Clusters:     DefaultClusters,
	}
}

// Validate checks the pipeline parameters
func (c Config) Validate() error {
	if c.Height <= 0 || c.Width <= 0 {
		return fmt.Errorf("output resolution must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.Channels != 1 && c.Channels != 3 {
		return fmt.Errorf("channels must be 1 or 3, got %d", c.Channels)
	}
	if c.BlurKernel < 1 || c.BlurKernel%2 == 0 {
		return fmt.Errorf("blur kernel must be a positive odd size, got %d", c.BlurKernel)
	}
	if c.CropFraction <= 0 || c.CropFraction > 1 {
		return fmt.Errorf("crop fraction must be in (0, 1], got %v", c.CropFraction)
	}
	if c.Clusters < 1 {
		return fmt.Errorf("cluster count must be positive, got %d", c.Clusters)
	}
	return nil
}

// Sigma is the Gaussian standard deviation OpenCV derives for the kernel
// size when none is given.
func (c Config) Sigma() float64 {
	return 0.3*(float64(c.BlurKernel-1)*0.5-1) + 0.8
}

// Pipeline applies blur, central crop, nearest-neighbour resize, HSV colour
// quantization and optional greyscale to a screen image. It holds no state
// between calls.
type Pipeline struct {
	cfg Config
}

// New creates a pipeline
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid preprocess config: %w", err)
	}
	return &Pipeline{cfg: cfg}, nil
}

// Config returns the pipeline parameters
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Process converts img into a Height x Width x Channels frame with values
// in [0, 1].
func (p *Pipeline) Process(img image.Image) (*frame.Frame, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}

	blurred := imaging.Blur(img, p.cfg.Sigma())

	cropW, cropH := centralCropSize(b.Dx(), p.cfg.CropFraction), centralCropSize(b.Dy(), p.cfg.CropFraction)
	cropped := imaging.CropCenter(blurred, cropW, cropH)

	resized := image.NewNRGBA(image.Rect(0, 0, p.cfg.Width, p.cfg.Height))
	draw.NearestNeighbor.Scale(resized, resized.Bounds(), cropped, cropped.Bounds(), draw.Src, nil)

	pixels, err := quantize(resized, p.cfg.Clusters)
	if err != nil {
		return nil, err
	}

	out := frame.New(p.cfg.Height, p.cfg.Width, p.cfg.Channels)
	for i, c := range pixels {
		y, x := i/p.cfg.Width, i%p.cfg.Width
		r, g, bl := clamp01(c.R), clamp01(c.G), clamp01(c.B)
		if p.cfg.Channels == 1 {
			out.Set(y, x, 0, float32(lumaR*r+lumaG*g+lumaB*bl))
			continue
		}
		out.Set(y, x, 0, float32(r))
		out.Set(y, x, 1, float32(g))
		out.Set(y, x, 2, float32(bl))
	}
	return out, nil
}

// centralCropSize is the kept length of a side after cropping fraction of it
// around the centre.
func centralCropSize(side int, fraction float64) int {
	start := int((float64(side) - float64(side)*fraction) / 2)
	if size := side - 2*start; size > 0 {
		return size
	}
	return 1
}

// quantize clusters the pixels of img in HSV space and returns every pixel
// replaced by its cluster centre, converted back to RGB, in row-major order.
func quantize(img *image.NRGBA, k int) ([]colorful.Color, error) {
	b := img.Bounds()
	obs := make(clusters.Observations, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			off := img.PixOffset(x, y)
			c := colorful.Color{
				R: float64(img.Pix[off]) / 255,
				G: float64(img.Pix[off+1]) / 255,
				B: float64(img.Pix[off+2]) / 255,
			}
			h, s, v := c.Hsv()
			obs = append(obs, clusters.Coordinates{h / 360, s, v})
		}
	}

	if d := distinct(obs, k); d < k {
		k = d
	}
	parts, err := kmeans.New().Partition(obs, k)
	if err != nil {
		return nil, fmt.Errorf("colour quantization: %w", err)
	}

	// Partition leaves the seed centres in place when no point moves, which
	// always happens with a single cluster.
	parts.Recenter()

	centres := make([]colorful.Color, len(parts))
	labels := make(map[[3]float64]int, k)
	for i, part := range parts {
		centre := part.Center
		if len(centre) != 3 {
			return nil, fmt.Errorf("colour quantization: cluster %d has no centre", i)
		}
		centres[i] = colorful.Hsv(math.Mod(centre[0], 1)*360, centre[1], centre[2])
		for _, o := range part.Observations {
			labels[pointKey(o)] = i
		}
	}

	out := make([]colorful.Color, len(obs))
	for i, o := range obs {
		label, ok := labels[pointKey(o)]
		if !ok {
			label = parts.Nearest(o)
		}
		out[i] = centres[label]
	}
	return out, nil
}

// distinct counts the different points in obs, stopping once it reaches
// limit. Fitting more clusters than distinct points leaves clusters empty.
func distinct(obs clusters.Observations, limit int) int {
	seen := make(map[[3]float64]struct{}, limit)
	for _, o := range obs {
		seen[pointKey(o)] = struct{}{}
		if len(seen) >= limit {
			break
		}
	}
	return len(seen)
}

func pointKey(o clusters.Observation) [3]float64 {
	c := o.Coordinates()
	return [3]float64{c[0], c[1], c[2]}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
