package workflows

import (
	"errors"
	"fmt"

	"github.com/mcuadros/go-defaults"
)

// Modality selects which generation pipeline a request compiles into.
type Modality string

const (
	Image     Modality = "image"
	ImageEdit Modality = "image-edit"
	Video     Modality = "video"
	Audio     Modality = "audio"
	Mesh      Modality = "mesh"
)

// Mode is the quality-vs-speed flag.  Lightning mode runs few steps with a
// distilled weight adapter, normal mode runs the full schedule.
type Mode string

const (
	Lightning Mode = "lightning"
	Normal    Mode = "normal"
)

// Source selects between a text-conditioned and an image-conditioned
// pipeline variant.  Exactly one branch is ever wired into a graph.
type Source string

const (
	FromText  Source = "text"
	FromImage Source = "image"
)

// Aspect selects the output aspect ratio from a single linear size.
type Aspect string

const (
	Square    Aspect = "square"
	Portrait  Aspect = "portrait"
	Landscape Aspect = "landscape"
)

// Samplers and Schedulers are the sampler vocabularies the engine accepts.
var (
	Samplers = []string{
		"euler", "euler_ancestral", "heun", "dpm_2", "dpm_2_ancestral", "lms",
		"dpm_fast", "dpm_adaptive", "dpmpp_2s_ancestral", "dpmpp_sde", "dpmpp_2m",
	}
	Schedulers = []string{
		"normal", "karras", "exponential", "sgm_uniform", "simple", "ddim_uniform",
	}
)

var (
	ErrUnsupportedSource    = errors.New("source mode not supported for this modality")
	ErrAdapterConflict      = errors.New("angle and upscale adapters are mutually exclusive")
	ErrMissingPrompt        = errors.New("prompt is required")
	ErrMissingSourceImage   = errors.New("a source image is required")
	ErrUnknownSampler       = errors.New("unknown sampler")
	ErrUnknownScheduler     = errors.New("unknown scheduler")
	ErrResolutionOutOfRange = errors.New("resolution out of supported range")
)

// Request is the immutable input to a builder.  Construct with NewRequest so
// defaults are applied, then adjust fields before the first Build call.
type Request struct {
	Modality Modality
	Prompt   string
	Negative string

	Mode   Mode   `default:"lightning"`
	Source Source `default:"text"`

	Resolution int    `default:"512"`
	Aspect     Aspect `default:"square"`

	// Seed, when non-nil, is used verbatim.  When nil the builder derives
	// a fresh seed and reports it in the compiled result.
	Seed *int64

	Sampler   string `default:"euler"`
	Scheduler string `default:"normal"`

	// Steps and CFG override the mode defaults when non-zero.
	Steps int
	CFG   float64

	// SourceImage is the engine-side filename of an uploaded image, required
	// for image-edit, mesh, and image-to-video requests.
	SourceImage string

	// video
	Frames int `default:"33"`

	// audio
	Seconds float64 `default:"60"`
	Lyrics  string
	Tags    string

	// image-edit adapters, mutually exclusive
	UseAngleAdapter   bool
	UseUpscaleAdapter bool
	AnglePrompt       string

	// mesh
	OctreeResolution int     `default:"256"`
	MeshThreshold    float64 `default:"0.6"`
}

// NewRequest returns a Request for the given modality with defaults applied.
func NewRequest(modality Modality, prompt string) Request {
	r := Request{}
	defaults.SetDefaults(&r)
	r.Modality = modality
	r.Prompt = prompt
	if modality == ImageEdit || modality == Mesh {
		// these pipelines are image-conditioned only
		r.Source = FromImage
	}
	return r
}

// Validate fails fast on unsupported mode combinations and out-of-range
// numeric input, before anything is submitted to the engine.
func (r Request) Validate() error {
	switch r.Modality {
	case Image, ImageEdit, Video, Audio, Mesh:
	default:
		return fmt.Errorf("unknown modality %q", r.Modality)
	}

	switch r.Mode {
	case Lightning, Normal:
	default:
		return fmt.Errorf("unknown mode %q", r.Mode)
	}
	switch r.Source {
	case FromText, FromImage:
	default:
		return fmt.Errorf("unknown source mode %q", r.Source)
	}
	switch r.Aspect {
	case Square, Portrait, Landscape:
	default:
		return fmt.Errorf("unknown aspect %q", r.Aspect)
	}

	// a pure upscale edit may run without an instruction prompt, and the
	// mesh pipeline conditions on the image alone
	promptOptional := r.Modality == Mesh ||
		(r.Modality == ImageEdit && r.UseUpscaleAdapter)
	if r.Prompt == "" && !promptOptional {
		return ErrMissingPrompt
	}

	switch r.Modality {
	case Image, Audio:
		if r.Source == FromImage {
			return fmt.Errorf("%s: only the text weight set is installed: %w", r.Modality, ErrUnsupportedSource)
		}
	case ImageEdit, Mesh:
		if r.Source == FromText || r.SourceImage == "" {
			if r.SourceImage == "" {
				return fmt.Errorf("%s: %w", r.Modality, ErrMissingSourceImage)
			}
			return fmt.Errorf("%s: %w", r.Modality, ErrUnsupportedSource)
		}
	case Video:
		if r.Source == FromImage && r.SourceImage == "" {
			return fmt.Errorf("image-to-video: %w", ErrMissingSourceImage)
		}
	}

	if r.UseAngleAdapter && r.UseUpscaleAdapter {
		return ErrAdapterConflict
	}

	if r.Resolution < 256 || r.Resolution > 2048 {
		return fmt.Errorf("%d: %w", r.Resolution, ErrResolutionOutOfRange)
	}

	if !contains(Samplers, r.Sampler) {
		return fmt.Errorf("%q: %w", r.Sampler, ErrUnknownSampler)
	}
	if !contains(Schedulers, r.Scheduler) {
		return fmt.Errorf("%q: %w", r.Scheduler, ErrUnknownScheduler)
	}
	return nil
}

func contains(vocab []string, v string) bool {
	for _, s := range vocab {
		if s == v {
			return true
		}
	}
	return false
}
