package workflows

import (
	"fmt"
	"time"

	"github.com/beauNate/qwen-image-generator/graphapi"
)

// seedModulus keeps derived seeds inside the integer range the engine accepts.
const seedModulus = 999_999_999

// Compiled is the output of a builder: a validated graph, the edge carrying
// the final artifact, and the seed that was actually wired into the sampler.
type Compiled struct {
	Graph  graphapi.Graph
	Output graphapi.EdgeRef
	Seed   int64
}

// model and adapter weight files
const (
	imageCLIPName     = "Qwen2.5-VL-7B-Instruct-abliterated.Q6_K.gguf"
	imageUnetName     = "qwen-image-Q6_K.gguf"
	editUnetName      = "qwen-image-edit-2511-Q4_K_M.gguf"
	imageVAEName      = "qwen_image_vae.safetensors"
	lightningLoraName = "Qwen-Image-Lightning-4steps-V1.0.safetensors"
	angleLoraName     = "Qwen-Image-Edit-Multiple-Angles-LoRA.safetensors"
	upscaleLoraName   = "Qwen-Image-Edit-Upscale2K.safetensors"

	videoUnetName   = "wan2.2_ti2v_5B_fp16.safetensors"
	videoCLIPName   = "umt5_xxl_fp8_e4m3fn_scaled.safetensors"
	videoVAEName    = "wan2.2_vae.safetensors"
	videoLoraName   = "wan2.2_lightx2v_4steps_lora.safetensors"
	clipVisionName  = "clip_vision_h.safetensors"
	audioCheckpoint = "ace_step_v1_3.5b.safetensors"
	meshCheckpoint  = "hunyuan3d-dit-v2.safetensors"
)

// sampling is a per-modality, per-mode (steps, cfg) pair.
type sampling struct {
	Steps int
	CFG   float64
}

var samplingDefaults = map[Modality]map[Mode]sampling{
	Image: {Lightning: {4, 1.0}, Normal: {30, 5.0}},
	Video: {Lightning: {4, 1.0}, Normal: {20, 5.0}},
	Audio: {Lightning: {25, 3.5}, Normal: {50, 5.0}},
	Mesh:  {Lightning: {20, 3.0}, Normal: {50, 5.0}},
}

// Build validates the request and compiles it into a graph for its modality.
func Build(req Request) (*Compiled, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		compiled *Compiled
		err      error
	)
	switch req.Modality {
	case Image:
		compiled, err = BuildImage(req)
	case ImageEdit:
		compiled, err = BuildEdit(req)
	case Video:
		compiled, err = BuildVideo(req)
	case Audio:
		compiled, err = BuildAudio(req)
	case Mesh:
		compiled, err = BuildMesh(req)
	default:
		return nil, fmt.Errorf("unknown modality %q", req.Modality)
	}
	if err != nil {
		return nil, err
	}

	if err := compiled.Graph.Validate(); err != nil {
		return nil, fmt.Errorf("compiled %s graph is invalid: %w", req.Modality, err)
	}
	return compiled, nil
}

// resolveSeed returns the caller's seed verbatim, or derives one from the
// wall clock inside the engine's accepted range.
func resolveSeed(req Request) int64 {
	if req.Seed != nil {
		return *req.Seed
	}
	seed := time.Now().UnixMilli() % seedModulus
	if seed <= 0 {
		seed = 1
	}
	return seed
}

// resolveSampling applies request overrides on top of the mode defaults.
func resolveSampling(req Request, def sampling) sampling {
	if req.Steps > 0 {
		def.Steps = req.Steps
	}
	if req.CFG > 0 {
		def.CFG = req.CFG
	}
	return def
}
