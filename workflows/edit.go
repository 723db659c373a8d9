package workflows

import (
	"strings"

	"github.com/beauNate/qwen-image-generator/graphapi"
)

// edit sampling differs from the shared table: the upscale adapter runs a
// long low-denoise schedule, everything else a medium one.
func editSampling(req Request) (samp sampling, denoise float64) {
	if req.UseUpscaleAdapter {
		return resolveSampling(req, sampling{Steps: 50, CFG: 4.0}), 0.6
	}
	return resolveSampling(req, sampling{Steps: 28, CFG: 3.5}), 0.75
}

// BuildEdit compiles an image-edit request.  The supplied image is encoded
// into the latent instead of an empty canvas, and at most one of the angle
// or upscale adapters may be spliced in front of the sampler.
func BuildEdit(req Request) (*Compiled, error) {
	seed := resolveSeed(req)
	samp, denoise := editSampling(req)

	prompt := req.Prompt
	if req.UseAngleAdapter && req.AnglePrompt != "" {
		prompt = strings.TrimSpace(req.AnglePrompt + " " + prompt)
	}

	prefix := "qwen_edit"
	if req.UseUpscaleAdapter {
		prefix = "qwen_upscale"
	}

	g := graphapi.Graph{}
	g.Set("1", graphapi.LoadImage, map[string]graphapi.NodeInput{
		"image": graphapi.String(req.SourceImage),
	})
	g.Set("3", graphapi.CLIPLoaderGGUF, map[string]graphapi.NodeInput{
		"clip_name": graphapi.String(imageCLIPName),
		"type":      graphapi.String("qwen_image"),
	})
	g.Set("4", graphapi.CLIPTextEncode, map[string]graphapi.NodeInput{
		"text": graphapi.String(prompt),
		"clip": graphapi.Edge("3", 0),
	})
	g.Set("5", graphapi.UnetLoaderGGUF, map[string]graphapi.NodeInput{
		"unet_name": graphapi.String(editUnetName),
	})
	g.Set("6", graphapi.VAELoader, map[string]graphapi.NodeInput{
		"vae_name": graphapi.String(imageVAEName),
	})
	g.Set("7", graphapi.VAEEncode, map[string]graphapi.NodeInput{
		"pixels": graphapi.Edge("1", 0),
		"vae":    graphapi.Edge("6", 0),
	})
	g.Set("9", graphapi.CLIPTextEncode, map[string]graphapi.NodeInput{
		"text": graphapi.String(req.Negative),
		"clip": graphapi.Edge("3", 0),
	})

	// at most one auxiliary weight adapter; none falls back to the base model
	model := graphapi.Edge("5", 0)
	switch {
	case req.UseAngleAdapter:
		g.Set("12", graphapi.LoraLoader, map[string]graphapi.NodeInput{
			"lora_name":      graphapi.String(angleLoraName),
			"strength_model": graphapi.Float(0.9),
			"strength_clip":  graphapi.Float(0.9),
			"model":          graphapi.Edge("5", 0),
			"clip":           graphapi.Edge("3", 0),
		})
		model = graphapi.Edge("12", 0)
	case req.UseUpscaleAdapter:
		g.Set("12", graphapi.LoraLoader, map[string]graphapi.NodeInput{
			"lora_name":      graphapi.String(upscaleLoraName),
			"strength_model": graphapi.Float(1.0),
			"strength_clip":  graphapi.Float(1.0),
			"model":          graphapi.Edge("5", 0),
			"clip":           graphapi.Edge("3", 0),
		})
		model = graphapi.Edge("12", 0)
	}

	g.Set("8", graphapi.KSampler, map[string]graphapi.NodeInput{
		"seed":         graphapi.Int64(seed),
		"steps":        graphapi.Int(samp.Steps),
		"cfg":          graphapi.Float(samp.CFG),
		"sampler_name": graphapi.String(req.Sampler),
		"scheduler":    graphapi.String(req.Scheduler),
		"denoise":      graphapi.Float(denoise),
		"model":        model,
		"positive":     graphapi.Edge("4", 0),
		"negative":     graphapi.Edge("9", 0),
		"latent_image": graphapi.Edge("7", 0),
	})
	g.Set("10", graphapi.VAEDecode, map[string]graphapi.NodeInput{
		"samples": graphapi.Edge("8", 0),
		"vae":     graphapi.Edge("6", 0),
	})
	g.Set("11", graphapi.SaveImage, map[string]graphapi.NodeInput{
		"filename_prefix": graphapi.String(prefix),
		"images":          graphapi.Edge("10", 0),
	})

	return &Compiled{Graph: g, Output: graphapi.Edge("11", 0), Seed: seed}, nil
}
