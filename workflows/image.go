package workflows

import (
	"github.com/beauNate/qwen-image-generator/graphapi"
)

// BuildImage compiles a text-to-image request.  The spine is
// CLIP loader -> prompt encodes -> UNet loader -> VAE loader -> empty
// latent -> sampler -> decode -> save.  Lightning mode splices the 4-step
// adapter between the base model and the sampler.
func BuildImage(req Request) (*Compiled, error) {
	seed := resolveSeed(req)
	width, height := dimensions(req.Resolution, req.Aspect, imageGranularity)
	samp := resolveSampling(req, samplingDefaults[Image][req.Mode])

	g := graphapi.Graph{}
	g.Set("3", graphapi.CLIPLoaderGGUF, map[string]graphapi.NodeInput{
		"clip_name": graphapi.String(imageCLIPName),
		"type":      graphapi.String("qwen_image"),
	})
	g.Set("4", graphapi.CLIPTextEncode, map[string]graphapi.NodeInput{
		"text": graphapi.String(req.Prompt),
		"clip": graphapi.Edge("3", 0),
	})
	g.Set("5", graphapi.UnetLoaderGGUF, map[string]graphapi.NodeInput{
		"unet_name": graphapi.String(imageUnetName),
	})
	g.Set("6", graphapi.VAELoader, map[string]graphapi.NodeInput{
		"vae_name": graphapi.String(imageVAEName),
	})
	g.Set("7", graphapi.EmptyLatent, map[string]graphapi.NodeInput{
		"width":      graphapi.Int(width),
		"height":     graphapi.Int(height),
		"batch_size": graphapi.Int(1),
	})
	g.Set("9", graphapi.CLIPTextEncode, map[string]graphapi.NodeInput{
		"text": graphapi.String(req.Negative),
		"clip": graphapi.Edge("3", 0),
	})

	model := graphapi.Edge("5", 0)
	if req.Mode == Lightning {
		g.Set("12", graphapi.LoraLoader, map[string]graphapi.NodeInput{
			"lora_name":      graphapi.String(lightningLoraName),
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
		"denoise":      graphapi.Float(1.0),
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
		"filename_prefix": graphapi.String("qwen_" + string(req.Mode)),
		"images":          graphapi.Edge("10", 0),
	})

	return &Compiled{Graph: g, Output: graphapi.Edge("11", 0), Seed: seed}, nil
}
