package workflows

import (
	"github.com/beauNate/qwen-image-generator/graphapi"
)

// BuildVideo compiles a video request on the Wan 2.2 spine.  The text
// branch builds an empty latent video; the image branch swaps it for a
// start-image conditioning node fed by a vision encoder.  Exactly one of
// the two is wired into the sampler.
func BuildVideo(req Request) (*Compiled, error) {
	seed := resolveSeed(req)
	width, height := dimensions(req.Resolution, req.Aspect, videoGranularity)
	frames := normalizeFrames(req.Frames)
	samp := resolveSampling(req, samplingDefaults[Video][req.Mode])

	g := graphapi.Graph{}
	g.Set("1", graphapi.UNETLoader, map[string]graphapi.NodeInput{
		"unet_name":    graphapi.String(videoUnetName),
		"weight_dtype": graphapi.String("default"),
	})
	g.Set("2", graphapi.CLIPLoader, map[string]graphapi.NodeInput{
		"clip_name": graphapi.String(videoCLIPName),
		"type":      graphapi.String("wan"),
	})
	g.Set("3", graphapi.VAELoader, map[string]graphapi.NodeInput{
		"vae_name": graphapi.String(videoVAEName),
	})
	g.Set("4", graphapi.CLIPTextEncode, map[string]graphapi.NodeInput{
		"text": graphapi.String(req.Prompt),
		"clip": graphapi.Edge("2", 0),
	})
	g.Set("5", graphapi.CLIPTextEncode, map[string]graphapi.NodeInput{
		"text": graphapi.String(req.Negative),
		"clip": graphapi.Edge("2", 0),
	})

	// conditioning and latent edges differ per source branch
	positive := graphapi.Edge("4", 0)
	negative := graphapi.Edge("5", 0)
	var latent graphapi.EdgeRef

	if req.Source == FromImage {
		g.Set("6", graphapi.LoadImage, map[string]graphapi.NodeInput{
			"image": graphapi.String(req.SourceImage),
		})
		g.Set("7", graphapi.CLIPVisionLoader, map[string]graphapi.NodeInput{
			"clip_name": graphapi.String(clipVisionName),
		})
		g.Set("8", graphapi.CLIPVisionEncode, map[string]graphapi.NodeInput{
			"clip_vision": graphapi.Edge("7", 0),
			"image":       graphapi.Edge("6", 0),
			"crop":        graphapi.String("none"),
		})
		g.Set("9", graphapi.WanImageToVideo, map[string]graphapi.NodeInput{
			"positive":           graphapi.Edge("4", 0),
			"negative":           graphapi.Edge("5", 0),
			"vae":                graphapi.Edge("3", 0),
			"clip_vision_output": graphapi.Edge("8", 0),
			"start_image":        graphapi.Edge("6", 0),
			"width":              graphapi.Int(width),
			"height":             graphapi.Int(height),
			"length":             graphapi.Int(frames),
			"batch_size":         graphapi.Int(1),
		})
		positive = graphapi.Edge("9", 0)
		negative = graphapi.Edge("9", 1)
		latent = graphapi.Edge("9", 2)
	} else {
		g.Set("6", graphapi.EmptyLatentVideo, map[string]graphapi.NodeInput{
			"width":      graphapi.Int(width),
			"height":     graphapi.Int(height),
			"length":     graphapi.Int(frames),
			"batch_size": graphapi.Int(1),
		})
		latent = graphapi.Edge("6", 0)
	}

	model := graphapi.Edge("1", 0)
	if req.Mode == Lightning {
		g.Set("10", graphapi.LoraLoaderModel, map[string]graphapi.NodeInput{
			"lora_name":      graphapi.String(videoLoraName),
			"strength_model": graphapi.Float(1.0),
			"model":          graphapi.Edge("1", 0),
		})
		model = graphapi.Edge("10", 0)
	}

	g.Set("11", graphapi.KSampler, map[string]graphapi.NodeInput{
		"seed":         graphapi.Int64(seed),
		"steps":        graphapi.Int(samp.Steps),
		"cfg":          graphapi.Float(samp.CFG),
		"sampler_name": graphapi.String(req.Sampler),
		"scheduler":    graphapi.String(req.Scheduler),
		"denoise":      graphapi.Float(1.0),
		"model":        model,
		"positive":     positive,
		"negative":     negative,
		"latent_image": latent,
	})
	g.Set("12", graphapi.VAEDecode, map[string]graphapi.NodeInput{
		"samples": graphapi.Edge("11", 0),
		"vae":     graphapi.Edge("3", 0),
	})
	g.Set("13", graphapi.SaveAnimatedWEBP, map[string]graphapi.NodeInput{
		"images":          graphapi.Edge("12", 0),
		"filename_prefix": graphapi.String("qwen_video"),
		"fps":             graphapi.Float(16.0),
		"lossless":        graphapi.Bool(false),
		"quality":         graphapi.Int(90),
		"method":          graphapi.String("default"),
	})

	return &Compiled{Graph: g, Output: graphapi.Edge("13", 0), Seed: seed}, nil
}
