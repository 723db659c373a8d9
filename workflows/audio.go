package workflows

import (
	"github.com/beauNate/qwen-image-generator/graphapi"
)

// BuildAudio compiles a text-to-audio request on the ACE-Step checkpoint.
// Tags describe genre and mood; lyrics text is the optional attachment.
func BuildAudio(req Request) (*Compiled, error) {
	seed := resolveSeed(req)
	samp := resolveSampling(req, samplingDefaults[Audio][req.Mode])

	seconds := req.Seconds
	if seconds <= 0 {
		seconds = 60
	}

	tags := req.Tags
	if tags == "" {
		tags = req.Prompt
	}

	g := graphapi.Graph{}
	g.Set("1", graphapi.CheckpointLoader, map[string]graphapi.NodeInput{
		"ckpt_name": graphapi.String(audioCheckpoint),
	})
	g.Set("2", graphapi.TextEncodeAudio, map[string]graphapi.NodeInput{
		"clip":            graphapi.Edge("1", 1),
		"tags":            graphapi.String(tags),
		"lyrics":          graphapi.String(req.Lyrics),
		"lyrics_strength": graphapi.Float(0.99),
	})
	g.Set("3", graphapi.TextEncodeAudio, map[string]graphapi.NodeInput{
		"clip":            graphapi.Edge("1", 1),
		"tags":            graphapi.String(req.Negative),
		"lyrics":          graphapi.String(""),
		"lyrics_strength": graphapi.Float(0.99),
	})
	g.Set("4", graphapi.EmptyLatentAudio, map[string]graphapi.NodeInput{
		"seconds":    graphapi.Float(seconds),
		"batch_size": graphapi.Int(1),
	})
	g.Set("5", graphapi.KSampler, map[string]graphapi.NodeInput{
		"seed":         graphapi.Int64(seed),
		"steps":        graphapi.Int(samp.Steps),
		"cfg":          graphapi.Float(samp.CFG),
		"sampler_name": graphapi.String(req.Sampler),
		"scheduler":    graphapi.String(req.Scheduler),
		"denoise":      graphapi.Float(1.0),
		"model":        graphapi.Edge("1", 0),
		"positive":     graphapi.Edge("2", 0),
		"negative":     graphapi.Edge("3", 0),
		"latent_image": graphapi.Edge("4", 0),
	})
	g.Set("6", graphapi.VAEDecodeAudio, map[string]graphapi.NodeInput{
		"samples": graphapi.Edge("5", 0),
		"vae":     graphapi.Edge("1", 2),
	})
	g.Set("7", graphapi.SaveAudio, map[string]graphapi.NodeInput{
		"audio":           graphapi.Edge("6", 0),
		"filename_prefix": graphapi.String("qwen_audio"),
	})

	return &Compiled{Graph: g, Output: graphapi.Edge("7", 0), Seed: seed}, nil
}
