package workflows

import (
	"github.com/beauNate/qwen-image-generator/graphapi"
)

// BuildMesh compiles an image-to-mesh request on the Hunyuan3D v2
// checkpoint.  The voxel decode resolution and the surface threshold are
// the modality-specific attachments.
func BuildMesh(req Request) (*Compiled, error) {
	seed := resolveSeed(req)
	samp := resolveSampling(req, samplingDefaults[Mesh][req.Mode])

	threshold := req.MeshThreshold
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.6
	}

	g := graphapi.Graph{}
	g.Set("1", graphapi.LoadImage, map[string]graphapi.NodeInput{
		"image": graphapi.String(req.SourceImage),
	})
	g.Set("2", graphapi.ImageOnlyCheckpointLoader, map[string]graphapi.NodeInput{
		"ckpt_name": graphapi.String(meshCheckpoint),
	})
	g.Set("3", graphapi.CLIPVisionEncode, map[string]graphapi.NodeInput{
		"clip_vision": graphapi.Edge("2", 1),
		"image":       graphapi.Edge("1", 0),
		"crop":        graphapi.String("center"),
	})
	g.Set("4", graphapi.Hunyuan3DConditioning, map[string]graphapi.NodeInput{
		"clip_vision_output": graphapi.Edge("3", 0),
	})
	g.Set("5", graphapi.EmptyLatentMesh, map[string]graphapi.NodeInput{
		"resolution": graphapi.Int(3072),
		"batch_size": graphapi.Int(1),
	})
	g.Set("6", graphapi.KSampler, map[string]graphapi.NodeInput{
		"seed":         graphapi.Int64(seed),
		"steps":        graphapi.Int(samp.Steps),
		"cfg":          graphapi.Float(samp.CFG),
		"sampler_name": graphapi.String(req.Sampler),
		"scheduler":    graphapi.String(req.Scheduler),
		"denoise":      graphapi.Float(1.0),
		"model":        graphapi.Edge("2", 0),
		"positive":     graphapi.Edge("4", 0),
		"negative":     graphapi.Edge("4", 1),
		"latent_image": graphapi.Edge("5", 0),
	})
	g.Set("7", graphapi.VAEDecodeMesh, map[string]graphapi.NodeInput{
		"samples":           graphapi.Edge("6", 0),
		"vae":               graphapi.Edge("2", 2),
		"num_chunks":        graphapi.Int(8000),
		"octree_resolution": graphapi.Int(clampOctree(req.OctreeResolution)),
	})
	g.Set("8", graphapi.VoxelToMesh, map[string]graphapi.NodeInput{
		"voxel":     graphapi.Edge("7", 0),
		"threshold": graphapi.Float(threshold),
	})
	g.Set("9", graphapi.SaveGLB, map[string]graphapi.NodeInput{
		"mesh":            graphapi.Edge("8", 0),
		"filename_prefix": graphapi.String("qwen_mesh"),
	})

	return &Compiled{Graph: g, Output: graphapi.Edge("9", 0), Seed: seed}, nil
}
