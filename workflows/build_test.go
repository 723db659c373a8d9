package workflows

import (
	"errors"
	"testing"

	"github.com/beauNate/qwen-image-generator/graphapi"
)

func seedPtr(v int64) *int64 { return &v }

// every builder and mode combination must emit a graph with no dangling
// edges and a populated sampler
func TestAllBuildersEmitValidGraphs(t *testing.T) {
	cases := []struct {
		name string
		req  Request
	}{
		{"image lightning", NewRequest(Image, "a cat")},
		{"image normal", func() Request {
			r := NewRequest(Image, "a cat")
			r.Mode = Normal
			return r
		}()},
		{"edit plain", func() Request {
			r := NewRequest(ImageEdit, "add a hat")
			r.SourceImage = "input.png"
			return r
		}()},
		{"edit angle", func() Request {
			r := NewRequest(ImageEdit, "rotate")
			r.SourceImage = "input.png"
			r.UseAngleAdapter = true
			r.AnglePrompt = "<sks> right side"
			return r
		}()},
		{"edit upscale", func() Request {
			r := NewRequest(ImageEdit, "")
			r.SourceImage = "input.png"
			r.UseUpscaleAdapter = true
			return r
		}()},
		{"video t2v", NewRequest(Video, "waves at dusk")},
		{"video i2v", func() Request {
			r := NewRequest(Video, "waves at dusk")
			r.Source = FromImage
			r.SourceImage = "start.png"
			return r
		}()},
		{"video normal", func() Request {
			r := NewRequest(Video, "waves at dusk")
			r.Mode = Normal
			return r
		}()},
		{"audio", func() Request {
			r := NewRequest(Audio, "synthwave, 120 bpm")
			r.Lyrics = "[verse]\nneon skies"
			return r
		}()},
		{"mesh", func() Request {
			r := NewRequest(Mesh, "a chess piece")
			r.SourceImage = "piece.png"
			return r
		}()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			compiled, err := Build(tc.req)
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if err := compiled.Graph.Validate(); err != nil {
				t.Fatalf("graph invalid: %v", err)
			}
			if _, ok := compiled.Graph.Node(compiled.Output.NodeID); !ok {
				t.Errorf("root output references missing node %q", compiled.Output.NodeID)
			}
			if compiled.Seed <= 0 || compiled.Seed >= seedModulus {
				t.Errorf("derived seed %d outside engine range", compiled.Seed)
			}
		})
	}
}

func TestExplicitSeedUsedVerbatim(t *testing.T) {
	req := NewRequest(Image, "a cat")
	req.Seed = seedPtr(12345)

	compiled, err := Build(req)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if compiled.Seed != 12345 {
		t.Fatalf("expected seed 12345, got %d", compiled.Seed)
	}

	sampler, _ := compiled.Graph.Node("8")
	lit, ok := sampler.Inputs["seed"].(graphapi.Literal)
	if !ok || lit.Value.(int64) != 12345 {
		t.Errorf("sampler seed input should carry the explicit seed, got %#v", sampler.Inputs["seed"])
	}
}

func TestLightningAdapterRewiresSamplerModel(t *testing.T) {
	req := NewRequest(Image, "a cat")

	compiled, err := Build(req)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	sampler, _ := compiled.Graph.Node("8")
	edge, ok := sampler.Inputs["model"].(graphapi.EdgeRef)
	if !ok || edge.NodeID != "12" {
		t.Errorf("lightning mode should route the sampler through the adapter, got %#v", sampler.Inputs["model"])
	}

	req.Mode = Normal
	compiled, err = Build(req)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	sampler, _ = compiled.Graph.Node("8")
	edge, ok = sampler.Inputs["model"].(graphapi.EdgeRef)
	if !ok || edge.NodeID != "5" {
		t.Errorf("normal mode should use the base model, got %#v", sampler.Inputs["model"])
	}
	if _, present := compiled.Graph.Node("12"); present {
		t.Error("normal mode must not include the adapter node")
	}
}

func TestEditAdaptersMutuallyExclusive(t *testing.T) {
	req := NewRequest(ImageEdit, "fix it")
	req.SourceImage = "input.png"
	req.UseAngleAdapter = true
	req.UseUpscaleAdapter = true

	if _, err := Build(req); !errors.Is(err, ErrAdapterConflict) {
		t.Fatalf("expected ErrAdapterConflict, got %v", err)
	}
}

func TestUnsupportedSourceModeFailsFast(t *testing.T) {
	req := NewRequest(Audio, "ambient drone")
	req.Source = FromImage
	req.SourceImage = "img.png"

	if _, err := Build(req); !errors.Is(err, ErrUnsupportedSource) {
		t.Fatalf("audio image-to-x should be rejected, got %v", err)
	}

	req = NewRequest(Mesh, "a statue")
	if _, err := Build(req); !errors.Is(err, ErrMissingSourceImage) {
		t.Fatalf("mesh without a source image should be rejected, got %v", err)
	}
}

// the mesh pipeline is image-conditioned only, so a prompt is optional
func TestMeshBuildsWithoutPrompt(t *testing.T) {
	req := NewRequest(Mesh, "")
	req.SourceImage = "photo.png"

	compiled, err := Build(req)
	if err != nil {
		t.Fatalf("mesh without a prompt should build, got %v", err)
	}
	if err := compiled.Graph.Validate(); err != nil {
		t.Fatalf("emitted graph invalid: %v", err)
	}
}

func TestVideoBranchesAreExclusive(t *testing.T) {
	req := NewRequest(Video, "a storm")
	compiled, err := Build(req)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if node, _ := compiled.Graph.Node("6"); node.ClassType != graphapi.EmptyLatentVideo {
		t.Errorf("text-to-video should build an empty latent, got %s", node.ClassType)
	}
	if _, present := compiled.Graph.Node("9"); present {
		t.Error("text-to-video must not wire the image conditioning branch")
	}

	req.Source = FromImage
	req.SourceImage = "start.png"
	compiled, err = Build(req)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if node, _ := compiled.Graph.Node("6"); node.ClassType != graphapi.LoadImage {
		t.Errorf("image-to-video should load the supplied image, got %s", node.ClassType)
	}
	sampler, _ := compiled.Graph.Node("11")
	if edge := sampler.Inputs["latent_image"].(graphapi.EdgeRef); edge.NodeID != "9" || edge.Slot != 2 {
		t.Errorf("image-to-video latent should come from the conditioning node, got %#v", edge)
	}
}

func TestResolutionRounding(t *testing.T) {
	cases := []struct {
		in, granule, want int
	}{
		{700, 32, 704},
		{512, 32, 512},
		{511, 32, 512},
		{272, 32, 288},
	}

	for _, tc := range cases {
		if got := roundToMultiple(tc.in, tc.granule); got != tc.want {
			t.Errorf("roundToMultiple(%d, %d) = %d, want %d", tc.in, tc.granule, got, tc.want)
		}
	}

	if got := roundToMultiple(1, 32); got != 32 {
		t.Errorf("tiny sizes must clamp to one granule, got %d", got)
	}

	// dimensions must never be zero or negative anywhere in the valid range
	for res := 256; res <= 2048; res += 32 {
		for _, aspect := range []Aspect{Square, Portrait, Landscape} {
			w, h := dimensions(res, aspect, 32)
			if w <= 0 || h <= 0 || w%32 != 0 || h%32 != 0 {
				t.Fatalf("dimensions(%d, %s) = %dx%d", res, aspect, w, h)
			}
		}
	}
}

func TestFrameNormalization(t *testing.T) {
	for _, tc := range []struct{ in, want int }{
		{33, 33}, {34, 33}, {36, 33}, {37, 37}, {0, 5}, {5, 5},
	} {
		if got := normalizeFrames(tc.in); got != tc.want {
			t.Errorf("normalizeFrames(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestUnknownSamplerRejected(t *testing.T) {
	req := NewRequest(Image, "a cat")
	req.Sampler = "not_a_sampler"
	if _, err := Build(req); !errors.Is(err, ErrUnknownSampler) {
		t.Fatalf("expected ErrUnknownSampler, got %v", err)
	}
}
