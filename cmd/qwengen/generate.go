package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/beauNate/qwen-image-generator/client"
	"github.com/beauNate/qwen-image-generator/refine"
	"github.com/beauNate/qwen-image-generator/sequencer"
	"github.com/beauNate/qwen-image-generator/store"
	"github.com/beauNate/qwen-image-generator/workflows"
)

type generateFlags struct {
	modality  string
	negative  string
	preset    string
	mode      string
	source    string
	size      int
	aspect    string
	seed      int64
	sampler   string
	scheduler string
	steps     int
	cfg       float64
	image     string

	frames  int
	seconds float64
	lyrics  string
	tags    string

	angle       bool
	upscale     bool
	anglePrompt string

	octree    int
	threshold float64

	count int
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate [prompt...]",
		Short: "Generate an image, video, audio clip or mesh",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, ctx, flags, strings.Join(args, " "))
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.modality, "modality", "m", "image", "image, image-edit, video, audio or mesh")
	f.StringVar(&flags.negative, "negative", "", "Negative prompt")
	f.StringVarP(&flags.preset, "preset", "p", "", "Named preset (quick, portrait, landscape, wallpaper, quality, hd_quality)")
	f.StringVar(&flags.mode, "mode", "", "lightning or normal")
	f.StringVar(&flags.source, "source", "", "text or image conditioning (video only)")
	f.IntVar(&flags.size, "size", 0, "Base resolution in pixels")
	f.StringVar(&flags.aspect, "aspect", "", "square, portrait or landscape")
	f.Int64Var(&flags.seed, "seed", 0, "Fixed seed; 0 derives one")
	f.StringVar(&flags.sampler, "sampler", "", "Sampler name")
	f.StringVar(&flags.scheduler, "scheduler", "", "Scheduler name")
	f.IntVar(&flags.steps, "steps", 0, "Step count override")
	f.Float64Var(&flags.cfg, "cfg", 0, "CFG override")
	f.StringVarP(&flags.image, "image", "i", "", "Local image to upload as the conditioning input")
	f.IntVar(&flags.frames, "frames", 0, "Video frame count")
	f.Float64Var(&flags.seconds, "seconds", 0, "Audio length in seconds")
	f.StringVar(&flags.lyrics, "lyrics", "", "Audio lyrics")
	f.StringVar(&flags.tags, "tags", "", "Audio style tags")
	f.BoolVar(&flags.angle, "angle", false, "Use the camera-angle adapter (image-edit)")
	f.BoolVar(&flags.upscale, "upscale", false, "Use the upscale adapter (image-edit)")
	f.StringVar(&flags.anglePrompt, "angle-prompt", "", "Camera direction for the angle adapter")
	f.IntVar(&flags.octree, "octree", 0, "Mesh octree resolution")
	f.Float64Var(&flags.threshold, "threshold", 0, "Mesh surface threshold")
	f.IntVarP(&flags.count, "count", "n", 1, "Number of variations to generate")

	return cmd
}

func buildRequest(flags generateFlags, prompt string) workflows.Request {
	req := workflows.NewRequest(workflows.Modality(flags.modality), prompt)
	req.Negative = flags.negative
	if preset, found := workflows.Presets[flags.preset]; found {
		preset.Apply(&req)
	}
	if flags.mode != "" {
		req.Mode = workflows.Mode(flags.mode)
	}
	if flags.source != "" {
		req.Source = workflows.Source(flags.source)
	}
	if flags.size != 0 {
		req.Resolution = flags.size
	}
	if flags.aspect != "" {
		req.Aspect = workflows.Aspect(flags.aspect)
	}
	if flags.seed != 0 {
		seed := flags.seed
		req.Seed = &seed
	}
	if flags.sampler != "" {
		req.Sampler = flags.sampler
	}
	if flags.scheduler != "" {
		req.Scheduler = flags.scheduler
	}
	req.Steps = flags.steps
	req.CFG = flags.cfg
	if flags.frames != 0 {
		req.Frames = flags.frames
	}
	if flags.seconds != 0 {
		req.Seconds = flags.seconds
	}
	req.Lyrics = flags.lyrics
	req.Tags = flags.tags
	req.UseAngleAdapter = flags.angle
	req.UseUpscaleAdapter = flags.upscale
	req.AnglePrompt = flags.anglePrompt
	if flags.octree != 0 {
		req.OctreeResolution = flags.octree
	}
	if flags.threshold != 0 {
		req.MeshThreshold = flags.threshold
	}
	return req
}

func runGenerate(cmd *cobra.Command, ctx *commandContext, flags generateFlags, prompt string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	st, err := store.New(cfg.StateDir)
	if err != nil {
		return fmt.Errorf("open state dir: %w", err)
	}
	settings, err := st.Settings()
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	engine := client.NewClient(cfg.EngineAddress)
	engine.SetLogger(ctx.logger)
	engine.SetPollInterval(cfg.PollInterval())
	if settings.AutoUnloadOllama {
		engine.SetUnloader(refine.NewRefiner(cfg.OllamaURL, settings.OllamaModel))
	}
	if !engine.Healthy() {
		return fmt.Errorf("engine at %s is not reachable", cfg.EngineAddress)
	}

	req := buildRequest(flags, prompt)
	if flags.image != "" {
		name, err := engine.UploadFromPath(flags.image, true)
		if err != nil {
			return fmt.Errorf("upload %s: %w", flags.image, err)
		}
		req.SourceImage = name
		if req.Modality == workflows.Video {
			req.Source = workflows.FromImage
		}
	}
	if err := req.Validate(); err != nil {
		return err
	}

	gen := client.NewGenerator(engine)

	if flags.count > 1 {
		items, err := sequencer.RunBatch(cmd.Context(), gen, req, flags.count)
		for _, item := range items {
			fmt.Printf("%s  (seed %d)\n", item.Artifact.Path(), item.Seed)
		}
		return err
	}

	jobID, seed, err := gen.Submit(cmd.Context(), req)
	if err != nil {
		return err
	}
	fmt.Printf("queued %s (seed %d)\n", jobID, seed)

	if isatty.IsTerminal(os.Stdout.Fd()) {
		go trackProgress(cmd.Context(), engine, jobID)
	}

	artifact, err := gen.Wait(cmd.Context(), jobID)
	if err != nil {
		return err
	}
	fmt.Println(artifact.Path())
	return nil
}

// trackProgress renders a live step bar until the job reaches a terminal
// state.  Rendering is best-effort; poll errors just skip a tick.
func trackProgress(ctx context.Context, engine *client.Client, jobID string) {
	var bar *progressbar.ProgressBar
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		status, err := engine.Progress(jobID)
		if err != nil {
			continue
		}
		switch status.State {
		case client.StateGenerating:
			if bar == nil {
				bar = progressbar.Default(int64(status.TotalSteps), "generating")
			}
			_ = bar.Set(status.Step)
		case client.StateDone:
			if bar != nil {
				_ = bar.Finish()
			}
			return
		case client.StateError:
			return
		}
	}
}

func newRefineCommand(ctx *commandContext) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "refine [prompt...]",
		Short: "Rewrite a prompt with the local language model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			prompt := strings.Join(args, " ")
			if strings.TrimSpace(prompt) == "" {
				return errors.New("a prompt is required")
			}

			st, err := store.New(cfg.StateDir)
			if err != nil {
				return fmt.Errorf("open state dir: %w", err)
			}
			settings, err := st.Settings()
			if err != nil {
				return fmt.Errorf("read settings: %w", err)
			}

			refiner := refine.NewRefiner(cfg.OllamaURL, settings.OllamaModel)
			refined, err := refiner.Refine(cmd.Context(), prompt, refine.RefineMode(mode))
			if err != nil {
				return err
			}
			fmt.Println(refined)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "refine", "refine, expand or style")
	return cmd
}
