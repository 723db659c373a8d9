package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/beauNate/qwen-image-generator/client"
	"github.com/beauNate/qwen-image-generator/refine"
	"github.com/beauNate/qwen-image-generator/store"
	"github.com/beauNate/qwen-image-generator/workflows"
)

// generatePayload is the wire form of a generation request.  It is mapped
// onto a workflows.Request so the defaults apply to every unset field.
type generatePayload struct {
	Modality string `json:"modality"`
	Prompt   string `json:"prompt"`
	Negative string `json:"negative"`
	Preset   string `json:"preset"`

	Mode   string `json:"mode"`
	Source string `json:"source"`

	Resolution int    `json:"resolution"`
	Aspect     string `json:"aspect"`

	Seed      *int64  `json:"seed"`
	Sampler   string  `json:"sampler"`
	Scheduler string  `json:"scheduler"`
	Steps     int     `json:"steps"`
	CFG       float64 `json:"cfg"`

	SourceImage string `json:"source_image"`

	Frames  int     `json:"frames"`
	Seconds float64 `json:"seconds"`
	Lyrics  string  `json:"lyrics"`
	Tags    string  `json:"tags"`

	UseAngleAdapter   bool   `json:"use_angle_adapter"`
	UseUpscaleAdapter bool   `json:"use_upscale_adapter"`
	AnglePrompt       string `json:"angle_prompt"`

	OctreeResolution int     `json:"octree_resolution"`
	MeshThreshold    float64 `json:"mesh_threshold"`
}

func (p generatePayload) toRequest() workflows.Request {
	modality := workflows.Modality(p.Modality)
	if modality == "" {
		modality = workflows.Image
	}
	req := workflows.NewRequest(modality, p.Prompt)
	req.Negative = p.Negative

	if preset, found := workflows.Presets[p.Preset]; found {
		preset.Apply(&req)
	}

	if p.Mode != "" {
		req.Mode = workflows.Mode(p.Mode)
	}
	if p.Source != "" {
		req.Source = workflows.Source(p.Source)
	}
	if p.Resolution != 0 {
		req.Resolution = p.Resolution
	}
	if p.Aspect != "" {
		req.Aspect = workflows.Aspect(p.Aspect)
	}
	req.Seed = p.Seed
	if p.Sampler != "" {
		req.Sampler = p.Sampler
	}
	if p.Scheduler != "" {
		req.Scheduler = p.Scheduler
	}
	req.Steps = p.Steps
	req.CFG = p.CFG
	req.SourceImage = p.SourceImage
	if p.Frames != 0 {
		req.Frames = p.Frames
	}
	if p.Seconds != 0 {
		req.Seconds = p.Seconds
	}
	req.Lyrics = p.Lyrics
	req.Tags = p.Tags
	req.UseAngleAdapter = p.UseAngleAdapter
	req.UseUpscaleAdapter = p.UseUpscaleAdapter
	req.AnglePrompt = p.AnglePrompt
	if p.OctreeResolution != 0 {
		req.OctreeResolution = p.OctreeResolution
	}
	if p.MeshThreshold != 0 {
		req.MeshThreshold = p.MeshThreshold
	}
	return req
}

func (s *Server) handleHealth(c fiber.Ctx) error {
	if !s.engine.Healthy() {
		return fail(c, fiber.StatusServiceUnavailable, "engine unreachable")
	}
	return ok(c, nil)
}

func (s *Server) handleGenerate(c fiber.Ctx) error {
	var payload generatePayload
	if err := c.Bind().JSON(&payload); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	req := payload.toRequest()
	if err := req.Validate(); err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	jobID, seed, err := s.gen.Submit(c.Context(), req)
	if err != nil {
		return fail(c, fiber.StatusBadGateway, err.Error())
	}

	if req.Prompt != "" {
		entry := store.HistoryEntry{
			Prompt:     req.Prompt,
			Negative:   req.Negative,
			Mode:       string(req.Mode),
			Resolution: req.Resolution,
			Aspect:     string(req.Aspect),
			Timestamp:  time.Now().Unix(),
		}
		if err := s.store.AddHistory(entry); err != nil {
			s.logger.Warn("history write failed", "error", err)
		}
	}

	return ok(c, fiber.Map{"job_id": jobID, "seed": seed})
}

func (s *Server) handleProgress(c fiber.Ctx) error {
	status, err := s.engine.Progress(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadGateway, err.Error())
	}
	payload := fiber.Map{
		"state":       string(status.State),
		"step":        status.Step,
		"total_steps": status.TotalSteps,
	}
	if status.Message != "" {
		payload["message"] = status.Message
	}
	if status.Artifact != nil {
		payload["artifact"] = status.Artifact
	}
	return ok(c, payload)
}

func (s *Server) handleWait(c fiber.Ctx) error {
	artifact, err := s.gen.Wait(c.Context(), c.Params("id"))
	if err != nil {
		var jobErr *client.JobError
		switch {
		case errors.Is(err, client.ErrWaitTimeout):
			return fail(c, fiber.StatusGatewayTimeout, err.Error())
		case errors.As(err, &jobErr):
			return fail(c, fiber.StatusUnprocessableEntity, jobErr.Message)
		default:
			return fail(c, fiber.StatusBadGateway, err.Error())
		}
	}
	return ok(c, fiber.Map{"artifact": artifact, "url": artifact.Path()})
}

func (s *Server) handleInterrupt(c fiber.Ctx) error {
	if err := s.engine.Interrupt(); err != nil {
		return fail(c, fiber.StatusBadGateway, err.Error())
	}
	return ok(c, nil)
}

func (s *Server) handleUpload(c fiber.Ctx) error {
	header, err := c.FormFile("image")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "missing image file")
	}
	file, err := header.Open()
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "unreadable image file")
	}
	defer file.Close()

	name, err := s.engine.UploadFromReader(file, header.Filename, true)
	if err != nil {
		return fail(c, fiber.StatusBadGateway, err.Error())
	}
	return ok(c, fiber.Map{"filename": name})
}

type refinePayload struct {
	Prompt string `json:"prompt"`
	Mode   string `json:"mode"`
}

func (s *Server) handleRefine(c fiber.Ctx) error {
	var payload refinePayload
	if err := c.Bind().JSON(&payload); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	mode := refine.RefineMode(payload.Mode)
	if mode == "" {
		mode = refine.ModeRefine
	}
	refined, err := s.refiner.Refine(c.Context(), payload.Prompt, mode)
	if err != nil {
		return fail(c, fiber.StatusBadGateway, err.Error())
	}
	return ok(c, fiber.Map{"prompt": refined})
}
