package server

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/beauNate/qwen-image-generator/sequencer"
	"github.com/beauNate/qwen-image-generator/store"
)

type batchPayload struct {
	generatePayload
	Count int `json:"count"`
}

func (s *Server) handleBatch(c fiber.Ctx) error {
	var payload batchPayload
	if err := c.Bind().JSON(&payload); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if payload.Count < 1 || payload.Count > 64 {
		return fail(c, fiber.StatusUnprocessableEntity, "count must be between 1 and 64")
	}
	req := payload.toRequest()
	if err := req.Validate(); err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	items, err := sequencer.RunBatch(c.Context(), s.gen, req, payload.Count)
	results := make([]fiber.Map, 0, len(items))
	for _, item := range items {
		results = append(results, fiber.Map{
			"artifact": item.Artifact,
			"url":      item.Artifact.Path(),
			"seed":     item.Seed,
		})
	}
	if err != nil {
		// the batch aborts on first failure; report what completed
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"results": results,
		})
	}
	return ok(c, fiber.Map{"results": results})
}

func (s *Server) handleQueueList(c fiber.Ctx) error {
	items := s.queue.Items()
	out := make([]fiber.Map, 0, len(items))
	for _, item := range items {
		entry := fiber.Map{
			"id":       item.ID,
			"modality": string(item.Request.Modality),
			"prompt":   item.Request.Prompt,
			"status":   string(item.Status),
		}
		if item.Status == sequencer.StatusDone {
			entry["artifact"] = item.Artifact
			entry["seed"] = item.Seed
		}
		if item.Error != "" {
			entry["error"] = item.Error
		}
		out = append(out, entry)
	}
	return ok(c, fiber.Map{"items": out})
}

func (s *Server) handleQueueAdd(c fiber.Ctx) error {
	var payload generatePayload
	if err := c.Bind().JSON(&payload); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	req := payload.toRequest()
	if err := req.Validate(); err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	id := s.queue.Add(req)
	return ok(c, fiber.Map{"id": id})
}

func (s *Server) handleQueueRemove(c fiber.Ctx) error {
	err := s.queue.Remove(c.Params("id"))
	switch {
	case errors.Is(err, sequencer.ErrItemNotFound):
		return fail(c, fiber.StatusNotFound, "queue item not found")
	case errors.Is(err, sequencer.ErrItemProcessing):
		return fail(c, fiber.StatusConflict, "item is currently processing")
	case err != nil:
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	return ok(c, nil)
}

func (s *Server) handleQueueClear(c fiber.Ctx) error {
	s.queue.Clear()
	return ok(c, nil)
}

func (s *Server) handleQueueStart(c fiber.Ctx) error {
	go func() {
		summary, err := s.queue.Drain(context.Background(), s.gen)
		if errors.Is(err, sequencer.ErrAlreadyDraining) {
			return
		}
		s.logger.Info("queue drained",
			"completed", summary.Completed, "failed", summary.Failed)
	}()
	return ok(c, nil)
}

func (s *Server) handleQueueStop(c fiber.Ctx) error {
	s.queue.Stop()
	return ok(c, nil)
}

func (s *Server) handleFavoritesGet(c fiber.Ctx) error {
	favorites, err := s.store.Favorites()
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	if favorites == nil {
		favorites = []string{}
	}
	return ok(c, fiber.Map{"favorites": favorites})
}

func (s *Server) handleFavoritesSave(c fiber.Ctx) error {
	var payload struct {
		Favorites []string `json:"favorites"`
	}
	if err := c.Bind().JSON(&payload); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if err := s.store.SaveFavorites(payload.Favorites); err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	return ok(c, nil)
}

func (s *Server) handleHistoryList(c fiber.Ctx) error {
	history, err := s.store.History()
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	if history == nil {
		history = []store.HistoryEntry{}
	}
	return ok(c, fiber.Map{"history": history})
}

func (s *Server) handleHistoryDelete(c fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "index must be an integer")
	}
	err = s.store.DeleteHistory(index)
	switch {
	case errors.Is(err, store.ErrInvalidIndex):
		return fail(c, fiber.StatusNotFound, "history index out of range")
	case err != nil:
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	return ok(c, nil)
}

func (s *Server) handleSettingsGet(c fiber.Ctx) error {
	settings, err := s.store.Settings()
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	return ok(c, fiber.Map{"settings": settings})
}

func (s *Server) handleSettingsSave(c fiber.Ctx) error {
	var settings store.Settings
	if err := c.Bind().JSON(&settings); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if err := s.store.SaveSettings(settings); err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	if s.refiner != nil && settings.OllamaModel != "" {
		s.refiner.Model = settings.OllamaModel
	}
	return ok(c, nil)
}
