package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/examstack/examhall/internal/repository"
)

// HallHandler manages the examination hall registry.
type HallHandler struct {
	Halls *repository.HallRepo
}

func NewHallHandler(halls *repository.HallRepo) *HallHandler {
	if halls == nil {
		panic("nil repository passed to NewHallHandler")
	}
	return &HallHandler{Halls: halls}
}

type hallReq struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Location string `json:"location"`
}

type hallResp struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Location string `json:"location"`
}

func toHallResp(h *repository.Hall) hallResp {
	return hallResp{ID: h.ID, Name: h.Name, Capacity: h.Capacity, Location: h.Location}
}

// Create registers a hall. Names are unique.
func (h *HallHandler) Create(c echo.Context) error {
	var req hallReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	if req.Capacity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be positive"})
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hall := &repository.Hall{Name: req.Name, Capacity: req.Capacity, Location: req.Location, CreatedBy: uid}
	if err := h.Halls.Create(ctx, hall); err != nil {
		if err == repository.ErrHallExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "hall name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create hall failed"})
	}
	return c.JSON(http.StatusCreated, toHallResp(hall))
}

// List returns active halls.
func (h *HallHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	halls, err := h.Halls.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list halls failed"})
	}
	out := make([]hallResp, 0, len(halls))
	for _, hl := range halls {
		out = append(out, toHallResp(hl))
	}
	return c.JSON(http.StatusOK, echo.Map{"halls": out})
}

// Get returns one hall by id.
func (h *HallHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hall, err := h.Halls.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrHallNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hall not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load hall failed"})
	}
	return c.JSON(http.StatusOK, toHallResp(hall))
}

// Update rewrites a hall's name, capacity and location.
func (h *HallHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req hallReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Name) == "" || req.Capacity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and positive capacity required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hall := &repository.Hall{ID: id, Name: req.Name, Capacity: req.Capacity, Location: req.Location}
	if err := h.Halls.Update(ctx, hall); err != nil {
		switch err {
		case repository.ErrHallNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hall not found"})
		case repository.ErrHallExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "hall name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update hall failed"})
	}
	return c.JSON(http.StatusOK, toHallResp(hall))
}

// Delete soft-deletes a hall.
func (h *HallHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Halls.Deactivate(ctx, id); err != nil {
		if err == repository.ErrHallNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hall not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete hall failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
