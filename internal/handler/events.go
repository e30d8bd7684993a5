// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/campjam-go/internal/middleware"
	"github.com/olegiv/campjam-go/internal/model"
	"github.com/olegiv/campjam-go/internal/render"
	"github.com/olegiv/campjam-go/internal/scheduler"
	"github.com/olegiv/campjam-go/internal/service"
	"github.com/olegiv/campjam-go/internal/uikit"
)

// EventsPerPage is the page size of the activity log.
const EventsPerPage = 50

// JobRunner lists the maintenance jobs and runs one on demand.
type JobRunner interface {
	List() []scheduler.JobInfo
	TriggerNow(name string) error
}

// EventsHandler serves the activity log.
type EventsHandler struct {
	renderer     *render.Renderer
	eventService *service.EventService
	jobs         JobRunner
}

// NewEventsHandler creates a new EventsHandler. jobs may be nil.
func NewEventsHandler(renderer *render.Renderer, events *service.EventService, jobs JobRunner) *EventsHandler {
	return &EventsHandler{
		renderer:     renderer,
		eventService: events,
		jobs:         jobs,
	}
}

// EventsData is the data of the activity page.
type EventsData struct {
	Events     []model.Event
	Pagination uikit.Pagination
	Jobs       []scheduler.JobInfo
}

// List handles GET /admin/events?page=.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	page := uikit.ParsePageParam(r)

	events, total, err := h.eventService.List(r.Context(), EventsPerPage, (page-1)*EventsPerPage)
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}

	pagination := uikit.BuildPagination(page, total, EventsPerPage, "/admin/events")
	if pagination.CurrentPage != page {
		// Past the last page: show the last one instead of an empty table.
		events, _, err = h.eventService.List(r.Context(), EventsPerPage, pagination.Offset())
		if err != nil {
			logAndInternalError(w, "failed to list events", "error", err)
			return
		}
	}

	data := EventsData{Events: events, Pagination: pagination}
	if h.jobs != nil {
		data.Jobs = h.jobs.List()
	}

	h.renderer.MustRender(w, r, http.StatusOK, "admin/events", render.TemplateData{
		Title: "Activity",
		Data:  data,
	})
}

// RunJob handles POST /admin/events/jobs/{name}/run.
func (h *EventsHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.jobs == nil {
		flashError(w, r, h.renderer, "/admin/events", "Scheduler is not running.")
		return
	}

	if err := h.jobs.TriggerNow(name); err != nil {
		slog.Warn("manual job run failed", "job", name, "error", err)
		flashError(w, r, h.renderer, "/admin/events", "Failed to run job: "+err.Error())
		return
	}

	_ = h.eventService.LogAdminEvent(r.Context(), model.EventLevelInfo, "Maintenance job run manually",
		middleware.GetUserID(r), middleware.ClientIP(r), map[string]any{"job": name})
	flashSuccess(w, r, h.renderer, "/admin/events", "Job "+name+" has run.")
}
