package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/studiocoach/course-api/internal/application/catalog"
)

type CourseHandler struct {
	service catalog.Service
}

func NewCourseHandler(s catalog.Service) *CourseHandler {
	return &CourseHandler{service: s}
}

// List handles GET /v1/courses.
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.ListCourses(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"courses": courses})
}

// Get handles GET /v1/courses/{slug}.
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	detail, err := h.service.GetCourse(r.Context(), slug)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// ChapterResource handles GET /v1/chapters/{id}/resource.
func (h *CourseHandler) ChapterResource(w http.ResponseWriter, r *http.Request) {
	url, err := h.service.ChapterResource(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"downloadUrl": url})
}
