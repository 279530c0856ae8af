package handlers

import (
	"net/http"

	"github.com/slayergates/esports-arena/services"
)

type SchoolHandler struct {
	schoolService services.SchoolService
}

func NewSchoolHandler(ss services.SchoolService) *SchoolHandler {
	return &SchoolHandler{schoolService: ss}
}

func (h *SchoolHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateSchoolInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	school, err := h.schoolService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"school": school}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SchoolHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	schoolID, err := getIDFromURL(r, "schoolID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	school, err := h.schoolService.GetByID(r.Context(), schoolID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"school": school}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SchoolHandler) List(w http.ResponseWriter, r *http.Request) {
	schools, err := h.schoolService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"schools": schools}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
