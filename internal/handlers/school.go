package handlers

import (
	"net/http"

	"campusboard/internal/services"

	"github.com/gin-gonic/gin"
)

type SchoolHandler struct {
	schools *services.SchoolService
}

func NewSchoolHandler(schools *services.SchoolService) *SchoolHandler {
	return &SchoolHandler{schools: schools}
}

func hierarchyQuery(c *gin.Context) services.HierarchyQuery {
	page, perPage := pageParams(c)
	return services.HierarchyQuery{Search: c.Query("search"), Page: page, PerPage: perPage}
}

func (h *SchoolHandler) respond(c *gin.Context, list *services.RefList, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *SchoolHandler) Countries(c *gin.Context) {
	list, err := h.schools.Countries(c.Request.Context(), hierarchyQuery(c))
	h.respond(c, list, err)
}

func (h *SchoolHandler) Schools(c *gin.Context) {
	countryID, ok := pathID(c, "cid")
	if !ok {
		return
	}
	list, err := h.schools.Schools(c.Request.Context(), countryID, hierarchyQuery(c))
	h.respond(c, list, err)
}

func (h *SchoolHandler) Colleges(c *gin.Context) {
	countryID, ok := pathID(c, "cid")
	if !ok {
		return
	}
	schoolID, ok := pathID(c, "sid")
	if !ok {
		return
	}
	list, err := h.schools.Colleges(c.Request.Context(), countryID, schoolID, hierarchyQuery(c))
	h.respond(c, list, err)
}

func (h *SchoolHandler) Departments(c *gin.Context) {
	countryID, ok := pathID(c, "cid")
	if !ok {
		return
	}
	schoolID, ok := pathID(c, "sid")
	if !ok {
		return
	}
	collegeID, ok := pathID(c, "colid")
	if !ok {
		return
	}
	list, err := h.schools.Departments(c.Request.Context(), countryID, schoolID, collegeID, hierarchyQuery(c))
	h.respond(c, list, err)
}
