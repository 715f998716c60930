package v1

import (
	"net/http"

	"github.com/bobos12/eyeclinic/internal/domain/visit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VisitHandler struct {
	svc VisitService
}

func NewVisitHandler(svc VisitService) *VisitHandler {
	return &VisitHandler{svc: svc}
}

// List returns every visit, or one patient's visits with ?patientId=.
func (h *VisitHandler) List(c *gin.Context) {
	q := &visit.ListVisitsQuery{}
	if raw := c.Query("patientId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid patientId: must be a valid UUID")
			return
		}
		q.PatientID = &id
	}

	visits, err := h.svc.ListVisits(c.Request.Context(), q, callerFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, visits)
}

func (h *VisitHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	v, err := h.svc.GetVisit(c.Request.Context(), id, callerFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// Create records a visit. Any doctorId in the body is ignored; the author is
// the signed-in user.
func (h *VisitHandler) Create(c *gin.Context) {
	var req visitRequest
	if !bindJSON(c, &req) {
		return
	}

	v, err := h.svc.CreateVisit(c.Request.Context(), req.createCommand(), callerFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Visit created successfully", "visit": v})
}

func (h *VisitHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req visitRequest
	if !bindJSON(c, &req) {
		return
	}

	v, err := h.svc.UpdateVisit(c.Request.Context(), id, req.updateCommand(), callerFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Visit updated successfully", "visit": v})
}

func (h *VisitHandler) Delete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteVisit(c.Request.Context(), id, callerFrom(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Visit deleted successfully"})
}
