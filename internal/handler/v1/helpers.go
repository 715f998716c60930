package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bobos12/eyeclinic/internal/domain"
	"github.com/bobos12/eyeclinic/internal/domain/patient"
	"github.com/bobos12/eyeclinic/internal/domain/visit"
	"github.com/bobos12/eyeclinic/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Context keys set by middleware.
const (
	ctxRequestID    = "request_id"
	ctxUser         = "user"
	ctxExposeErrors = "expose_errors"
)

type ErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
	// Error carries the underlying error text outside production only.
	Error string `json:"error,omitempty"`
}

type ConflictResponse struct {
	Message         string          `json:"message"`
	ExistingPatient patient.Summary `json:"existingPatient"`
}

type ForbiddenResponse struct {
	Message       string        `json:"message"`
	RequiredRoles []domain.Role `json:"requiredRoles"`
	UserRole      domain.Role   `json:"userRole"`
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Message: message})
}

func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Message: "validation failed",
			Errors:  validErr.Fields,
		})
		return
	}

	var conflict *service.PatientConflictError
	if errors.As(err, &conflict) {
		c.AbortWithStatusJSON(http.StatusConflict, ConflictResponse{
			Message:         conflict.Error(),
			ExistingPatient: conflict.Existing,
		})
		return
	}

	switch {
	case errors.Is(err, patient.ErrSearchTermRequired),
		errors.Is(err, patient.ErrNothingToUpdate),
		errors.Is(err, patient.ErrInvalidGender),
		errors.Is(err, visit.ErrPatientIDRequired),
		errors.Is(err, visit.ErrNothingToUpdate),
		errors.Is(err, visit.ErrUnknownFinding),
		errors.Is(err, domain.ErrInvalidRole):
		respondError(c, http.StatusBadRequest, err.Error())

	case errors.Is(err, service.ErrUnauthenticated),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrAccountInactive):
		respondError(c, http.StatusUnauthorized, err.Error())

	case errors.Is(err, service.ErrForbidden):
		respondError(c, http.StatusForbidden, err.Error())

	case errors.Is(err, patient.ErrPatientNotFound),
		errors.Is(err, patient.ErrNoPatientsFound),
		errors.Is(err, visit.ErrVisitNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		respondError(c, http.StatusNotFound, err.Error())

	case errors.Is(err, patient.ErrPatientAlreadyExists),
		errors.Is(err, patient.ErrPatientHasVisits),
		errors.Is(err, domain.ErrEmailAlreadyExists),
		errors.Is(err, domain.ErrUserHasVisits):
		respondError(c, http.StatusConflict, err.Error())

	case errors.Is(err, service.ErrAccountLocked):
		respondError(c, http.StatusTooManyRequests, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		respondError(c, http.StatusGatewayTimeout, "request timed out")

	default:
		_ = c.Error(err)
		resp := ErrorResponse{Message: "internal server error"}
		if c.GetBool(ctxExposeErrors) {
			resp.Error = err.Error()
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
				Message: "validation failed",
				Errors:  formatValidationErrors(verrs),
			})
			return false
		}
		respondError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}

	return true
}

func formatValidationErrors(verrs validator.ValidationErrors) []string {
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := jsonName(fe.Field())
		switch fe.Tag() {
		case "required":
			out = append(out, field+" is required")
		case "email":
			out = append(out, field+" must be a valid email address")
		case "min":
			out = append(out, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "oneof":
			out = append(out, fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")))
		default:
			out = append(out, field+" is invalid")
		}
	}
	return out
}

// jsonName lower-cases the first letter of a Go field name, which matches
// the request JSON keys.
func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid "+param+": must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func currentUser(c *gin.Context) *domain.User {
	u, _ := c.Get(ctxUser)
	user, _ := u.(*domain.User)
	return user
}

// callerFrom builds the service caller for the authenticated request.
func callerFrom(c *gin.Context) service.Caller {
	return service.NewCaller(currentUser(c), c.ClientIP(), c.GetString(ctxRequestID))
}
