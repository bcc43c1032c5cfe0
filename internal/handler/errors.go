package handler

import (
	"errors"
	"net/http"
	"strings"

	"backend/internal/workflow"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError maps the workflow error taxonomy onto HTTP statuses:
// validation failures are 400, illegal transitions 422 (the body names the
// legal action set), concurrent-modification conflicts 409, missing records
// 404, everything else 500.
func respondError(c *gin.Context, err error) {
	var validationErr *workflow.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	var transitionErr *workflow.TransitionError
	if errors.As(err, &transitionErr) {
		c.JSON(http.StatusUnprocessableEntity, response.Error(http.StatusUnprocessableEntity, err.Error()))
		return
	}

	var conflictErr *workflow.ConflictError
	if errors.As(err, &conflictErr) {
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
		return
	}

	if strings.Contains(err.Error(), "not found") {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
}
