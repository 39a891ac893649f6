package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"govdoc/internal/core/apperror"
	"govdoc/internal/core/docnumber"
	"govdoc/internal/core/numerator"
	"govdoc/internal/domain/numbering"
	"govdoc/internal/infrastructure/http/v1/dto"
)

// NumberHandler serves number allocation and number format checks.
type NumberHandler struct {
	*BaseHandler
	service *numbering.Service
}

// NewNumberHandler creates a number handler.
func NewNumberHandler(base *BaseHandler, service *numbering.Service) *NumberHandler {
	return &NumberHandler{BaseHandler: base, service: service}
}

// AllocateMinistry issues a ministry number.
// POST /numbers/ministry
func (h *NumberHandler) AllocateMinistry(c *gin.Context) {
	var req dto.AllocateMinistryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	number, err := h.service.AssignMinistry(c.Request.Context(), numbering.MinistryRequest{
		OwnerID:     req.OwnerID,
		Date:        req.Date,
		SubSequence: req.SubSequence,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.NumberResponse{Number: number, Family: docnumber.FamilyMinistry.String()})
}

// AllocateCorrelative issues a correlative number.
// POST /numbers/correlative
func (h *NumberHandler) AllocateCorrelative(c *gin.Context) {
	var req dto.AllocateCorrelativeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	number, err := h.service.AssignCorrelative(c.Request.Context(), numbering.CorrelativeRequest{
		OwnerID:   req.OwnerID,
		Direction: docnumber.Direction(strings.ToUpper(req.Direction)),
		Date:      req.Date,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.NumberResponse{Number: number, Family: docnumber.FamilyCorrelative.String()})
}

// Lookup returns the number already assigned to an owner.
// GET /numbers/owners/:ownerId?family=ministry
func (h *NumberHandler) Lookup(c *gin.Context) {
	family := docnumber.ParseFamily(c.DefaultQuery("family", docnumber.FamilyMinistry.String()))
	if family == docnumber.FamilyUnknown {
		h.Error(c, apperror.NewValidation("family must be ministry or correlative"))
		return
	}

	a, err := h.service.Lookup(c.Request.Context(), c.Param("ownerId"), family)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromAssignment(a))
}

// Validate reports whether ?value= is a well-formed number of either family.
// GET /numbers/validate
func (h *NumberHandler) Validate(c *gin.Context) {
	value := c.Query("value")
	family := docnumber.Detect(value)
	h.OK(c, dto.ValidateResponse{
		Value:  value,
		Valid:  family != docnumber.FamilyUnknown,
		Family: family.String(),
	})
}

// Parse decomposes ?value= into its parts.
// GET /numbers/parse
func (h *NumberHandler) Parse(c *gin.Context) {
	value := c.Query("value")
	resp := dto.ParseResponse{Value: value}

	if n, ok := docnumber.ParseMinistry(value); ok {
		resp.Family = docnumber.FamilyMinistry.String()
		resp.Ministry = dto.FromMinistry(n)
	} else if n, ok := docnumber.ParseCorrelative(value); ok {
		resp.Family = docnumber.FamilyCorrelative.String()
		resp.Correlative = dto.FromCorrelative(n)
	} else {
		h.Error(c, apperror.NewInvalidNumberFormat(value))
		return
	}
	h.OK(c, resp)
}

// SetNext moves a counter so the next allocation returns the given value.
// PUT /numbers/sequences
func (h *NumberHandler) SetNext(c *gin.Context) {
	var req dto.SetNextRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.service.SetNext(c.Request.Context(), numerator.Scope(req.Scope), req.Next); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "sequence updated")
}
