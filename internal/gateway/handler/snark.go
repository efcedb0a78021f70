// Package handler implements the HTTP surface of the gateway: request
// validation, cause dispatch through the bridge, and the mapping of decoded
// effects (or their absence) onto JSON responses.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/proofmesh/snarkgate/internal/bridge"
	"github.com/proofmesh/snarkgate/internal/gateway/model"
	"github.com/proofmesh/snarkgate/internal/protocol"
	"go.uber.org/zap"
)

// SnarkHandler handles HTTP requests for proof submissions.
type SnarkHandler struct {
	bridge *bridge.Bridge
	logger *zap.Logger
}

// NewSnarkHandler creates a new SnarkHandler.
func NewSnarkHandler(b *bridge.Bridge, logger *zap.Logger) *SnarkHandler {
	return &SnarkHandler{bridge: b, logger: logger}
}

// Register mounts the snark routes on the given router group.
func (h *SnarkHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/snark", h.SubmitSnark)
	rg.GET("/snark/:id", h.GetSnark)
	rg.DELETE("/snark/:id", h.DeleteSnark)
	rg.GET("/snarks", h.ListSnarks)
}

// SubmitSnark handles POST /snark — validates, encodes, and dispatches a
// submission.
func (h *SnarkHandler) SubmitSnark(c *gin.Context) {
	var req model.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		var valErr *model.ErrValidation
		if errors.As(err, &valErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Msg})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cause := protocol.SubmitCause(protocol.SubmitFields{
		Proof:           req.Proof,
		PublicInputs:    req.PublicInputs,
		VerificationKey: req.VerificationKey,
		ProofSystem:     req.ProofSystem,
		Submitter:       req.Submitter,
		Notes:           req.NotesOrEmpty(),
	})

	effects, err := h.bridge.Dispatch(c.Request.Context(), cause)
	if err != nil {
		h.logger.Error("submit dispatch", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit SNARK"})
		return
	}

	if out, ok := protocol.DecodeEffects(effects); ok {
		switch out.Kind {
		case protocol.OutcomeAck:
			RecordSubmission()
			c.JSON(http.StatusCreated, model.SnarkResponse{
				Success: true,
				ID:      &out.ID,
				Message: "SNARK submitted successfully",
			})
			return
		case protocol.OutcomeErr:
			c.JSON(http.StatusBadRequest, gin.H{"error": out.Err})
			return
		}
	}

	// No recognized effect: the dispatch itself succeeded, so acknowledge
	// without an id rather than failing the request.
	RecordSubmission()
	c.JSON(http.StatusCreated, model.SnarkResponse{
		Success: true,
		Message: "SNARK submitted successfully",
	})
}

// GetSnark handles GET /snark/:id — retrieves one submission.
func (h *SnarkHandler) GetSnark(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	effects, err := h.bridge.Dispatch(c.Request.Context(), protocol.GetCause(id))
	if err != nil {
		h.dispatchError(c, err, "Failed to get SNARK")
		return
	}

	if out, ok := protocol.DecodeEffects(effects); ok {
		switch out.Kind {
		case protocol.OutcomeRecord:
			c.JSON(http.StatusOK, detailsView(out.Record))
			return
		case protocol.OutcomeErr:
			c.JSON(http.StatusNotFound, gin.H{"error": out.Err})
			return
		}
	}

	// A get that produced no record effect is a kernel contract violation.
	h.logger.Error("get snark: no recognized effect", zap.Uint64("id", id))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid response from kernel"})
}

// ListSnarks handles GET /snarks — lists all submissions.
func (h *SnarkHandler) ListSnarks(c *gin.Context) {
	effects, err := h.bridge.Dispatch(c.Request.Context(), protocol.ListCause())
	if err != nil {
		h.logger.Error("list dispatch", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list SNARKs"})
		return
	}

	if out, ok := protocol.DecodeEffects(effects); ok && out.Kind == protocol.OutcomeList {
		summaries := make([]model.SnarkSummary, len(out.Summaries))
		for i, s := range out.Summaries {
			summaries[i] = model.SnarkSummary{
				ID:          s.ID,
				ProofSystem: s.ProofSystem,
				Submitter:   s.Submitter,
				Submitted:   s.Submitted,
				Status:      s.Status,
				Notes:       s.Notes,
			}
		}
		// Total is the kernel's own count, not len(summaries); a mismatch in
		// a list effect should be visible to the caller, not papered over.
		c.JSON(http.StatusOK, model.SnarkList{Snarks: summaries, Total: int(out.Total)})
		return
	}

	// Fallback to an empty list when the kernel emitted nothing recognizable.
	c.JSON(http.StatusOK, model.SnarkList{Snarks: []model.SnarkSummary{}, Total: 0})
}

// DeleteSnark handles DELETE /snark/:id — removes one submission.
func (h *SnarkHandler) DeleteSnark(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	effects, err := h.bridge.Dispatch(c.Request.Context(), protocol.DeleteCause(id))
	if err != nil {
		h.dispatchError(c, err, "Failed to delete SNARK")
		return
	}

	if out, ok := protocol.DecodeEffects(effects); ok {
		switch out.Kind {
		case protocol.OutcomeGone:
			c.JSON(http.StatusOK, model.SnarkResponse{
				Success: true,
				ID:      &out.ID,
				Message: "SNARK deleted",
			})
			return
		case protocol.OutcomeErr:
			c.JSON(http.StatusNotFound, gin.H{"error": out.Err})
			return
		}
	}

	c.JSON(http.StatusOK, model.SnarkResponse{Success: true, Message: "SNARK deleted"})
}

// parseID extracts the :id path parameter. On failure it writes a 400 and
// returns false.
func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an unsigned integer"})
		return 0, false
	}
	return id, true
}

// dispatchError maps a bridge failure for id-scoped operations: kernel
// rejections (unknown id) are 404, transport failures and timeouts are 500.
func (h *SnarkHandler) dispatchError(c *gin.Context, err error, serverMsg string) {
	var derr *bridge.DispatchError
	if errors.As(err, &derr) && derr.Kind == bridge.KindRejected {
		c.JSON(http.StatusNotFound, gin.H{"error": "SNARK not found"})
		return
	}
	h.logger.Error("dispatch", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": serverMsg})
}

// detailsView converts a decoded record into the outward JSON shape.
func detailsView(rec *protocol.Record) model.SnarkDetails {
	d := model.SnarkDetails{
		ID:              rec.ID,
		Proof:           rec.Proof,
		PublicInputs:    rec.PublicInputs,
		VerificationKey: rec.VerificationKey,
		ProofSystem:     rec.ProofSystem,
		Submitter:       rec.Submitter,
		Submitted:       rec.Submitted,
		Status:          rec.Status,
		Notes:           rec.Notes,
	}
	if rec.ErrorMessage != "" {
		msg := rec.ErrorMessage
		d.ErrorMessage = &msg
	}
	if d.PublicInputs == nil {
		d.PublicInputs = []string{}
	}
	return d
}
