package handler

import (
	"net/http"

	"tickethub-core/internal/domain/saga"
	"tickethub-core/internal/services"
	"tickethub-core/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type SagaHandler struct {
	orchestrator *services.SagaOrchestrator
}

func NewSagaHandler(orchestrator *services.SagaOrchestrator) *SagaHandler {
	return &SagaHandler{orchestrator: orchestrator}
}

// StartBooking accepts the booking request and returns 202 immediately; the
// saga's outcome is observed through GetStatus.
func (h *SagaHandler) StartBooking(c *gin.Context) {
	var req httpdto.StartBookingSagaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "VALIDATION_ERROR"))
		return
	}

	data := services.BookingData(services.BookingPayload{
		EventID:       req.EventID,
		UserID:        req.UserID,
		UserName:      req.UserName,
		UserEmail:     req.UserEmail,
		UserPhone:     req.UserPhone,
		Seats:         req.Seats,
		TicketPrice:   req.TicketPrice,
		PaymentMethod: req.PaymentMethod,
		Preferences:   req.Preferences,
	})

	sagaID, err := h.orchestrator.Start(c.Request.Context(), saga.TypeBookingProcess, data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, httpdto.NewSuccessResponse(httpdto.StartSagaResponse{
		SagaID:  sagaID,
		Status:  "PROCESSING",
		Message: "Booking process started",
	}))
}

func (h *SagaHandler) GetStatus(c *gin.Context) {
	sagaID := c.Param("sagaId")

	instance, err := h.orchestrator.GetStatus(c.Request.Context(), sagaID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromSagaInstance(instance)))
}

func (h *SagaHandler) ListAll(c *gin.Context) {
	sagas, err := h.orchestrator.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromSagaInstanceSlice(sagas)))
}
