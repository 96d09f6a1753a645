package handler

import (
	"net/http"
	"strconv"
	"time"

	"tickethub-core/internal/repository"
	"tickethub-core/internal/services"
	"tickethub-core/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type EventStoreHandler struct {
	service *services.EventStoreService
}

func NewEventStoreHandler(service *services.EventStoreService) *EventStoreHandler {
	return &EventStoreHandler{service: service}
}

func (h *EventStoreHandler) Append(c *gin.Context) {
	var req httpdto.AppendEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "VALIDATION_ERROR"))
		return
	}

	metadata := req.Metadata.ToDomain()
	if metadata.IPAddress == "" {
		metadata.IPAddress = c.ClientIP()
	}
	if metadata.UserAgent == "" {
		metadata.UserAgent = c.Request.UserAgent()
	}

	event, err := h.service.Append(c.Request.Context(), req.AggregateID, req.AggregateType, req.EventType, req.EventData, metadata)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.AppendEventResponse{
		Event: httpdto.FromDomainEvent(event),
	}))
}

func (h *EventStoreHandler) GetHistory(c *gin.Context) {
	aggregateID := c.Param("aggregateId")
	fromVersion, _ := strconv.Atoi(c.Query("fromVersion"))

	events, err := h.service.GetHistory(c.Request.Context(), aggregateID, fromVersion)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.HistoryResponse{
		AggregateID: aggregateID,
		Events:      httpdto.FromDomainEventSlice(events),
		Count:       len(events),
		FromVersion: fromVersion,
	}))
}

func (h *EventStoreHandler) Reconstruct(c *gin.Context) {
	aggregateID := c.Param("aggregateId")
	toVersion, _ := strconv.Atoi(c.Query("toVersion"))

	aggregate, err := h.service.Reconstruct(c.Request.Context(), aggregateID, toVersion)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromAggregate(aggregate)))
}

func (h *EventStoreHandler) GetByType(c *gin.Context) {
	eventType := c.Param("eventType")
	limit, _ := strconv.Atoi(c.Query("limit"))

	var fromDate, toDate *time.Time
	if raw := c.Query("fromDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid fromDate", "VALIDATION_ERROR"))
			return
		}
		fromDate = &t
	}
	if raw := c.Query("toDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid toDate", "VALIDATION_ERROR"))
			return
		}
		toDate = &t
	}

	events, err := h.service.GetByType(c.Request.Context(), eventType, fromDate, toDate, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.EventsByTypeResponse{
		EventType: eventType,
		Events:    httpdto.FromDomainEventSlice(events),
		Count:     len(events),
	}))
}

func (h *EventStoreHandler) ListAll(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	query := repository.ListEventsQuery{
		Limit:         limit,
		Offset:        offset,
		AggregateType: c.Query("aggregateType"),
		EventType:     c.Query("eventType"),
	}

	events, total, err := h.service.ListAll(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ListEventsResponse{
		Events: httpdto.FromDomainEventSlice(events),
		Count:  len(events),
		Total:  total,
		Limit:  query.Limit,
		Offset: offset,
	}))
}

func (h *EventStoreHandler) Metrics(c *gin.Context) {
	metrics, err := h.service.Metrics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(metrics))
}
