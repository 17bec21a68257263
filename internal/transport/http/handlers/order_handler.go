package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sparktechagency/Mobile-Repair/internal/domain"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
	"github.com/sparktechagency/Mobile-Repair/internal/service"
	"github.com/sparktechagency/Mobile-Repair/internal/transport/http/middleware"
)

// OrderHandler exposes the order lifecycle over HTTP
type OrderHandler struct {
	orders *service.OrderService
	logger logging.Logger
}

// NewOrderHandler creates the order handler
func NewOrderHandler(orders *service.OrderService, logger logging.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// Create handles POST /orders — the public client submission
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orders.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSONWithStatus(w, http.StatusCreated, order)
}

// ListAll handles GET /orders
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	orders, meta, err := h.orders.ListAll(r.Context(), queryParams(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, ListResponse{Meta: meta, Result: orders})
}

// ListPending handles GET /orders/pending
func (h *OrderHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	orders, meta, err := h.orders.ListPending(r.Context(), queryParams(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, ListResponse{Meta: meta, Result: orders})
}

// Get handles GET /orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseObjectID(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	order, err := h.orders.GetByID(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, order)
}

// Delete handles DELETE /orders/{id}
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseObjectID(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.orders.SoftDelete(r.Context(), orderID); err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, MessageResponse{Message: "order deleted"})
}

// Accept handles POST /orders/{id}/accept
func (h *OrderHandler) Accept(w http.ResponseWriter, r *http.Request) {
	orderID, technicianID, ok := h.orderAndCaller(w, r)
	if !ok {
		return
	}

	order, err := h.orders.Accept(r.Context(), orderID, technicianID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, order)
}

// Complete handles POST /orders/{id}/complete
func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	orderID, technicianID, ok := h.orderAndCaller(w, r)
	if !ok {
		return
	}

	order, err := h.orders.Complete(r.Context(), orderID, technicianID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, order)
}

// MyOrders handles GET /technicians/me/orders
func (h *OrderHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	technicianID, ok := callerID(w, r)
	if !ok {
		return
	}

	orders, meta, err := h.orders.ListByTechnician(r.Context(), technicianID, queryParams(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, ListResponse{Meta: meta, Result: orders})
}

func (h *OrderHandler) orderAndCaller(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, primitive.ObjectID, bool) {
	orderID, err := parseObjectID(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return primitive.NilObjectID, primitive.NilObjectID, false
	}

	technicianID, ok := callerID(w, r)
	if !ok {
		return primitive.NilObjectID, primitive.NilObjectID, false
	}

	return orderID, technicianID, true
}

// callerID resolves the authenticated caller's id from the token claims
func callerID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "missing bearer token")
		return primitive.NilObjectID, false
	}

	id, err := parseObjectID(claims.UserID)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "invalid token subject")
		return primitive.NilObjectID, false
	}

	return id, true
}
