package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/damon-houk/ledger-transaction-store/internal/application/service"
	"github.com/damon-houk/ledger-transaction-store/internal/domain/entity"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/db"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/export"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/logger"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
)

// TransactionHandler handles HTTP requests for ledger transactions
type TransactionHandler struct {
	service *service.TransactionService
	logger  logger.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(service *service.TransactionService, log logger.Logger) *TransactionHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &TransactionHandler{
		service: service,
		logger:  log,
	}
}

// RecordTransaction handles POST /customers/{id}/transactions
func (h *TransactionHandler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	customerID, ok := h.customerID(w, r, requestID)
	if !ok {
		return
	}

	// Parse request body
	var req RecordTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Invalid request body",
			"The request body could not be parsed as valid JSON", http.StatusBadRequest, requestID)
		return
	}

	tx, err := h.service.RecordTransaction(r.Context(), customerID, req.Amount, req.Type, req.Description)
	if err != nil {
		h.handleServiceError(w, err, customerID, requestID)
		return
	}

	h.logger.Info("Transaction recorded", map[string]interface{}{
		"request_id":  requestID,
		"customer_id": customerID,
		"id":          tx.ID,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(newTransactionResponse(*tx))
}

// ListTransactions handles GET /customers/{id}/transactions?limit=n
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	customerID, ok := h.customerID(w, r, requestID)
	if !ok {
		return
	}

	txs, ok := h.statement(w, r, customerID, requestID)
	if !ok {
		return
	}

	resp := StatementResponse{
		CustomerID:   customerID,
		Count:        len(txs),
		Transactions: make([]TransactionResponse, 0, len(txs)),
	}
	for _, tx := range txs {
		resp.Transactions = append(resp.Transactions, newTransactionResponse(tx))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ExportStatement handles GET /customers/{id}/statement.xlsx?limit=n
func (h *TransactionHandler) ExportStatement(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	customerID, ok := h.customerID(w, r, requestID)
	if !ok {
		return
	}

	txs, ok := h.statement(w, r, customerID, requestID)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteStatement(&buf, customerID, txs); err != nil {
		h.handleServiceError(w, err, customerID, requestID)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(customerID)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)
}

// statement reads the optional limit and loads the customer's recent
// transactions, writing the error response itself on failure
func (h *TransactionHandler) statement(w http.ResponseWriter, r *http.Request, customerID int, requestID string) ([]entity.Transaction, bool) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			sendErrorResponse(w, h.logger, "Invalid limit",
				"limit must be a non-negative integer", http.StatusBadRequest, requestID)
			return nil, false
		}
		limit = n
	}

	txs, err := h.service.ListTransactions(r.Context(), customerID, limit)
	if err != nil {
		h.handleServiceError(w, err, customerID, requestID)
		return nil, false
	}
	return txs, true
}

// RegisterRoutes registers the transaction handler routes
func (h *TransactionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/customers/{id}/transactions", h.RecordTransaction).Methods("POST")
	router.HandleFunc("/customers/{id}/transactions", h.ListTransactions).Methods("GET")
	router.HandleFunc("/customers/{id}/statement.xlsx", h.ExportStatement).Methods("GET")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	h.logger.Info("Transaction routes registered", map[string]interface{}{
		"routes": []string{
			"POST /customers/{id}/transactions",
			"GET /customers/{id}/transactions",
			"GET /customers/{id}/statement.xlsx",
			"GET /health",
		},
	})
}

func (h *TransactionHandler) customerID(w http.ResponseWriter, r *http.Request, requestID string) (int, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		h.logger.Warn("Invalid customer id", map[string]interface{}{
			"request_id":  requestID,
			"customer_id": raw,
		})
		sendErrorResponse(w, h.logger, "Invalid customer id",
			"Customer id must be a positive integer", http.StatusBadRequest, requestID)
		return 0, false
	}
	return id, true
}

func (h *TransactionHandler) handleServiceError(w http.ResponseWriter, err error, customerID int, requestID string) {
	fields := map[string]interface{}{
		"request_id":  requestID,
		"customer_id": customerID,
		"error":       err.Error(),
	}

	var verr *entity.ValidationError
	switch {
	case errors.As(err, &verr):
		h.logger.Warn("Transaction validation failed", fields)
		sendErrorResponse(w, h.logger, "Validation failed", verr.Error(), http.StatusUnprocessableEntity, requestID)
	case errors.Is(err, db.ErrConnection):
		h.logger.Error("Ledger unavailable", fields)
		sendErrorResponse(w, h.logger, "Service unavailable",
			"The ledger database could not be reached", http.StatusServiceUnavailable, requestID)
	default:
		h.logger.Error("Unexpected ledger error", fields)
		sendErrorResponse(w, h.logger, "Internal server error",
			"An unexpected error occurred while accessing the ledger", http.StatusInternalServerError, requestID)
	}
}

// sendErrorResponse sends a standardized error response
func sendErrorResponse(w http.ResponseWriter, log logger.Logger, message, description string, statusCode int, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := ErrorResponse{
		Error:       message,
		Status:      statusCode,
		Description: description,
		RequestID:   requestID,
	}

	log.Debug("Sending error response", map[string]interface{}{
		"request_id":  requestID,
		"status_code": statusCode,
		"message":     message,
	})

	json.NewEncoder(w).Encode(resp)
}
