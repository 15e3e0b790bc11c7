package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hongminglow/budget-be/internal/http/respond"
	"github.com/hongminglow/budget-be/internal/middleware"
	"github.com/hongminglow/budget-be/internal/models"
	"github.com/hongminglow/budget-be/internal/models/dto"
	"github.com/hongminglow/budget-be/internal/services"
)

const budgetNotFound = "Budget not found"

// BudgetHandler exposes budgets, their transactions and the dashboard summary.
type BudgetHandler struct {
	budgets *services.Budgets
	log     *zap.Logger
}

// NewBudgetHandler constructs the handler.
func NewBudgetHandler(budgets *services.Budgets, log *zap.Logger) *BudgetHandler {
	return &BudgetHandler{budgets: budgets, log: log.Named("budgets")}
}

// Register attaches the budget routes; all of them require authentication.
func (h *BudgetHandler) Register(r chi.Router) {
	r.Get("/dashboard", h.handleSummary)
	r.Route("/budgets", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{budgetID}", h.handleShow)
		r.Get("/{budgetID}/transactions", h.handleListTransactions)
		r.Post("/{budgetID}/transactions", h.handleAppendTransaction)
	})
}

func (h *BudgetHandler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	views, err := h.budgets.ListBudgets(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, h.log, err, budgetNotFound)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.NewBudgetResponses(views))
}

func (h *BudgetHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req dto.CreateBudgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	view, err := h.budgets.CreateBudget(r.Context(), user.ID, services.CreateBudgetInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, h.log, err, budgetNotFound)
		return
	}
	respond.JSON(w, http.StatusCreated, "Budget created successfully", dto.NewBudgetResponse(view))
}

func (h *BudgetHandler) handleShow(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	view, err := h.budgets.GetBudget(r.Context(), user.ID, chi.URLParam(r, "budgetID"))
	if err != nil {
		writeServiceError(w, h.log, err, budgetNotFound)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.NewBudgetResponse(view))
}

func (h *BudgetHandler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	order, ok := parseOrder(r.URL.Query().Get("order"))
	if !ok {
		respond.Errors(w, http.StatusBadRequest, "validation failed", []string{"order must be asc or desc"})
		return
	}
	txs, err := h.budgets.ListTransactions(r.Context(), user.ID, chi.URLParam(r, "budgetID"), order)
	if err != nil {
		writeServiceError(w, h.log, err, budgetNotFound)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.NewTransactionResponses(txs))
}

func (h *BudgetHandler) handleAppendTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	budgetID := chi.URLParam(r, "budgetID")
	var req dto.CreateTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		// A foreign budget answers 404 even when the body is unreadable.
		if _, err := h.budgets.ResolveOwnedBudget(r.Context(), user.ID, budgetID); err != nil {
			writeServiceError(w, h.log, err, budgetNotFound)
			return
		}
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	tx, err := h.budgets.AppendTransaction(r.Context(), user.ID, budgetID, services.AppendTransactionInput{
		Amount:  string(req.Amount),
		Type:    req.Type,
		Comment: req.Comment,
	})
	if err != nil {
		writeServiceError(w, h.log, err, budgetNotFound)
		return
	}
	respond.JSON(w, http.StatusCreated, "Transaction created successfully", dto.NewTransactionResponse(tx))
}

func (h *BudgetHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	sum, err := h.budgets.Summary(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, h.log, err, budgetNotFound)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.NewSummaryResponse(sum))
}

func requireUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
	}
	return user, ok
}

func parseOrder(raw string) (models.SortOrder, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "asc":
		return models.SortAscending, true
	case "desc":
		return models.SortDescending, true
	default:
		return models.SortAscending, false
	}
}
