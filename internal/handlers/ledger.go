package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ilker/ledger-server/internal/repository"
)

type LedgerHandler struct {
	ledger *repository.Ledger
}

func NewLedgerHandler(ledger *repository.Ledger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

type SummaryResponse struct {
	Counts map[string]int64 `json:"counts"`
	Total  int64            `json:"total"`
}

// GET /api/v1/ledger/summary
func (h *LedgerHandler) Summary(c *gin.Context) {
	counts, err := h.ledger.Counts(c.Request.Context())
	if err != nil {
		InternalError(c, "Failed to count ledger rows")
		return
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	Success(c, SummaryResponse{Counts: counts, Total: total})
}
