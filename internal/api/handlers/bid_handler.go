package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AuctionService is the slice of the orchestrator the transport consumes.
type AuctionService interface {
	PlaceBid(ctx context.Context, listingID, bidderID string, amount float64, now time.Time) (*domain.BidReceipt, error)
	SweepExpiredListings(ctx context.Context, now time.Time) (int, error)
}

type BidHandler struct {
	svc AuctionService
	log logger.Logger
}

func NewBidHandler(svc AuctionService, log logger.Logger) *BidHandler {
	return &BidHandler{svc: svc, log: log}
}

func (h *BidHandler) Register(g *echo.Group) {
	g.POST("/bids", h.PlaceBid)
	g.POST("/sweep", h.Sweep)
}

type PlaceBidRequest struct {
	ListingID string  `json:"listing_id"`
	UserID    string  `json:"user_id"`
	Amount    float64 `json:"amount"`
}

type PlaceBidResponse struct {
	BidID        string  `json:"bid_id"`
	CurrentPrice float64 `json:"current_price"`
}

func (h *BidHandler) PlaceBid(c echo.Context) error {
	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	if req.ListingID == "" || req.UserID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "listing_id and user_id are required"})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Amount must be positive"})
	}

	receipt, err := h.svc.PlaceBid(c.Request().Context(), req.ListingID, req.UserID, req.Amount, time.Now().UTC())
	if err != nil {
		status, message := statusForError(err)
		if status == http.StatusInternalServerError {
			h.log.Error("Failed to place bid", "listing_id", req.ListingID, "error", err)
		}
		return c.JSON(status, map[string]string{"error": message})
	}

	return c.JSON(http.StatusCreated, PlaceBidResponse{
		BidID:        receipt.BidID,
		CurrentPrice: receipt.CurrentPrice,
	})
}

func (h *BidHandler) Sweep(c echo.Context) error {
	count, err := h.svc.SweepExpiredListings(c.Request().Context(), time.Now().UTC())
	if err != nil {
		h.log.Error("Sweep failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to sweep expired listings"})
	}

	return c.JSON(http.StatusOK, map[string]int{"transitioned": count})
}

// statusForError translates the error taxonomy into HTTP. Store failures
// never leak detail beyond a generic message.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrExpired):
		return http.StatusGone, err.Error()
	case errors.Is(err, domain.ErrBidTooLow):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrSelfBidForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrBusy):
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
