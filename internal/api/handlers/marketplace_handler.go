package handlers

import (
	"net/http"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"

	"github.com/labstack/echo/v4"
)

// MarketplaceHandler serves the CRUD surface around the auction core:
// users, listings, bid history and notifications.
type MarketplaceHandler struct {
	store domain.Store
	log   logger.Logger
}

func NewMarketplaceHandler(store domain.Store, log logger.Logger) *MarketplaceHandler {
	return &MarketplaceHandler{store: store, log: log}
}

func (h *MarketplaceHandler) Register(g *echo.Group) {
	g.POST("/users", h.CreateUser)
	g.GET("/users/:id/notifications", h.ListNotifications)
	g.PATCH("/notifications/:id/read", h.MarkNotificationRead)
	g.POST("/listings", h.CreateListing)
	g.GET("/listings", h.ListListings)
	g.GET("/listings/:id", h.GetListing)
	g.GET("/listings/:id/bids", h.ListingBids)
	g.GET("/listings/:id/highest-bid", h.HighestBid)
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone_number"`
}

func (h *MarketplaceHandler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	if req.Username == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "username and email are required"})
	}

	user := &domain.User{
		ID:        utils.GenerateID("usr"),
		Username:  req.Username,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.store.Users().CreateUser(c.Request().Context(), user); err != nil {
		h.log.Error("Failed to create user", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create user"})
	}

	return c.JSON(http.StatusCreated, map[string]string{"user_id": user.ID})
}

type CreateListingRequest struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	StartingPrice float64   `json:"starting_price"`
	EndTime       time.Time `json:"end_time"`
	UserID        string    `json:"user_id"`
}

type ListingResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	StartingPrice float64   `json:"starting_price"`
	CurrentPrice  float64   `json:"current_price"`
	EndTime       time.Time `json:"end_time"`
	UserID        string    `json:"user_id"`
	Active        bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

func listingResponse(l *domain.Listing) ListingResponse {
	return ListingResponse{
		ID:            l.ID,
		Title:         l.Title,
		Description:   l.Description,
		StartingPrice: l.StartingPrice,
		CurrentPrice:  l.CurrentPrice,
		EndTime:       l.EndTime,
		UserID:        l.OwnerID,
		Active:        l.Active,
		CreatedAt:     l.CreatedAt,
	}
}

func (h *MarketplaceHandler) CreateListing(c echo.Context) error {
	var req CreateListingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	now := time.Now().UTC()

	if req.Title == "" || req.Description == "" || req.UserID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title, description and user_id are required"})
	}
	if req.StartingPrice <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Starting price must be positive"})
	}
	if !req.EndTime.After(now) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "End time must be in the future"})
	}

	listing := &domain.Listing{
		ID:            utils.GenerateID("lst"),
		Title:         req.Title,
		Description:   req.Description,
		StartingPrice: req.StartingPrice,
		CurrentPrice:  req.StartingPrice,
		EndTime:       req.EndTime,
		OwnerID:       req.UserID,
		Active:        true,
		CreatedAt:     now,
	}

	if err := h.store.Listings().CreateListing(c.Request().Context(), listing); err != nil {
		h.log.Error("Failed to create listing", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create listing"})
	}

	h.log.Info("Listing created", "listing_id", listing.ID, "owner_id", listing.OwnerID)
	return c.JSON(http.StatusCreated, listingResponse(listing))
}

func (h *MarketplaceHandler) ListListings(c echo.Context) error {
	listings, err := h.store.Listings().ListListings(c.Request().Context())
	if err != nil {
		h.log.Error("Failed to list listings", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list listings"})
	}

	response := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		response = append(response, listingResponse(l))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"listings": response})
}

func (h *MarketplaceHandler) GetListing(c echo.Context) error {
	listing, err := h.store.Listings().GetListing(c.Request().Context(), c.Param("id"))
	if err != nil {
		status, message := statusForError(err)
		return c.JSON(status, map[string]string{"error": message})
	}
	return c.JSON(http.StatusOK, listingResponse(listing))
}

type BidResponse struct {
	ID       string    `json:"id,omitempty"`
	Amount   float64   `json:"amount"`
	UserID   string    `json:"user_id"`
	PlacedAt time.Time `json:"timestamp"`
}

// ListingBids returns the bid history prefixed with the seller's implicit
// floor at the starting price.
func (h *MarketplaceHandler) ListingBids(c echo.Context) error {
	ctx := c.Request().Context()
	listingID := c.Param("id")

	listing, err := h.store.Listings().GetListing(ctx, listingID)
	if err != nil {
		status, message := statusForError(err)
		return c.JSON(status, map[string]string{"error": message})
	}

	bids, err := h.store.Bids().ListBidsForListing(ctx, listingID)
	if err != nil {
		h.log.Error("Failed to list bids", "listing_id", listingID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list bids"})
	}

	history := []BidResponse{{
		Amount:   listing.StartingPrice,
		UserID:   listing.OwnerID,
		PlacedAt: listing.CreatedAt,
	}}
	for _, bid := range bids {
		history = append(history, BidResponse{
			ID:       bid.ID,
			Amount:   bid.Amount,
			UserID:   bid.BidderID,
			PlacedAt: bid.PlacedAt,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"listing_id": listingID,
		"bids":       history,
	})
}

func (h *MarketplaceHandler) HighestBid(c echo.Context) error {
	ctx := c.Request().Context()
	listingID := c.Param("id")

	listing, err := h.store.Listings().GetListing(ctx, listingID)
	if err != nil {
		status, message := statusForError(err)
		return c.JSON(status, map[string]string{"error": message})
	}

	bid, err := h.store.Bids().GetHighestBid(ctx, listingID)
	if err != nil {
		h.log.Error("Failed to get highest bid", "listing_id", listingID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to get highest bid"})
	}

	if bid == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"id":      nil,
			"amount":  listing.CurrentPrice,
			"user_id": nil,
		})
	}

	return c.JSON(http.StatusOK, BidResponse{
		ID:       bid.ID,
		Amount:   bid.Amount,
		UserID:   bid.BidderID,
		PlacedAt: bid.PlacedAt,
	})
}

type NotificationResponse struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Read      bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *MarketplaceHandler) ListNotifications(c echo.Context) error {
	userID := c.Param("id")

	notifications, err := h.store.Notifications().ListNotificationsForUser(c.Request().Context(), userID)
	if err != nil {
		h.log.Error("Failed to list notifications", "user_id", userID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list notifications"})
	}

	response := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		response = append(response, NotificationResponse{
			ID:        n.ID,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id":       userID,
		"notifications": response,
	})
}

func (h *MarketplaceHandler) MarkNotificationRead(c echo.Context) error {
	notificationID := c.Param("id")

	if err := h.store.Notifications().MarkNotificationRead(c.Request().Context(), notificationID); err != nil {
		status, message := statusForError(err)
		if status == http.StatusInternalServerError {
			h.log.Error("Failed to mark notification read", "notification_id", notificationID, "error", err)
		}
		return c.JSON(status, map[string]string{"error": message})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Marked read"})
}
