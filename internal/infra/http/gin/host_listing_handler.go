package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"staymarket/internal/app/commands"
	listingsapp "staymarket/internal/app/handlers/listings"
	"staymarket/internal/app/queries"
)

type HostListingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type hostListingRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	City             string `json:"city"`
	Country          string `json:"country"`
	NightlyRateCents int64  `json:"nightly_rate_cents"`
	CleaningFeeCents int64  `json:"cleaning_fee_cents"`
	Currency         string `json:"currency"`
	GuestsLimit      int    `json:"guests_limit"`
}

func (h HostListingHandler) List(c *gin.Context) {
	host, ok := requireRole(c, "host")
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := listingsapp.ListHostListingsQuery{HostID: host.ID}
	result, err := queries.Ask[listingsapp.ListHostListingsQuery, listingsapp.HostListingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostListingHandler) Create(c *gin.Context) {
	// Any signed-in user may create a first property; the handler promotes
	// them to the host role.
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req hostListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := listingsapp.CreateHostListingCommand{
		HostID: user.ID,
		Payload: listingsapp.HostListingPayload{
			Title:            req.Title,
			Description:      req.Description,
			City:             req.City,
			Country:          req.Country,
			NightlyRateCents: req.NightlyRateCents,
			CleaningFeeCents: req.CleaningFeeCents,
			Currency:         req.Currency,
			GuestsLimit:      req.GuestsLimit,
		},
	}
	result, err := commands.Dispatch[listingsapp.CreateHostListingCommand, *listingsapp.HostListingDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h HostListingHandler) Publish(c *gin.Context) {
	host, ok := requireRole(c, "host")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := listingsapp.PublishHostListingCommand{
		HostID:    host.ID,
		ListingID: strings.TrimSpace(c.Param("id")),
	}
	result, err := commands.Dispatch[listingsapp.PublishHostListingCommand, *listingsapp.HostListingDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ HostListingHTTP = HostListingHandler{}
