package ginserver

import (
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	bookingapp "staymarket/internal/app/handlers/booking"
	"staymarket/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
}

func (h AvailabilityHandler) Check(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	listingID := strings.TrimSpace(c.Param("id"))
	if listingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "listing id is required"})
		return
	}
	checkIn, okIn := parseFlexibleTime(c.Query("check_in"))
	checkOut, okOut := parseFlexibleTime(c.Query("check_out"))
	if !okIn || !okOut {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_in and check_out are required (RFC3339 or YYYY-MM-DD)"})
		return
	}
	query := bookingapp.CheckAvailabilityQuery{
		ListingID: listingID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
	}
	result, err := queries.Ask[bookingapp.CheckAvailabilityQuery, bookingapp.CheckAvailabilityResult](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	listingID := strings.TrimSpace(c.Param("id"))
	if listingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "listing id is required"})
		return
	}
	from, to := resolveWindow(c.Query("from"), c.Query("to"))
	query := bookingapp.ListingCalendarQuery{
		ListingID: listingID,
		From:      from,
		To:        to,
	}
	result, err := queries.Ask[bookingapp.ListingCalendarQuery, bookingapp.ListingCalendarResult](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// resolveWindow defaults to the next three months when the caller does not
// narrow the range.
func resolveWindow(fromRaw, toRaw string) (time.Time, time.Time) {
	from, okFrom := parseFlexibleTime(fromRaw)
	to, okTo := parseFlexibleTime(toRaw)
	if !okFrom {
		now := time.Now().UTC()
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	if !okTo || !to.After(from) {
		to = from.AddDate(0, 3, 0)
	}
	return from, to
}

func parseFlexibleTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

var _ AvailabilityHTTP = AvailabilityHandler{}
