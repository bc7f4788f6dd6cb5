package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"devevents/services"
)

// POST /api/bookings
func (d *deps) createBooking(c *gin.Context) {
	var req services.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Could not parse request data."})
		return
	}

	// 表單沒填 email 就用登入者的
	if strings.TrimSpace(req.Email) == "" {
		req.Email = caller(c).Email
	}

	event, err := d.bookings.CreateBooking(c.Request.Context(), req)
	if err != nil {
		status, msg, _ := d.describe(c, err, "Booking failed. Try again later.")
		c.JSON(status, gin.H{"success": false, "error": msg})
		return
	}

	// bookings 計數變了
	d.purge(c, event.Slug)
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

// GET /api/userBookings?email=&page=&sort=
func (d *deps) getUserBookings(c *gin.Context) {
	page, err := services.ParsePage(c.Query("page"))
	if err != nil {
		d.fail(c, err, "Invalid page")
		return
	}

	result, err := d.bookings.ListUserBookings(c.Request.Context(), caller(c), services.BookingQuery{
		Email: c.Query("email"),
		Page:  page,
		Sort:  c.Query("sort"),
	})
	if err != nil {
		d.fail(c, err, "Could not fetch bookings. Try again later.")
		return
	}
	c.JSON(http.StatusOK, result)
}
