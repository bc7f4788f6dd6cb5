package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"devevents/models"
)

// purge 寫入後清掉列表與受影響 slug 的快取
func (d *deps) purge(c *gin.Context, slugs ...string) {
	if d.inv == nil {
		return
	}
	d.inv.PurgeEvent(c.Request.Context(), slugs...)
}

func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}

// GET /api/events?skip=&limit=
func (d *deps) getEvents(c *gin.Context) {
	skip, ok := queryInt(c, "skip")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "skip must be an integer"})
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "limit must be an integer"})
		return
	}

	events, total, err := d.events.List(c.Request.Context(), skip, limit)
	if err != nil {
		d.fail(c, err, "Could not fetch events. Try again later.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Events fetched successfully", "events": events, "totalCount": total})
}

// GET /api/events/:slug
func (d *deps) getEvent(c *gin.Context) {
	event, err := d.events.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		d.fail(c, err, "Could not fetch event. Try again later.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event fetched successfully", "event": event})
}

// GET /api/events/:slug/similar
func (d *deps) getSimilarEvents(c *gin.Context) {
	events, err := d.events.Similar(c.Request.Context(), c.Param("slug"))
	if err != nil {
		d.fail(c, err, "Could not fetch similar events. Try again later.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Similar events fetched successfully", "events": events})
}

// POST /api/events
func (d *deps) createEvent(c *gin.Context) {
	var patch models.EventPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c)
		return
	}

	event, err := d.events.Create(c.Request.Context(), patch, caller(c).ID)
	if err != nil {
		d.fail(c, err, "Could not create event. Try again later.")
		return
	}

	d.purge(c, event.Slug)
	c.JSON(http.StatusCreated, gin.H{"message": "Event created successfully", "event": event})
}

// PUT /api/events/:slug
func (d *deps) updateEvent(c *gin.Context) {
	var patch models.EventPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c)
		return
	}

	slug := c.Param("slug")
	event, err := d.events.Update(c.Request.Context(), slug, patch, caller(c))
	if err != nil {
		d.fail(c, err, "Could not update event. Try again later.")
		return
	}

	// 標題改了 slug 也會變，新舊都清
	d.purge(c, slug, event.Slug)
	c.JSON(http.StatusOK, gin.H{"message": "Event updated successfully", "event": event})
}
