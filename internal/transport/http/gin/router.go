package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/evbook/evbook-go/internal/domain"
	"github.com/evbook/evbook-go/internal/monitoring"
	redisrepo "github.com/evbook/evbook-go/internal/repository/redis"
	"github.com/evbook/evbook-go/internal/service"
	"github.com/evbook/evbook-go/internal/service/admin"
	"github.com/evbook/evbook-go/internal/service/booking"
	"github.com/evbook/evbook-go/internal/service/query"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(monitoring.Handler()))

	// Public API
	r.GET("/events", handleListEvents(svcs))
	r.GET("/events/:id", handleGetEvent(svcs))
	r.POST("/events/:id/bookings", handleCreateBooking(svcs, idem))
	r.GET("/users/:id/bookings", handleListUserBookings(svcs))

	// Admin API
	// TODO: add admin auth middleware
	adm := r.Group("/admin")
	{
		adm.POST("/venues", handleCreateVenue(svcs))
		adm.POST("/events", handleCreateEvent(svcs))
		adm.PATCH("/events/:id/status", handleSetEventStatus(svcs))
		adm.PATCH("/venues/:id/active", handleSetVenueActive(svcs))
		adm.DELETE("/events/:id", handleDeleteEvent(svcs))
		adm.DELETE("/venues/:id", handleDeleteVenue(svcs))
	}

	return r
}

func handleListEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseIntDefault(c.Query("limit"), 100)
		offset := parseIntDefault(c.Query("offset"), 0)

		events, err := svcs.Query.ListEvents(c.Request.Context(), limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}

		out := make([]EventSnapshotResponse, 0, len(events))
		for i := range events {
			out = append(out, toEventSnapshot(&events[i]))
		}

		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=15", true)
	}
}

func handleGetEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		ev, err := svcs.Query.GetEventSnapshot(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}

		writeJSONWithCache(c, http.StatusOK, toEventSnapshot(ev), "public, max-age=15", true)
	}
}

func handleCreateBooking(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		var req CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemBooking(eventID, idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		conf, err := svcs.Booking.Book(
			c.Request.Context(),
			req.UserID,
			eventID,
			req.Tickets,
			req.PaymentLabel,
			"ip:"+c.ClientIP(),
		)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondBookingErr(c, err)
			return
		}

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(conf)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, conf)
	}
}

func handleListUserBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		bookings, err := svcs.Query.ListUserBookings(c.Request.Context(), userID)
		if err != nil {
			respondErr(c, err)
			return
		}

		if bookings == nil {
			bookings = []domain.BookingView{}
		}

		c.JSON(http.StatusOK, bookings)
	}
}

func handleCreateVenue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateVenueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		active := true
		if req.Active != nil {
			active = *req.Active
		}

		id, err := svcs.Admin.CreateVenue(c.Request.Context(), &domain.Venue{
			Name:      req.Name,
			Address:   req.Address,
			City:      req.City,
			Pincode:   req.Pincode,
			Amenities: req.Amenities,
			Capacity:  req.Capacity,
			Active:    active,
		})
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, CreateVenueResponse{VenueID: id})
	}
}

func handleCreateEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		id, err := svcs.Admin.CreateEvent(
			c.Request.Context(),
			req.VenueID,
			req.Name,
			req.Price,
			req.Status,
		)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, CreateEventResponse{EventID: id})
	}
}

func handleSetEventStatus(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		var req SetEventStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		if err := svcs.Admin.SetEventStatus(c.Request.Context(), eventID, req.Status); err != nil {
			respondErr(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

func handleSetVenueActive(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		var req SetVenueActiveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		if err := svcs.Admin.SetVenueActive(c.Request.Context(), venueID, *req.Active); err != nil {
			respondErr(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

func handleDeleteEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		if err := svcs.Admin.DeleteEvent(c.Request.Context(), eventID); err != nil {
			respondErr(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

func handleDeleteVenue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		if err := svcs.Admin.DeleteVenue(c.Request.Context(), venueID); err != nil {
			respondErr(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Kind: string(booking.KindInvalidRequest)})
}

// respondBookingErr maps the engine's closed error taxonomy onto HTTP
// statuses.
func respondBookingErr(c *gin.Context, err error) {
	var rl *booking.RateLimitedError
	if errors.As(err, &rl) {
		secs := int(rl.RetryAfter.Seconds()) + 1
		c.Header("Retry-After", strconv.Itoa(secs))
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: rl.Error()})
		return
	}

	var be *booking.Error
	if !errors.As(err, &be) {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	resp := ErrorResponse{Error: be.Message, Kind: string(be.Kind)}

	switch be.Kind {
	case booking.KindInvalidRequest:
		c.JSON(http.StatusBadRequest, resp)
	case booking.KindEventNotFound:
		c.JSON(http.StatusNotFound, resp)
	case booking.KindVenueInactive, booking.KindEventNotOpen:
		c.JSON(http.StatusUnprocessableEntity, resp)
	case booking.KindInsufficientCapacity:
		remaining := be.Remaining
		resp.Remaining = &remaining
		c.JSON(http.StatusConflict, resp)
	case booking.KindStorageFailure:
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, resp)
	default:
		c.JSON(http.StatusInternalServerError, resp)
	}
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	case errors.Is(err, query.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
	case errors.Is(err, admin.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
	case errors.Is(err, admin.ErrVenueNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "venue not found"})
	case errors.Is(err, admin.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
