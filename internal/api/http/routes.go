package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/i474232898/weatherapi-go/internal/aqi"
	"github.com/i474232898/weatherapi-go/internal/store"
	"github.com/i474232898/weatherapi-go/internal/weather"
	"github.com/i474232898/weatherapi-go/internal/weatherapi"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app. Each upstream
// call is bounded by timeout.
func RegisterRoutes(app *fiber.App, service *weather.Service, timeout time.Duration) {
	h := &handlers{service: service, timeout: timeout}

	v1 := app.Group("/api/v1")
	v1.Get("/current", h.current)
	v1.Get("/forecast", h.forecast)
	v1.Get("/astronomy", h.astronomy)
	v1.Get("/alerts", h.alerts)
	v1.Get("/alerts/latest", h.latestAlert)

	v1.Get("/aqi/us-epa", func(c *fiber.Ctx) error {
		return c.JSON(aqi.USEPA())
	})
	v1.Get("/aqi/uk-defra", func(c *fiber.Ctx) error {
		return c.JSON(aqi.UKDefra())
	})
}

type handlers struct {
	service *weather.Service
	timeout time.Duration
}

func (h *handlers) context(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), h.timeout)
}

func (h *handlers) current(c *fiber.Ctx) error {
	q, err := parseLocationQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var opts []weatherapi.Option
	if v := c.Query("aqi"); v != "" {
		opts = append(opts, weatherapi.AirQualityValue(v))
	}

	ctx, cancel := h.context(c)
	defer cancel()

	resp, err := h.service.Current(ctx, q.Q, opts...)
	if err != nil {
		return upstreamError(err)
	}
	return c.JSON(resp)
}

func (h *handlers) forecast(c *fiber.Ctx) error {
	q, err := parseLocationQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var opts []weatherapi.Option
	if v := c.Query("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "days must be an integer")
		}
		opts = append(opts, weatherapi.Days(days))
	}
	if v := c.Query("aqi"); v != "" {
		opts = append(opts, weatherapi.AirQualityValue(v))
	}
	if v := c.Query("alerts"); v != "" {
		opts = append(opts, weatherapi.AlertsValue(v))
	}

	ctx, cancel := h.context(c)
	defer cancel()

	resp, err := h.service.Forecast(ctx, q.Q, opts...)
	if err != nil {
		return upstreamError(err)
	}
	return c.JSON(resp)
}

func (h *handlers) astronomy(c *fiber.Ctx) error {
	q, err := parseLocationQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var opts []weatherapi.Option
	if dt := c.Query("dt"); dt != "" {
		if _, err := time.Parse(time.DateOnly, dt); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "dt must be YYYY-MM-DD")
		}
		opts = append(opts, weatherapi.Date(dt))
	}

	ctx, cancel := h.context(c)
	defer cancel()

	resp, err := h.service.Astronomy(ctx, q.Q, opts...)
	if err != nil {
		return upstreamError(err)
	}
	return c.JSON(resp)
}

func (h *handlers) alerts(c *fiber.Ctx) error {
	var req historyQuery
	if err := req.bind(c); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	loc := req.Location.toLocation()
	records, err := h.service.AlertHistory(loc, req.From, req.To)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no alerts for requested range")
		}
		log.WithFields(log.Fields{"location": loc.Key(), "err": err}).Error("alert history lookup failed")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch alert history")
	}

	return c.JSON(fiber.Map{
		"location": loc,
		"from":     req.From,
		"to":       req.To,
		"alerts":   records,
	})
}

func (h *handlers) latestAlert(c *fiber.Ctx) error {
	q, err := parseLocationQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	loc := q.toLocation()
	rec, err := h.service.LatestAlert(loc)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no alerts for requested location")
		}
		log.WithFields(log.Fields{"location": loc.Key(), "err": err}).Error("latest alert lookup failed")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch latest alert")
	}
	return c.JSON(rec)
}

// upstreamError maps client errors onto gateway statuses.
func upstreamError(err error) error {
	var (
		formatErr   *weatherapi.FormatError
		responseErr *weatherapi.ResponseError
		syntaxErr   *json.SyntaxError
		typeErr     *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &formatErr):
		return fiber.NewError(fiber.StatusBadRequest, formatErr.Message)
	case errors.As(err, &responseErr):
		log.WithFields(log.Fields{
			"endpoint": responseErr.Endpoint,
			"status":   responseErr.StatusCode,
			"err":      responseErr.Err,
		}).Warn("upstream request failed")
		return fiber.NewError(fiber.StatusBadGateway, responseErr.Error())
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		log.WithField("err", err).Warn("upstream returned an undecodable body")
		return fiber.NewError(fiber.StatusBadGateway, "upstream returned an invalid response")
	}
	log.WithField("err", err).Error("weather request failed")
	return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
}

// locationQuery holds the weatherapi.com q parameter.
type locationQuery struct {
	Q string `validate:"required"`
}

func (l locationQuery) toLocation() weather.Location {
	return weather.Location{Query: l.Q}
}

func parseLocationQuery(c *fiber.Ctx) (locationQuery, error) {
	q := locationQuery{Q: c.Query("q")}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// historyQuery holds query parameters for the alerts endpoint. Missing
// bounds default to the beginning of time and now.
type historyQuery struct {
	Location locationQuery
	From     time.Time
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	loc, err := parseLocationQuery(c)
	if err != nil {
		return err
	}
	h.Location = loc

	h.To = time.Now().UTC()
	if s := c.Query("from"); s != "" {
		if h.From, err = parseTime(s); err != nil {
			return err
		}
	}
	if s := c.Query("to"); s != "" {
		if h.To, err = parseTime(s); err != nil {
			return err
		}
	}
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
