package viewer

import (
	"bytes"
	"errors"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pasar-banyumas/pangan-forecaster/calendar"
	"github.com/pasar-banyumas/pangan-forecaster/config"
	"github.com/pasar-banyumas/pangan-forecaster/dashboard"
)

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Peramalan Harga Komoditas Pangan</title></head>
<body>
<h2>Model Peramalan Harga Komoditas Pangan</h2>
<ul>
{{range .}}<li><a href="/commodity/{{.Key}}">{{.Name}}</a></li>
{{end}}</ul>
</body>
</html>
`))

// Server is a read-only view over the saved forecast workbooks. Every request reads the
// workbook again so a newly saved forecast shows up without a restart.
type Server struct {
	cfg *config.Config
	cal *calendar.Calendar
	app *fiber.App
}

func New(cfg *config.Config, cal *calendar.Calendar) *Server {
	s := &Server{
		cfg: cfg,
		cal: cal,
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
			ErrorHandler:          errorHandler,
		}),
	}
	s.app.Use(recover.New())
	s.app.Get("/", s.handleIndex)
	s.app.Get("/commodity/:key", s.handleCommodity)
	s.app.Get("/plot/:key/:file", s.handlePlot)
	return s
}

// App exposes the underlying fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	slog.Info("viewer listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// errorHandler answers every failed request with the same JSON envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		slog.Warn("viewer request failed", "path", c.Path(), "status", code, "error", err)
	}
	return c.Status(code).JSON(fiber.Map{
		"status":  "error",
		"message": err.Error(),
	})
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, s.cfg.Commodities); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func parseQueryDate(c *fiber.Ctx, key string) (time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, v)
}

// loadView resolves the commodity of the request and reads its saved workbook.
func (s *Server) loadView(c *fiber.Ctx) (*dashboard.View, error) {
	key := c.Params("key")
	cm, ok := s.cfg.Commodity(key)
	if !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, "unknown commodity "+key)
	}

	start, err := parseQueryDate(c, "start")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "start must be a YYYY-MM-DD date")
	}
	end, err := parseQueryDate(c, "end")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "end must be a YYYY-MM-DD date")
	}

	v, err := dashboard.LoadView(s.cfg, cm, s.cal, start, end)
	switch {
	case errors.Is(err, dashboard.ErrInvalidRange):
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	case err != nil:
		slog.Warn("unable to load forecast workbook", "commodity", key, "error", err)
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "forecast for "+cm.Name+" is not available yet")
	}
	return v, nil
}

func (s *Server) handleCommodity(c *fiber.Ctx) error {
	v, err := s.loadView(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := dashboard.Page(&buf, v); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func (s *Server) handlePlot(c *fiber.Ctx) error {
	file := c.Params("file")
	slug, isPNG := strings.CutSuffix(file, ".png")
	if !isPNG {
		return fiber.NewError(fiber.StatusNotFound, "plots are served as .png")
	}

	v, err := s.loadView(c)
	if err != nil {
		return err
	}

	site := -1
	for i, st := range v.Sites {
		if dashboard.Slug(st.Name) == slug {
			site = i
			break
		}
	}
	if site < 0 {
		return fiber.NewError(fiber.StatusNotFound, "unknown site "+slug)
	}

	var buf bytes.Buffer
	err = dashboard.SitePlot(&buf, v, site)
	if errors.Is(err, dashboard.ErrNoForecast) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return err
	}
	c.Type("png")
	return c.Send(buf.Bytes())
}
