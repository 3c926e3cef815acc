package web

import (
	"crypto/subtle"
	"net/http"

	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	sessionName     = "kalprint_admin"
	sessionAdminKey = "authenticated"
	sessionMaxAge   = 8 * 60 * 60 // seconds
)

type loginRequest struct {
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password is required"})
	}

	if s.cfg.Password == "" {
		s.logger.Error("admin password not configured")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "admin access is not configured"})
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.cfg.Password)) != 1 {
		s.logger.Warn("failed admin login attempt", zap.String("remote_ip", c.RealIP()))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid password"})
	}

	sess, err := echosession.Get(sessionName, c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session error"})
	}
	sess.Options.MaxAge = sessionMaxAge
	sess.Options.HttpOnly = true
	sess.Options.SameSite = http.SameSiteLaxMode
	sess.Values[sessionAdminKey] = true
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session error"})
	}

	s.logger.Info("admin logged in", zap.String("remote_ip", c.RealIP()))
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *Server) handleLogout(c echo.Context) error {
	sess, err := echosession.Get(sessionName, c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session error"})
	}
	sess.Options.MaxAge = -1
	delete(sess.Values, sessionAdminKey)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// requireAdmin guards dashboard routes behind the login session.
func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := echosession.Get(sessionName, c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}
		if ok, _ := sess.Values[sessionAdminKey].(bool); !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}
		return next(c)
	}
}
