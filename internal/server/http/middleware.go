package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/and161185/taskkeeper/internal/errs"
)

// Verifier resolves a bearer token to an owner id.
type Verifier interface {
	Verify(token string) (uuid.UUID, error)
}

func authMiddleware(v Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tok, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return fmt.Errorf("%v: %w", err, errs.ErrUnauthorized)
			}
			id, err := v.Verify(tok)
			if err != nil {
				return err
			}
			req := c.Request()
			c.SetRequest(req.WithContext(WithOwnerID(req.Context(), id)))
			return next(c)
		}
	}
}

func loggingMiddleware(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// run the error handler now so the logged status is final
				c.Error(err)
			}
			req, res := c.Request(), c.Response()
			log.Info("http",
				zap.String("method", req.Method),
				zap.String("path", c.Path()),
				zap.Int("status", res.Status),
				zap.Duration("dur", time.Since(start)),
				zap.String("remote", c.RealIP()),
			)
			return nil
		}
	}
}

func recoverMiddleware(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic",
						zap.Any("reason", r),
						zap.ByteString("stack", debug.Stack()),
						zap.String("path", c.Path()),
					)
					err = echo.NewHTTPError(http.StatusInternalServerError, "internal")
				}
			}()
			return next(c)
		}
	}
}

type errorBody struct {
	Error string   `json:"error"`
	Field string   `json:"field,omitempty"`
	IDs   []string `json:"ids,omitempty"`
}

// statusOf maps domain errors onto HTTP codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func errorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := statusOf(err)
		body := errorBody{Error: err.Error()}

		var he *echo.HTTPError
		var ve *errs.ValidationError
		var oe *errs.OwnershipError
		switch {
		case errors.As(err, &he):
			code = he.Code
			body.Error = fmt.Sprint(he.Message)
		case errors.As(err, &ve):
			body.Error, body.Field = ve.Msg, ve.Field
		case errors.As(err, &oe):
			body.Error = "not owned"
			for _, id := range oe.IDs {
				body.IDs = append(body.IDs, id.String())
			}
		case code == http.StatusUnauthorized:
			body.Error = "unauthorized"
		case code == http.StatusInternalServerError:
			log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			body.Error = "internal"
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			log.Warn("write error response", zap.Error(err))
		}
	}
}
