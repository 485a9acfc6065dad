package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type translateRequest struct {
	Text string `json:"text"`
}

// translateResponse mirrors the shape chat clients already consume: a 200
// with success:false carries the dispatch failure, HTTP errors are reserved
// for malformed requests.
type translateResponse struct {
	Success     bool   `json:"success"`
	Translation string `json:"translation,omitempty"`
	Engine      string `json:"engine,omitempty"`
	Cached      bool   `json:"cached,omitempty"`
	Skipped     bool   `json:"skipped,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (s *Server) handleTranslate(c echo.Context) error {
	var req translateRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return failValidation(c, map[string]string{"text": "is required"})
	}

	current := s.settings.Current()
	if !current.Enabled {
		return c.JSON(http.StatusOK, translateResponse{
			Success: false,
			Error:   "translation is disabled",
		})
	}

	if current.SkipEnglish && s.isEnglish(text) {
		return c.JSON(http.StatusOK, translateResponse{
			Success:     true,
			Translation: text,
			Skipped:     true,
		})
	}

	res, err := s.translator.Translate(c.Request().Context(), text)
	if err != nil {
		return c.JSON(http.StatusOK, translateResponse{
			Success: false,
			Error:   err.Error(),
		})
	}

	return c.JSON(http.StatusOK, translateResponse{
		Success:     true,
		Translation: res.Translation,
		Engine:      string(res.Engine),
		Cached:      res.Cached,
	})
}
