package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/recommender/internal/recommendation"
	"github.com/recommender/pkg/models"
)

const (
	msgInvalidBody  = "El cuerpo de la solicitud no es válido."
	msgIndexMissing = "El archivo index.html no se encuentra en el directorio."
	msgIndexRead    = "Error al leer el archivo index.html: "
)

// recommendationBody is the wire shape of POST /get_recommendations
type recommendationBody struct {
	Tipo     string  `json:"tipo"`
	Edad     string  `json:"edad"`
	Genero   string  `json:"genero"`
	Idioma   *string `json:"idioma"`
	Cantidad *int    `json:"cantidad"`
}

type recommendationResponse struct {
	Result string `json:"result"`
}

type errorResponse struct {
	Detail         string `json:"detail"`
	Classification string `json:"classification,omitempty"`
}

func (s *Server) getRecommendations(c echo.Context) error {
	var body recommendationBody
	if err := c.Bind(&body); err != nil {
		zerolog.Ctx(c.Request().Context()).Debug().Err(err).Msg("Rejected request body")
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{
			Detail:         msgInvalidBody,
			Classification: recommendation.ClassInvalidInput,
		})
	}

	req := models.NewRecommendationRequest(body.Tipo, body.Edad, body.Genero, body.Idioma, body.Cantidad)

	text, err := s.recommender.Recommend(c.Request().Context(), req)
	if err != nil {
		return writeRecommendationError(c, err)
	}

	return c.JSON(http.StatusOK, recommendationResponse{Result: text})
}

func writeRecommendationError(c echo.Context, err error) error {
	var recErr *recommendation.Error
	if !errors.As(err, &recErr) {
		recErr = recommendation.Upstream(err)
	}
	return c.JSON(recErr.Kind.HTTPStatus(), errorResponse{
		Detail:         recErr.Detail,
		Classification: recErr.Kind.Classification(),
	})
}

func (s *Server) serveIndex(c echo.Context) error {
	content, err := os.ReadFile(filepath.Join(s.webRoot, "index.html"))
	if err != nil {
		detail := msgIndexRead + err.Error()
		if errors.Is(err, os.ErrNotExist) {
			detail = msgIndexMissing
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{Detail: detail})
	}
	return c.HTMLBlob(http.StatusOK, content)
}
