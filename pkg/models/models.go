package models

// Defaults applied when the caller omits the optional request fields
const (
	DefaultLanguage = "español"
	DefaultCount    = 5

	// MaxCount is the validation ceiling for the requested recommendation count
	MaxCount = 5
)

// Catalogs of accepted values, in the order they are reported back to callers
var (
	ContentTypes = []string{"libro", "película", "videojuego", "juego de mesa", "podcast"}
	AgeBrackets  = []string{"infantil", "juvenil", "adulto"}
	Genres       = []string{"ciencia ficción", "comedia", "drama", "romance", "fantasía", "acción", "terror", "guerra", "lucha"}
)

// RecommendationRequest is one caller's ask for a list of recommendations.
// The name tags carry the user-facing field names used in validation messages.
type RecommendationRequest struct {
	ContentType string `name:"tipo" validate:"required"`
	AgeBracket  string `name:"edad" validate:"required"`
	Genre       string `name:"genero" validate:"required"`
	Language    string `name:"idioma"`
	Count       int    `name:"cantidad"`
}

// NewRecommendationRequest builds a request, filling the optional language and count
// with their defaults when they were not supplied
func NewRecommendationRequest(contentType, ageBracket, genre string, language *string, count *int) RecommendationRequest {
	req := RecommendationRequest{
		ContentType: contentType,
		AgeBracket:  ageBracket,
		Genre:       genre,
		Language:    DefaultLanguage,
		Count:       DefaultCount,
	}
	if language != nil {
		req.Language = *language
	}
	if count != nil {
		req.Count = *count
	}
	return req
}

// Recommendation is the persisted row: the request fields plus the generated text
type Recommendation struct {
	ContentType string
	AgeBracket  string
	Genre       string
	Language    string
	Count       int
	Text        string
}

// NewRecommendation pairs a request with the text generated for it
func NewRecommendation(req RecommendationRequest, text string) Recommendation {
	return Recommendation{
		ContentType: req.ContentType,
		AgeBracket:  req.AgeBracket,
		Genre:       req.Genre,
		Language:    req.Language,
		Count:       req.Count,
		Text:        text,
	}
}
