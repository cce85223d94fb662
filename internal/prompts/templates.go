package prompts

// Template slot names shared by the default template and any configured override
const (
	VarCount       = "count"
	VarContentType = "contentType"
	VarAgeBracket  = "ageBracket"
	VarGenre       = "genre"
	VarLanguage    = "language"
)

// InputVariables lists every slot a recommendation template may reference
var InputVariables = []string{VarCount, VarContentType, VarAgeBracket, VarGenre, VarLanguage}

// System role definitions
const (
	// RecommenderRole defines the AI role for cultural recommendations
	RecommenderRole = "Eres un experto en recomendaciones culturales."
)

// Core instruction templates
const (
	// RecommendationInstructions asks for the list, interpolating every request field
	RecommendationInstructions = "Genera una lista de {{.count}} {{.contentType}}s " +
		"para un público {{.ageBracket}}, en el género {{.genre}}, y en el idioma {{.language}}. "

	// OutputFormat fixes the two-line layout of each item
	OutputFormat = "Proporciona las recomendaciones en el siguiente formato:\n\n" +
		"Título: [Título de la recomendación]\n" +
		"Descripción: [Breve descripción sobre la recomendación].\n\n"

	// WorkedExample shows the model one filled-in item
	WorkedExample = "Ejemplo:\n" +
		"Título: La guerra de las galaxias\n" +
		"Descripción: Una aventura épica de ciencia ficción dirigida por George Lucas.\n\n"

	// ListHeader closes the prompt so the completion starts with the first item
	ListHeader = "Lista de recomendaciones:"
)

// DefaultRecommendationTemplate is the full prompt sent for every request unless
// configuration overrides it
const DefaultRecommendationTemplate = RecommenderRole + " " + RecommendationInstructions +
	OutputFormat + WorkedExample + ListHeader
