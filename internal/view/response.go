package view

// Response is what a view render produces: either a TemplateData
// payload handed to the template layer, or a Redirect directive.
type Response interface {
	isResponse()
}

// TemplateData is a mapping of template variables.
type TemplateData map[string]any

func (TemplateData) isResponse() {}

// Redirect points the client at a named route.
type Redirect struct {
	Route string
	Args  map[string]string
}

func (Redirect) isResponse() {}
