package errors

const (
	HttpInternalError         = "internal_error"
	HttpInvalidJsonError      = "invalid_json"
	HttpMissingInputError     = "missing_input"
	HttpNoDataError           = "no_data"
	HttpExcessDimensionError  = "excess_dimension"
	HttpStoreUnreachableError = "store_unreachable"
	HttpPresetNotFoundError   = "preset_not_found"
	HttpFigureNotFoundError   = "figure_not_found"
	HttpRenderError           = "render_failed"
)

// ErrorResponse is the error response body of the JSON API.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
