package constants

// Machine-readable failure codes. Every anticipated failure path resolves to
// one of these; only the outermost catch-all may emit CodeUnexpectedError.
const (
	CodeHTTPError              = "llm_http_error"
	CodeNoJSONFound            = "llm_no_json_found"
	CodeInvalidJSON            = "llm_invalid_json"
	CodeQualityGateFailed      = "llm_quality_gate_failed"
	CodeSchemaValidationFailed = "llm_schema_validation_failed"
	CodeTxtDecodeFailed        = "txt_decode_failed"
	CodeSchemaLoadFailed       = "schema_load_failed"
	CodeStorageReadFailed      = "storage_read_failed"
	CodeInvalidParams          = "invalid_params"
	CodeUnexpectedError        = "unexpected_error"
)

// MessageScannedPDF is the exact terminal message for a PDF that extracts to
// empty or whitespace-only text.
const MessageScannedPDF = "scanned pdf not supported in MVP"
