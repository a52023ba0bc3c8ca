package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/presalekit/estimator/constants"
	"github.com/presalekit/estimator/internal/entity"
	"github.com/presalekit/estimator/internal/estimate"
	"github.com/presalekit/estimator/internal/extract"
	"github.com/presalekit/estimator/internal/llm"
	"github.com/presalekit/estimator/internal/quality"
	"github.com/presalekit/estimator/internal/repository"
	"github.com/presalekit/estimator/internal/storage"
)

// Config holds orchestrator behavior knobs.
type Config struct {
	Model            string
	MaxAttempts      int
	PromptCharBudget int
	SchemaDir        string
}

// Orchestrator drives one claimed document through extraction, the bounded
// generate/validate/repair loop, estimation, and result persistence. All
// processing for a document is synchronous within the owning worker.
type Orchestrator struct {
	log       *slog.Logger
	cfg       Config
	docs      repository.DocumentRepository
	results   repository.ResultRepository
	store     storage.ObjectStore
	extractor extract.TextExtractor
	gen       llm.Generator
	gate      *quality.Gate
}

func NewOrchestrator(
	log *slog.Logger,
	cfg Config,
	docs repository.DocumentRepository,
	results repository.ResultRepository,
	store storage.ObjectStore,
	extractor extract.TextExtractor,
	gen llm.Generator,
	gate *quality.Gate,
) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.PromptCharBudget <= 0 {
		cfg.PromptCharBudget = 12000
	}
	return &Orchestrator{
		log:       log,
		cfg:       cfg,
		docs:      docs,
		results:   results,
		store:     store,
		extractor: extractor,
		gen:       gen,
		gate:      gate,
	}
}

func (o *Orchestrator) schemaPath(variant entity.Variant) string {
	name := "estimate_epics.schema.json"
	if variant == entity.VariantRows {
		name = "estimate_rows.schema.json"
	}
	return filepath.Join(o.cfg.SchemaDir, name)
}

// Process runs the full state machine for one claimed document. It never
// returns an error to the poll loop: every failure resolves to a terminal
// status on the document, and an unanticipated panic is converted to the
// generic unexpected_error rather than crashing the worker.
func (o *Orchestrator) Process(ctx context.Context, documentID uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("pipeline.panic", "document_id", documentID, "panic", r)
			o.docs.UpdateStatus(ctx, documentID, constants.StatusError, constants.ProgressTerminal, constants.CodeUnexpectedError)
		}
	}()

	doc, err := o.docs.Get(ctx, documentID)
	if err != nil {
		o.log.Error("pipeline.load_document_failed", "document_id", documentID, "error", err)
		return
	}

	params, err := entity.ParseDocumentParams(doc.Params)
	if err != nil {
		o.log.Warn("pipeline.invalid_params", "document_id", doc.ID, "error", err)
		o.fail(ctx, doc.ID, constants.CodeInvalidParams)
		return
	}

	combinedText, ok := o.extractText(ctx, doc)
	if !ok {
		return
	}

	o.docs.UpdateStatus(ctx, doc.ID, constants.StatusRunning, constants.ProgressCallingLLM, constants.MessageCallingLLM)

	schemaText, err := llm.LoadSchemaText(o.schemaPath(params.Variant))
	if err != nil {
		o.log.Error("pipeline.schema_load_failed", "document_id", doc.ID, "error", err)
		o.fail(ctx, doc.ID, constants.CodeSchemaLoadFailed)
		return
	}
	schema, err := llm.CompileSchema(schemaText)
	if err != nil {
		o.log.Error("pipeline.schema_compile_failed", "document_id", doc.ID, "error", err)
		o.fail(ctx, doc.ID, constants.CodeSchemaLoadFailed)
		return
	}

	skeleton := llm.SkeletonForVariant(params.Variant)
	promptText := llm.LimitPromptText(combinedText, o.cfg.PromptCharBudget)
	prompt := llm.BuildPrompt(doc.Prompt+"\n\n"+promptText, schemaText, skeleton)

	if err := o.gen.WaitReady(ctx); err != nil {
		o.log.Error("pipeline.llm_not_ready", "document_id", doc.ID, "error", err)
		o.fail(ctx, doc.ID, err.Error())
		return
	}

	loop := o.generateLoop(ctx, doc.ID, schema, schemaText, skeleton, combinedText, params.Variant, prompt)
	if loop.terminated {
		// Transport failure already moved the document to error; nothing
		// else is written on that path.
		return
	}
	if loop.payload == nil {
		lastError := loop.lastError
		if lastError == "" {
			lastError = constants.CodeInvalidJSON
		}
		o.fail(ctx, doc.ID, lastError)
		o.writeFailureResult(ctx, doc.ID, lastError, loop.rawOutput, loop.validationError, loop.finalPrompt)
		return
	}
	payload, finalPrompt, rawOutput, validationError := loop.payload, loop.finalPrompt, loop.rawOutput, loop.validationError

	total := estimate.Apply(payload, params.Variant, params.RoundToHours)
	payload["llm_model"] = o.cfg.Model

	o.docs.UpdateStatus(ctx, doc.ID, constants.StatusRunning, constants.ProgressSaving, constants.MessageSavingResult)

	resultJSON, err := json.Marshal(payload)
	if err != nil {
		o.log.Error("pipeline.marshal_result_failed", "document_id", doc.ID, "error", err)
		o.fail(ctx, doc.ID, constants.CodeUnexpectedError)
		return
	}
	result := &entity.GeneratedResult{
		DocumentID: doc.ID,
		Version:    1,
		LLMModel:   o.cfg.Model,
		ResultJSON: resultJSON,
		PromptText: finalPrompt,
	}
	if rawOutput != "" {
		result.RawLLMOutput = &rawOutput
	}
	if validationError != "" {
		result.ValidationError = &validationError
	}
	if err := o.results.Append(ctx, result); err != nil {
		o.fail(ctx, doc.ID, constants.CodeUnexpectedError)
		return
	}

	o.docs.UpdateStatus(ctx, doc.ID, constants.StatusDone, constants.ProgressTerminal, constants.MessageOK)
	o.log.Info("pipeline.done", "document_id", doc.ID, "total_expected_hours", total)
}

// extractText fetches and decodes every file of the document's presale in
// upload order. Extraction failures are terminal: the document goes to error
// with the failure's own message and no result row is written.
func (o *Orchestrator) extractText(ctx context.Context, doc *entity.Document) (string, bool) {
	files, err := o.docs.ListFiles(ctx, doc.PresaleID)
	if err != nil {
		o.log.Error("pipeline.list_files_failed", "document_id", doc.ID, "error", err)
		o.fail(ctx, doc.ID, constants.CodeStorageReadFailed)
		return "", false
	}

	var sections []string
	for _, file := range files {
		data, err := o.store.GetObject(ctx, file.StorageKey)
		if err != nil {
			o.log.Error("pipeline.storage_read_failed", "document_id", doc.ID, "file_id", file.ID, "error", err)
			o.fail(ctx, doc.ID, constants.CodeStorageReadFailed)
			return "", false
		}

		format := constants.FormatForFilename(file.Filename)
		text, err := o.extractor.Extract(data, format)
		if err != nil {
			o.log.Warn("pipeline.extract_failed", "document_id", doc.ID, "file", file.Filename, "format", format.String(), "error", err)
			o.fail(ctx, doc.ID, err.Error())
			return "", false
		}
		sections = append(sections, llm.FileSection(file.Filename, text))
	}
	return strings.Join(sections, "\n\n"), true
}

// loopOutcome is the result of the generate/validate/repair loop.
// terminated means the loop already moved the document to a terminal error
// (transport failure) and the caller must write nothing further.
type loopOutcome struct {
	payload         map[string]any
	finalPrompt     string
	rawOutput       string
	lastError       string
	validationError string
	terminated      bool
}

// generateLoop is the bounded generate → parse → gate → validate → repair
// cycle. A transport failure short-circuits the loop and terminates the
// document immediately; semantic rejections mutate the prompt and try again,
// up to MaxAttempts.
func (o *Orchestrator) generateLoop(
	ctx context.Context,
	documentID uuid.UUID,
	schema interface{ Validate(v any) error },
	schemaText, skeleton, sourceText string,
	variant entity.Variant,
	prompt string,
) loopOutcome {
	out := loopOutcome{finalPrompt: prompt}

	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		raw, err := o.gen.Generate(ctx, out.finalPrompt)
		if err != nil {
			var te *llm.TransportError
			if errors.As(err, &te) {
				o.recordTrace(ctx, documentID, attempt, out.finalPrompt, nil, constants.CodeHTTPError, te.Error())
				o.log.Error("pipeline.llm_transport_error", "document_id", documentID, "attempt", attempt, "error", te)
				o.fail(ctx, documentID, te.Error())
			} else {
				o.recordTrace(ctx, documentID, attempt, out.finalPrompt, nil, constants.CodeUnexpectedError, err.Error())
				o.fail(ctx, documentID, constants.CodeUnexpectedError)
			}
			out.terminated = true
			return out
		}
		out.rawOutput = raw

		obj, perr := llm.ExtractJSONObject(raw)
		if perr != nil {
			var pe *llm.ParseError
			detail := ""
			code := constants.CodeInvalidJSON
			if errors.As(perr, &pe) {
				code = pe.Code
				if pe.Err != nil {
					detail = pe.Err.Error()
				}
			}
			out.lastError = code
			o.recordTrace(ctx, documentID, attempt, out.finalPrompt, &raw, code, detail)
			out.finalPrompt = llm.BuildRepairPrompt(schemaText, skeleton, "the output was not a valid JSON object", raw)
			continue
		}

		o.gate.NormalizeRoles(obj, variant)
		obj["llm_model"] = o.cfg.Model

		if gerr := o.gate.Check(obj, variant, sourceText); gerr != nil {
			var ge *quality.GateError
			reason := gerr.Error()
			if errors.As(gerr, &ge) {
				reason = ge.Reason
			}
			out.lastError = constants.CodeQualityGateFailed
			o.recordTrace(ctx, documentID, attempt, out.finalPrompt, &raw, constants.CodeQualityGateFailed, reason)
			o.log.Warn("pipeline.quality_gate_failed", "document_id", documentID, "attempt", attempt, "reason", reason)
			out.finalPrompt = llm.BuildRepairPrompt(schemaText, skeleton, reason, raw)
			continue
		}

		if verr := schema.Validate(obj); verr != nil {
			out.lastError = constants.CodeSchemaValidationFailed
			out.validationError = constants.CodeSchemaValidationFailed
			o.recordTrace(ctx, documentID, attempt, out.finalPrompt, &raw, constants.CodeSchemaValidationFailed, verr.Error())
			o.log.Warn("pipeline.schema_validation_failed", "document_id", documentID, "attempt", attempt, "error", verr)
			out.finalPrompt = llm.BuildRepairPrompt(schemaText, skeleton, fmt.Sprintf("schema validation failed: %v", verr), raw)
			continue
		}

		o.recordTrace(ctx, documentID, attempt, out.finalPrompt, &raw, "", "")
		out.payload = obj
		return out
	}

	return out
}

// writeFailureResult preserves an audit trail when all attempts are
// exhausted: a version-1 result carrying the error code, the raw output (if
// any), and the validation error.
func (o *Orchestrator) writeFailureResult(ctx context.Context, documentID uuid.UUID, lastError, rawOutput, validationError, promptText string) {
	errJSON, _ := json.Marshal(map[string]string{"error": lastError})
	result := &entity.GeneratedResult{
		DocumentID: documentID,
		Version:    1,
		LLMModel:   o.cfg.Model,
		ResultJSON: errJSON,
		PromptText: promptText,
	}
	if rawOutput != "" {
		result.RawLLMOutput = &rawOutput
	}
	ve := validationError
	if ve == "" {
		ve = lastError
	}
	result.ValidationError = &ve
	if err := o.results.Append(ctx, result); err != nil {
		o.log.Error("pipeline.failure_result_write_failed", "document_id", documentID, "error", err)
	}
}

func (o *Orchestrator) fail(ctx context.Context, documentID uuid.UUID, message string) {
	o.docs.UpdateStatus(ctx, documentID, constants.StatusError, constants.ProgressTerminal, message)
}

// recordTrace is best-effort: a trace-write failure is logged and never
// aborts the job.
func (o *Orchestrator) recordTrace(ctx context.Context, documentID uuid.UUID, attempt int, prompt string, rawOutput *string, errorCode, errorDetail string) {
	trace := &entity.AttemptTrace{
		DocumentID: documentID,
		Attempt:    attempt,
		Prompt:     prompt,
		RawOutput:  rawOutput,
	}
	if errorCode != "" {
		trace.ErrorCode = &errorCode
	}
	if errorDetail != "" {
		trace.ErrorDetail = &errorDetail
	}
	if err := o.results.AppendTrace(ctx, trace); err != nil {
		o.log.Warn("pipeline.trace_write_failed", "document_id", documentID, "attempt", attempt, "error", err)
	}
}
