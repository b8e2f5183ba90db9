// Package filtertools exposes the key filter codec to agents as two MCP
// tools: decode_key_filter turns a flat filter into the nested predicate tree
// and encode_key_filter does the reverse.
package filtertools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/localrivet/iotmcp/keyfilter"
	"github.com/localrivet/iotmcp/logx"
	"github.com/localrivet/iotmcp/protocol"
	"github.com/localrivet/iotmcp/server"
	"github.com/localrivet/iotmcp/util/conversion"
	"github.com/localrivet/iotmcp/util/response"
	"github.com/localrivet/iotmcp/util/schema"
	"github.com/localrivet/iotmcp/util/tool"
)

// Tool names.
const (
	DecodeToolName = "decode_key_filter"
	EncodeToolName = "encode_key_filter"
)

const (
	decodeDescription = "Convert a flat key filter (keyType, key, predicateType, operation, " +
		"defaultValue/userValue, dynamicValue* fields, complexOperation and nestedPredicates) " +
		"into the nested key filter used by dashboards and alarm rules."
	encodeDescription = "Convert a nested key filter ({key, valueType, predicate}) into the " +
		"flat form accepted by decode_key_filter."
)

type encodeArgs struct {
	KeyFilter map[string]interface{} `json:"keyFilter" required:"true" description:"Nested key filter: {key:{type,key}, valueType, predicate}"`
}

// Tools holds the compiled argument schemas shared by both tool handlers.
type Tools struct {
	logger   logx.Logger
	maxDepth int

	decodeSchema    protocol.ToolInputSchema
	encodeSchema    protocol.ToolInputSchema
	decodeValidator *schema.Validator
	encodeValidator *schema.Validator
}

// New compiles the tool schemas. maxDepth bounds COMPLEX nesting on both
// decode and encode; zero or less disables the limit.
func New(logger logx.Logger, maxDepth int) (*Tools, error) {
	if logger == nil {
		logger = logx.Nop()
	}
	t := &Tools{
		logger:       logger.With("component", "filtertools"),
		maxDepth:     maxDepth,
		decodeSchema: DecodeSchema(),
		encodeSchema: schema.FromStruct(encodeArgs{}),
	}

	var err error
	if t.decodeValidator, err = schema.Compile(DecodeToolName, t.decodeSchema); err != nil {
		return nil, err
	}
	if t.encodeValidator, err = schema.Compile(EncodeToolName, t.encodeSchema); err != nil {
		return nil, err
	}
	return t, nil
}

// DecodeSchema is the input schema of decode_key_filter. Enumerated fields
// list the accepted names; nested records are checked by the decoder.
func DecodeSchema() protocol.ToolInputSchema {
	s := schema.FromStruct(keyfilter.FlatKeyFilter{})
	s = schema.WithEnum(s, "keyType", keyfilter.EntityKeyTypes())
	s = schema.WithEnum(s, "valueType", keyfilter.EntityKeyValueTypes())
	s = schema.WithEnum(s, "predicateType", keyfilter.PredicateTypes())
	s = schema.WithEnum(s, "operation", leafOperations())
	s = schema.WithEnum(s, "dynamicValueSourceType", keyfilter.DynamicValueSourceTypes())
	s = schema.WithEnum(s, "complexOperation", keyfilter.ComplexOperations())
	return s
}

// leafOperations is the union of the STRING, NUMERIC and BOOLEAN operation
// names, in first-seen order.
func leafOperations() []string {
	seen := map[string]bool{}
	var ops []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			ops = append(ops, name)
		}
	}
	for _, op := range keyfilter.StringOperations() {
		add(string(op))
	}
	for _, op := range keyfilter.NumericOperations() {
		add(string(op))
	}
	for _, op := range keyfilter.BooleanOperations() {
		add(string(op))
	}
	return ops
}

// Handlers returns both tools, decode first.
func (t *Tools) Handlers() []tool.ToolHandler {
	readOnly := protocol.ToolAnnotations{
		ReadOnlyHint:   protocol.BoolPtr(true),
		IdempotentHint: protocol.BoolPtr(true),
	}
	return []tool.ToolHandler{
		tool.NewBaseTool(DecodeToolName, decodeDescription).
			WithSchema(t.decodeSchema).
			WithAnnotations(readOnly).
			WithHandler(t.Decode),
		tool.NewBaseTool(EncodeToolName, encodeDescription).
			WithSchema(t.encodeSchema).
			WithAnnotations(readOnly).
			WithHandler(t.Encode),
	}
}

// Register adds both tools to srv.
func (t *Tools) Register(srv *server.Server) error {
	for _, h := range t.Handlers() {
		if err := srv.AddTool(h); err != nil {
			return fmt.Errorf("register %s: %w", h.Tool().Name, err)
		}
	}
	return nil
}

// Decode handles decode_key_filter. The result is the nested JSON form.
func (t *Tools) Decode(_ context.Context, arguments map[string]interface{}) ([]protocol.Content, bool) {
	log := t.callLogger(DecodeToolName)

	args := conversion.PruneNulls(arguments)
	if err := t.decodeValidator.Validate(args); err != nil {
		log.Warn("tool call rejected", "outcome", "invalid_arguments", "error", err)
		return response.Error(err.Error())
	}

	flat, content, isError := schema.HandleArgs[keyfilter.FlatKeyFilter](args)
	if isError {
		log.Warn("tool call rejected", "outcome", "invalid_arguments")
		return content, true
	}

	kf, err := keyfilter.Decode(flat, keyfilter.WithMaxDepth(t.maxDepth))
	if err != nil {
		return codecError(log, "decode", err)
	}

	log.Info("tool call completed", "outcome", "ok", "predicate_type", kf.Predicate.Type())
	return response.JSON(kf)
}

// Encode handles encode_key_filter. The result is the flat JSON form.
func (t *Tools) Encode(_ context.Context, arguments map[string]interface{}) ([]protocol.Content, bool) {
	log := t.callLogger(EncodeToolName)

	if err := t.encodeValidator.Validate(arguments); err != nil {
		log.Warn("tool call rejected", "outcome", "invalid_arguments", "error", err)
		return response.Error(err.Error())
	}

	args, content, isError := schema.HandleArgs[encodeArgs](arguments)
	if isError {
		log.Warn("tool call rejected", "outcome", "invalid_arguments")
		return content, true
	}

	raw, err := json.Marshal(args.KeyFilter)
	if err != nil {
		log.Error("tool call failed", "outcome", "internal_error", "error", err)
		return response.Error("Failed to read keyFilter: " + err.Error())
	}
	kf, err := keyfilter.ParseKeyFilterJSON(raw, keyfilter.WithMaxDepth(t.maxDepth))
	if err != nil {
		return codecError(log, "parse", err)
	}
	flat, err := keyfilter.Encode(kf)
	if err != nil {
		return codecError(log, "encode", err)
	}

	log.Info("tool call completed", "outcome", "ok", "predicate_type", flat.PredicateType)
	return response.JSON(flat)
}

func (t *Tools) callLogger(name string) logx.Logger {
	return t.logger.With("call_id", uuid.NewString(), "tool", name)
}

// codecError reports a codec failure in-band, naming the error kind and the
// offending field.
func codecError(log logx.Logger, stage string, err error) ([]protocol.Content, bool) {
	var fe *keyfilter.FieldError
	if !errors.As(err, &fe) {
		log.Error("tool call failed", "outcome", "internal_error", "stage", stage, "error", err)
		return response.Error(fmt.Sprintf("%s failed: %v", stage, err))
	}

	path := fe.Path
	if path == "" {
		path = "(root)"
	}
	log.Warn("tool call rejected", "outcome", "codec_error", "stage", stage, "kind", fe.Kind, "path", path)
	return response.Error(fmt.Sprintf("%s failed: %s at %s: %v", stage, fe.Kind, path, err))
}
