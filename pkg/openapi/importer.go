// Package openapi turns OpenAPI 3 documents into component definitions, one
// per operation.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
)

const (
	// ComponentType marks definitions produced from an OpenAPI operation.
	ComponentType = "OAIComponent31"
	// ResultField wraps non-object responses so they land on a single output.
	ResultField = "result"
)

var (
	ErrInvalidDocument = errors.New("invalid openapi document")
	ErrNoNamespace     = errors.New("namespace is required")
)

var nonIdent = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Namespace is everything imported from one document.
type Namespace struct {
	Name       string
	Title      string
	BaseURL    string
	Components []models.ComponentFormat
}

// Importer converts documents using a kin-openapi loader.
type Importer struct {
	logger   *slog.Logger
	validate bool
}

type Option func(*Importer)

// WithoutValidation skips document validation, for documents that are loose but usable.
func WithoutValidation() Option {
	return func(i *Importer) {
		i.validate = false
	}
}

func NewImporter(logger *slog.Logger, opts ...Option) *Importer {
	if logger == nil {
		logger = slog.Default()
	}

	i := &Importer{
		logger:   logger.With("module", "openapi_importer"),
		validate: true,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// ImportFile reads path (YAML or JSON) and imports it under namespace.
func (i *Importer) ImportFile(ctx context.Context, namespace, path string) (*Namespace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return i.Import(ctx, namespace, data)
}

// Import parses an OpenAPI document and builds a component for every operation.
func (i *Importer) Import(ctx context.Context, namespace string, data []byte) (*Namespace, error) {
	if namespace == "" {
		return nil, ErrNoNamespace
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if i.validate {
		if err := doc.Validate(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
	}

	ns := &Namespace{Name: namespace}
	if doc.Info != nil {
		ns.Title = doc.Info.Title
	}

	if len(doc.Servers) > 0 && doc.Servers[0] != nil {
		ns.BaseURL = strings.TrimRight(doc.Servers[0].URL, "/")
	}

	if doc.Paths == nil {
		return ns, nil
	}

	paths := doc.Paths.Map()
	keys := make([]string, 0, len(paths))

	for p := range paths {
		keys = append(keys, p)
	}

	sort.Strings(keys)

	for _, path := range keys {
		item := paths[path]
		ops := item.Operations()

		methods := make([]string, 0, len(ops))
		for m := range ops {
			methods = append(methods, m)
		}

		sort.Strings(methods)

		for _, method := range methods {
			format := i.operation(namespace, method, path, item.Parameters, ops[method], doc.Security)
			ns.Components = append(ns.Components, format)
		}
	}

	i.logger.InfoContext(ctx, "Imported OpenAPI document",
		"namespace", namespace, "operations", len(ns.Components), "base_url", ns.BaseURL)

	return ns, nil
}

func (i *Importer) operation(
	namespace, method, path string,
	shared openapi3.Parameters,
	op *openapi3.Operation,
	security openapi3.SecurityRequirements,
) models.ComponentFormat {
	format := models.ComponentFormat{
		Type:           ComponentType,
		APINamespace:   namespace,
		APIOperationID: operationID(method, path, op.OperationID),
		Title:          op.Summary,
		Description:    op.Description,
		Tags:           op.Tags,
		Method:         strings.ToUpper(method),
		Path:           path,
		Inputs:         map[string]models.IO{},
		Outputs:        map[string]models.IO{},
	}

	if format.Title == "" {
		format.Title = format.APIOperationID
	}

	if len(op.Tags) > 0 {
		format.Category = op.Tags[0]
	}

	if op.Security != nil {
		security = *op.Security
	}

	for _, req := range security {
		format.Security = append(format.Security, map[string][]string(req))
	}

	// operation-level parameters override path-level ones of the same name
	for _, params := range []openapi3.Parameters{shared, op.Parameters} {
		for _, ref := range params {
			if ref == nil || ref.Value == nil {
				continue
			}

			p := ref.Value
			io := schemaIO(p.Name, schemaOf(p.Schema))
			io.Required = p.Required || p.In == openapi3.ParameterInPath
			io.Source = &models.Source{SourceType: models.SourceParameter, In: p.In}

			if p.Description != "" {
				io.Description = p.Description
			}

			format.Inputs[p.Name] = io
		}
	}

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		i.requestBody(&format, op.RequestBody.Value)
	}

	if op.Responses != nil {
		i.response(&format, op.Responses)
	}

	return format
}

func (i *Importer) requestBody(format *models.ComponentFormat, body *openapi3.RequestBody) {
	media := body.Content.Get("application/json")
	if media == nil {
		return
	}

	schema := schemaOf(media.Schema)
	if schema == nil || len(schema.Properties) == 0 {
		return
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	for name, ref := range schema.Properties {
		prop := schemaOf(ref)
		if prop != nil && prop.ReadOnly {
			continue
		}

		io := schemaIO(name, prop)
		io.Required = required[name]
		io.Source = &models.Source{SourceType: models.SourceRequestBody}
		format.Inputs[name] = io
	}
}

func (i *Importer) response(format *models.ComponentFormat, responses *openapi3.Responses) {
	ref := responses.Status(http.StatusOK)
	if ref == nil {
		ref = responses.Status(http.StatusCreated)
	}

	if ref == nil {
		ref = responses.Default()
	}

	if ref == nil || ref.Value == nil || len(ref.Value.Content) == 0 {
		return
	}

	if media := ref.Value.Content.Get("application/json"); media != nil {
		schema := schemaOf(media.Schema)
		if schema != nil && len(schema.Properties) > 0 {
			for name, prop := range schema.Properties {
				io := schemaIO(name, schemaOf(prop))
				io.Source = &models.Source{SourceType: models.SourceResponseBody}
				format.Outputs[name] = io
			}

			return
		}

		format.ResultField = ResultField
		format.Outputs[ResultField] = schemaIO(ResultField, schema)

		return
	}

	contentTypes := make([]string, 0, len(ref.Value.Content))
	for ct := range ref.Value.Content {
		contentTypes = append(contentTypes, ct)
	}

	sort.Strings(contentTypes)

	ct := contentTypes[0]
	format.ResponseContentType = ct
	format.ResultField = ResultField

	out := models.IO{Name: ResultField, Title: ResultField, Type: models.TypeString}

	switch {
	case strings.HasPrefix(ct, "image/"):
		out.CustomSocket = "image"
	case strings.HasPrefix(ct, "audio/"):
		out.CustomSocket = "audio"
	case !strings.HasPrefix(ct, "text/"):
		out.CustomSocket = "file"
	}

	format.Outputs[ResultField] = out
}

func schemaOf(ref *openapi3.SchemaRef) *openapi3.Schema {
	if ref == nil {
		return nil
	}

	return ref.Value
}

func schemaIO(name string, schema *openapi3.Schema) models.IO {
	io := models.IO{Name: name, Title: name}
	if schema == nil {
		return io
	}

	if schema.Title != "" {
		io.Title = schema.Title
	}

	io.Description = schema.Description
	io.Type = primaryType(schema)
	io.Default = schema.Default
	io.Minimum = schema.Min
	io.Maximum = schema.Max
	io.Step = schema.MultipleOf
	io.Format = schema.Format
	io.Readonly = schema.ReadOnly

	if len(schema.Enum) > 0 {
		io.Choices = append([]any(nil), schema.Enum...)
	}

	if schema.Format == "binary" {
		io.CustomSocket = "file"
	}

	if io.Type == models.TypeArray {
		if item := schemaOf(schema.Items); item != nil && item.Format == "binary" {
			io.CustomSocket = "file"
			io.SocketOpts.Array = true
		}
	}

	return io
}

func primaryType(schema *openapi3.Schema) string {
	for _, t := range schema.Type.Slice() {
		if t != openapi3.TypeNull {
			return t
		}
	}

	switch {
	case len(schema.Properties) > 0:
		return models.TypeObject
	case schema.Items != nil:
		return models.TypeArray
	}

	return ""
}

func operationID(method, path, declared string) string {
	if declared != "" {
		return declared
	}

	id := strings.Trim(nonIdent.ReplaceAllString(path, "_"), "_")
	if id == "" {
		return strings.ToLower(method)
	}

	return strings.ToLower(method) + "_" + id
}
