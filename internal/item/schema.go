package item

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/group.schema.json
var groupSchemaJSON []byte

const groupSchemaURL = "group.schema.json"

var (
	groupSchema     *jsonschema.Schema
	groupSchemaErr  error
	groupSchemaOnce sync.Once

	issuePrinter = message.NewPrinter(language.English)
)

// ValidationResult is the outcome of a structural group check.
type ValidationResult struct {
	Valid  bool
	Issues []ValidationIssue
}

// ValidationIssue is one structural problem in a group document.
type ValidationIssue struct {
	Path    string // e.g. "/0/files/1/path"
	Message string
	Keyword string
}

func loadGroupSchema() (*jsonschema.Schema, error) {
	groupSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(groupSchemaJSON))
		if err != nil {
			groupSchemaErr = fmt.Errorf("decoding group schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(groupSchemaURL, doc); err != nil {
			groupSchemaErr = fmt.Errorf("registering group schema: %w", err)
			return
		}
		groupSchema, groupSchemaErr = c.Compile(groupSchemaURL)
	})
	return groupSchema, groupSchemaErr
}

// ValidateGroup checks raw group bytes (YAML or JSON) against the embedded
// group schema. Only structure is checked: field types, required keys and
// unknown keys. A non-nil error means the document could not be parsed.
func ValidateGroup(data []byte) (*ValidationResult, error) {
	schema, err := loadGroupSchema()
	if err != nil {
		return nil, err
	}

	inst, err := toInstance(data)
	if err != nil {
		return nil, err
	}

	err = schema.Validate(inst)
	if err == nil {
		return &ValidationResult{Valid: true}, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("validating group: %w", err)
	}

	issues := leafIssues(ve, nil, make(map[ValidationIssue]bool))
	if len(issues) == 0 {
		issues = []ValidationIssue{{Message: ve.Error()}}
	}
	return &ValidationResult{Issues: issues}, nil
}

// toInstance decodes YAML (a superset of JSON) and re-reads it as JSON so
// numbers and mapping keys take the shapes the schema library expects.
func toInstance(data []byte) (any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if raw == nil {
		raw = []any{}
	}

	buf, err := json.Marshal(stringKeys(raw))
	if err != nil {
		return nil, fmt.Errorf("converting group to JSON: %w", err)
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(buf))
}

func stringKeys(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, e := range val {
			val[k] = stringKeys(e)
		}
		return val
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[fmt.Sprint(k)] = stringKeys(e)
		}
		return m
	case []any:
		for i, e := range val {
			val[i] = stringKeys(e)
		}
		return val
	default:
		return val
	}
}

// leafIssues flattens the error tree into its leaves, dropping repeats.
// $ref wrappers carry no message of their own.
func leafIssues(ve *jsonschema.ValidationError, out []ValidationIssue, seen map[ValidationIssue]bool) []ValidationIssue {
	for _, cause := range ve.Causes {
		out = leafIssues(cause, out, seen)
	}
	if len(ve.Causes) > 0 || ve.ErrorKind == nil {
		return out
	}

	kw := ve.ErrorKind.KeywordPath()
	if len(kw) == 0 || kw[len(kw)-1] == "$ref" {
		return out
	}

	issue := ValidationIssue{
		Keyword: kw[len(kw)-1],
		Message: ve.ErrorKind.LocalizedString(issuePrinter),
	}
	if len(ve.InstanceLocation) > 0 {
		issue.Path = "/" + strings.Join(ve.InstanceLocation, "/")
	}
	if !seen[issue] {
		seen[issue] = true
		out = append(out, issue)
	}
	return out
}
