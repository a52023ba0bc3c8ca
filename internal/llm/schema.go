package llm

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadSchemaText reads a schema document from disk, tolerating a UTF-8 BOM
// prefix (some editors save them that way).
func LoadSchemaText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read schema: %w", err)
	}
	return string(bytes.TrimPrefix(raw, utf8BOM)), nil
}

// CompileSchema compiles schema text into a validator.
func CompileSchema(schemaText string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(schemaText)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateAgainstSchema checks an already-parsed payload against the schema.
func ValidateAgainstSchema(schema *jsonschema.Schema, payload any) error {
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
