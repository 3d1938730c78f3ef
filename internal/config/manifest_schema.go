package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	smerrors "github.com/systmms/secretmap/internal/errors"
)

// manifestSchema is the structural contract for secretmap.yaml. It rejects
// unknown keys and wrong types before the field-level checks run; domain
// rules (kind names, uniqueness, source grammar) stay in Validate where the
// messages carry suggestions.
const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "version": {"type": "integer"},
    "defaults": {
      "type": ["object", "null"],
      "additionalProperties": false,
      "properties": {
        "timeout_ms": {"type": "integer"},
        "aws": {
          "type": ["object", "null"],
          "additionalProperties": false,
          "properties": {
            "region": {"type": "string"},
            "profile": {"type": "string"},
            "endpoint": {"type": "string"},
            "access_key_id": {"type": "string"},
            "secret_access_key": {"type": "string"},
            "session_token": {"type": "string"},
            "assume_role": {"type": "string"},
            "sso": {
              "type": ["object", "null"],
              "additionalProperties": false,
              "properties": {
                "start_url": {"type": "string"},
                "region": {"type": "string"},
                "account_id": {"type": "string"},
                "role_name": {"type": "string"}
              }
            }
          }
        },
        "azure": {
          "type": ["object", "null"],
          "additionalProperties": false,
          "properties": {
            "vault_url": {"type": "string"},
            "tenant_id": {"type": "string"},
            "client_id": {"type": "string"},
            "client_secret": {"type": "string"}
          }
        },
        "gcp": {
          "type": ["object", "null"],
          "additionalProperties": false,
          "properties": {
            "project": {"type": "string"},
            "credentials_file": {"type": "string"},
            "impersonate_account": {"type": "string"}
          }
        },
        "akeyless": {
          "type": ["object", "null"],
          "additionalProperties": false,
          "properties": {
            "gateway_url": {"type": "string"},
            "access_id": {"type": "string"},
            "access_key": {"type": "string"},
            "token": {"type": "string"}
          }
        }
      }
    },
    "secrets": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string"},
          "kind": {"type": "string"},
          "source": {"type": "string"},
          "optional": {"type": "boolean"},
          "mapping": {
            "type": ["object", "null"],
            "additionalProperties": {"type": "string"}
          },
          "verify": {"type": "boolean"}
        }
      }
    },
    "vars": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string"},
          "required": {"type": "boolean"},
          "when_secret": {"type": "string"},
          "pattern": {"type": "string"}
        }
      }
    }
  }
}`

var manifestSchemaLoader = gojsonschema.NewStringLoader(manifestSchema)

// validateManifestStructure checks the raw decoded document against the
// manifest schema. A nil document (empty file) is structurally valid.
func validateManifestStructure(doc any) error {
	if doc == nil {
		return nil
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest for validation: %w", err)
	}

	result, err := gojsonschema.Validate(manifestSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	lines := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		lines = append(lines, desc.String())
	}
	return smerrors.UserError{
		Message:    "Manifest does not match the expected structure",
		Details:    strings.Join(lines, "; "),
		Suggestion: "Check for misspelled keys; secretmap.yaml only accepts version, defaults, secrets and vars",
	}
}
