package errors

import (
	"errors"
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a manifest error with helpful context
type ConfigError struct {
	Field      string
	Value      any
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// CommandError represents a child process execution error
type CommandError struct {
	Command    string
	ExitCode   int
	Message    string
	Suggestion string
}

func (e CommandError) Error() string {
	msg := fmt.Sprintf("Command '%s' failed", e.Command)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit code: %d)", e.ExitCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// SourceError enhances secret source errors with context
func SourceError(source string, operation string, err error) error {
	suggestion := getSourceSuggestion(source, err)

	return UserError{
		Message:    fmt.Sprintf("%s source error during %s", source, operation),
		Suggestion: suggestion,
		Err:        err,
	}
}

// getSourceSuggestion returns helpful suggestions based on source scheme and error
func getSourceSuggestion(source string, err error) string {
	errStr := err.Error()

	switch source {
	case "aws-sm", "aws-ssm":
		if strings.Contains(errStr, "credentials") || strings.Contains(errStr, "authorization") {
			return "Configure AWS credentials: 'aws configure' or set AWS_PROFILE"
		}
		if strings.Contains(errStr, "AccessDenied") {
			if source == "aws-ssm" {
				return "Check IAM permissions for ssm:GetParameter"
			}
			return "Check IAM permissions for secretsmanager:GetSecretValue"
		}
		if strings.Contains(errStr, "ResourceNotFoundException") {
			return "Verify the secret name and region. List secrets with: 'aws secretsmanager list-secrets'"
		}
		if strings.Contains(errStr, "ParameterNotFound") {
			return "Verify the parameter name and region. List parameters with: 'aws ssm describe-parameters'"
		}
		if strings.Contains(errStr, "ThrottlingException") {
			return "AWS rate limit exceeded. Wait a moment and try again"
		}

	case "azure-kv":
		if strings.Contains(errStr, "DefaultAzureCredential") || strings.Contains(errStr, "authentication failed") {
			return "Run 'az login' or set AZURE_TENANT_ID, AZURE_CLIENT_ID and AZURE_CLIENT_SECRET"
		}
		if strings.Contains(errStr, "Forbidden") || strings.Contains(errStr, "403") {
			return "Grant your principal the 'Key Vault Secrets User' role on the vault"
		}
		if strings.Contains(errStr, "SecretNotFound") || strings.Contains(errStr, "404") {
			return "Verify the secret name. List secrets with: 'az keyvault secret list --vault-name <vault>'"
		}

	case "gcp-sm":
		if strings.Contains(errStr, "could not find default credentials") {
			return "Run 'gcloud auth application-default login' or set GOOGLE_APPLICATION_CREDENTIALS"
		}
		if strings.Contains(errStr, "PermissionDenied") {
			return "Grant roles/secretmanager.secretAccessor on the secret or project"
		}
		if strings.Contains(errStr, "NotFound") {
			return "Verify the secret and project. List secrets with: 'gcloud secrets list'"
		}

	case "akeyless":
		if strings.Contains(errStr, "authentication") || strings.Contains(errStr, "Unauthorized") {
			return "Check the Akeyless access id and access key, or refresh the token"
		}
		if strings.Contains(errStr, "not found") {
			return "Verify the item path. List items with: 'akeyless list-items'"
		}

	case "keyring":
		if strings.Contains(errStr, "not found") {
			return "Store the entry first with your OS keychain tools or 'secret-tool store'"
		}
		if strings.Contains(errStr, "locked") {
			return "Unlock your OS keychain and try again"
		}
	}

	// Generic suggestions
	if strings.Contains(errStr, "timeout") {
		return "The operation timed out. Check your network connection and try again"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check your network and source configuration"
	}

	return ""
}

// WrapCommandNotFound wraps command not found errors with helpful suggestions
func WrapCommandNotFound(command string, err error) error {
	suggestions := map[string]string{
		"npm":     "Install Node.js from https://nodejs.org/",
		"python":  "Install Python from https://python.org/",
		"go":      "Install Go from https://golang.org/",
		"docker":  "Install Docker from https://docker.com/",
		"git":     "Install Git from https://git-scm.com/",
		"make":    "Install Make (usually comes with build tools)",
		"psql":    "Install the PostgreSQL client (postgresql-client package)",
		"mysql":   "Install the MySQL client (mysql-client package)",
		"kubectl": "Install kubectl from https://kubernetes.io/docs/tasks/tools/",
	}

	suggestion := suggestions[command]
	if suggestion == "" {
		suggestion = fmt.Sprintf("Make sure '%s' is installed and in your PATH", command)
	}

	return CommandError{
		Command:    command,
		Message:    "command not found",
		Suggestion: suggestion,
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	retryablePatterns := []string{
		"timeout",
		"temporary failure",
		"connection reset",
		"broken pipe",
		"rate limit",
		"throttling",
		"too many requests",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(strings.ToLower(errStr), pattern) {
			return true
		}
	}

	return false
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Unwrap to get the root cause
	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	// Already a user-friendly error
	if _, ok := err.(UserError); ok {
		return err
	}
	if _, ok := err.(ConfigError); ok {
		return err
	}
	if _, ok := err.(CommandError); ok {
		return err
	}

	// Simplify common technical errors
	errStr := rootErr.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	// Return original error if we can't simplify it
	return err
}
