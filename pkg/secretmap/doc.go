// Package secretmap decodes structured secret payloads and projects their
// fields into a variable store.
//
// A secret arrives as a raw JSON text payload together with a diagnostic
// name and a declared kind. The pipeline is always the same three steps:
//
//	decode → validate shape → project fields
//
// Decode tolerates one layer of surrounding quote characters and strips
// literal backslashes before parsing. Shape validation checks the decoded
// value against the kind's fixed field table. Projection writes each mapped
// field into a varstore.Store under its target variable name, failing fast
// on absent or null fields.
//
// # Secret kinds
//
// Four kinds are recognized, each with a fixed set of required text fields:
//
//	basic_credentials     username, password
//	database_credentials  engine, username, password, host, dbname, port
//	key_value             arbitrary keys, every value must be text
//	ssh_key               ssh_private_key
//
// Each kind except key_value carries a default field → variable mapping
// (for example username → USERNAME). Callers override any subset of the
// defaults when building a handler; key_value has no defaults, so its
// mapping must always be supplied in full.
//
// # Handlers
//
// A Factory is pre-bound to a kind and its default mapping. Building a
// handler merges caller overrides into the defaults once, at construction:
//
//	store := varstore.New()
//	handler := secretmap.DefaultFactory(secretmap.KindDatabaseCredentials).
//		Handler(store, secretmap.Mapping{"host": "CUSTOM_HOST"})
//
//	if err := handler.Apply("prod-db", payload); err != nil {
//		// one of the five typed errors below
//	}
//
// Apply requires a payload; ApplyOptional treats an empty payload as a
// no-op and otherwise behaves identically.
//
// # Errors
//
// Failures are immediate and typed: MissingPayloadError, InvalidJSONError,
// InvalidShapeError, MissingFieldError, NullFieldError. Every error carries
// the secret's diagnostic name, and the shape/field errors its kind, so
// operators can trace which secret and which field failed. Projection has
// no rollback: fields written before a failing mapping entry stay written.
package secretmap
