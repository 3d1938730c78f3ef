package sources

import (
	"context"
	"fmt"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/impersonate"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	smerrors "github.com/systmms/secretmap/internal/errors"
)

// GCPSource fetches payloads from Google Cloud Secret Manager.
//
// Reference grammar: name[@version][#json.path]. The version defaults to
// "latest".
type GCPSource struct {
	client  *secretmanager.Client
	project string
}

// GCPOption customizes source construction.
type GCPOption func(*GCPSource)

// WithGCPClient injects a preconfigured client. Tests point one at a local
// fake gRPC server.
func WithGCPClient(client *secretmanager.Client) GCPOption {
	return func(s *GCPSource) {
		s.client = client
	}
}

// NewGCPSourceFactory is the registry entry point for gcp-sm.
func NewGCPSourceFactory(opts Options) (Source, error) {
	return NewGCPSource(context.Background(), opts)
}

// NewGCPSource builds the source from the manifest's GCP defaults. The
// project may come from the manifest or the usual environment variables;
// credentials follow Application Default Credentials unless a credentials
// file or impersonation target is configured.
func NewGCPSource(ctx context.Context, opts Options, srcOpts ...GCPOption) (*GCPSource, error) {
	s := &GCPSource{}

	defaults := opts.Defaults.GCP
	if defaults != nil {
		s.project = defaults.Project
	}
	if s.project == "" {
		s.project = gcpProjectFromEnv()
	}

	for _, opt := range srcOpts {
		opt(s)
	}

	if s.project == "" {
		return nil, &smerrors.ConfigError{
			Field:      "defaults.gcp.project",
			Message:    "project is required for the gcp-sm source",
			Suggestion: "Add 'defaults: gcp: project: <id>' to the manifest or set GOOGLE_CLOUD_PROJECT",
		}
	}

	if s.client == nil {
		var clientOpts []option.ClientOption

		if defaults != nil && defaults.CredentialsFile != "" {
			clientOpts = append(clientOpts, option.WithCredentialsFile(defaults.CredentialsFile))
		}

		if defaults != nil && defaults.ImpersonateAccount != "" {
			ts, err := impersonate.CredentialsTokenSource(ctx, impersonate.CredentialsConfig{
				TargetPrincipal: defaults.ImpersonateAccount,
				Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
			})
			if err != nil {
				return nil, fmt.Errorf("failed to impersonate %s: %w", defaults.ImpersonateAccount, err)
			}
			clientOpts = append(clientOpts, option.WithTokenSource(ts))
		}

		client, err := secretmanager.NewClient(ctx, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
		}
		s.client = client
	}

	return s, nil
}

func (s *GCPSource) Scheme() string {
	return "gcp-sm"
}

func (s *GCPSource) Fetch(ctx context.Context, ref string) (string, error) {
	base, jsonPath := splitFragment(ref)
	name, version := parseGCPRef(base)

	result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/%s", s.project, name, version),
	})
	if err != nil {
		return "", s.mapError(name, err)
	}

	if result.Payload == nil {
		return "", fmt.Errorf("secret %s has no payload", name)
	}

	value := string(result.Payload.Data)
	if jsonPath != "" {
		return extractJSONPath(value, jsonPath)
	}
	return value, nil
}

// Healthy lists one secret to verify credentials and reachability.
func (s *GCPSource) Healthy(ctx context.Context) error {
	it := s.client.ListSecrets(ctx, &secretmanagerpb.ListSecretsRequest{
		Parent:   fmt.Sprintf("projects/%s", s.project),
		PageSize: 1,
	})

	if _, err := it.Next(); err != nil && err != iterator.Done {
		switch status.Code(err) {
		case codes.PermissionDenied, codes.Unauthenticated:
			return &AuthError{Source: s.Scheme(), Message: err.Error()}
		}
		return fmt.Errorf("secret manager unreachable: %w", err)
	}
	return nil
}

func (s *GCPSource) mapError(name string, err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return &NotFoundError{Source: s.Scheme(), Ref: name}
	case codes.PermissionDenied, codes.Unauthenticated:
		return &AuthError{Source: s.Scheme(), Message: err.Error()}
	}
	return fmt.Errorf("failed to access secret %s: %w", name, err)
}

func parseGCPRef(ref string) (name, version string) {
	if idx := strings.LastIndex(ref, "@"); idx > 0 {
		return ref[:idx], ref[idx+1:]
	}
	return ref, "latest"
}

// gcpProjectFromEnv checks the environment variables the gcloud tooling
// and Cloud Functions runtimes set.
func gcpProjectFromEnv() string {
	for _, key := range []string{"GOOGLE_CLOUD_PROJECT", "GCLOUD_PROJECT", "GCP_PROJECT"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
