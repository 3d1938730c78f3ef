package sources

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sso"
	"github.com/aws/aws-sdk-go-v2/service/ssooidc"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/systmms/secretmap/internal/config"
)

// loadAWSConfig builds the SDK configuration shared by the aws-sm and
// aws-ssm sources. Credential precedence: static keys from the manifest,
// then an IAM Identity Center session, then an assumed role layered on top
// of whichever base credentials resolved.
func loadAWSConfig(ctx context.Context, defaults *config.AWSDefaults) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if defaults != nil {
		if defaults.Region != "" {
			opts = append(opts, awsconfig.WithRegion(defaults.Region))
		}
		if defaults.Profile != "" {
			opts = append(opts, awsconfig.WithSharedConfigProfile(defaults.Profile))
		}
		if defaults.AccessKeyID != "" && defaults.SecretAccessKey != "" {
			opts = append(opts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(
					defaults.AccessKeyID, defaults.SecretAccessKey, defaults.SessionToken),
			))
		}
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if defaults != nil && defaults.SSO != nil {
		ssoCreds, err := newSSOCredentials(cfg, defaults.SSO)
		if err != nil {
			return aws.Config{}, err
		}
		cfg.Credentials = aws.NewCredentialsCache(ssoCreds)
	}

	if defaults != nil && defaults.AssumeRole != "" {
		cfg.Credentials = aws.NewCredentialsCache(&assumeRoleCredentials{
			client:  sts.NewFromConfig(cfg),
			roleARN: defaults.AssumeRole,
		})
	}

	return cfg, nil
}

// assumeRoleCredentials exchanges the base credentials for a role session.
// Expiry handling is left to the surrounding credentials cache.
type assumeRoleCredentials struct {
	client  *sts.Client
	roleARN string
}

func (p *assumeRoleCredentials) Retrieve(ctx context.Context) (aws.Credentials, error) {
	result, err := p.client.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(p.roleARN),
		RoleSessionName: aws.String(fmt.Sprintf("secretmap-%d", time.Now().Unix())),
		DurationSeconds: aws.Int32(3600),
	})
	if err != nil {
		return aws.Credentials{}, fmt.Errorf("failed to assume role %s: %w", p.roleARN, err)
	}

	creds := result.Credentials
	return aws.Credentials{
		AccessKeyID:     aws.ToString(creds.AccessKeyId),
		SecretAccessKey: aws.ToString(creds.SecretAccessKey),
		SessionToken:    aws.ToString(creds.SessionToken),
		CanExpire:       true,
		Expires:         aws.ToTime(creds.Expiration),
		Source:          "secretmapAssumeRole",
	}, nil
}

// ssoCachedToken mirrors the token files the AWS CLI writes under
// ~/.aws/sso/cache after 'aws sso login'.
type ssoCachedToken struct {
	StartURL     string    `json:"startUrl"`
	Region       string    `json:"region"`
	AccessToken  string    `json:"accessToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	ClientID     string    `json:"clientId,omitempty"`
	ClientSecret string    `json:"clientSecret,omitempty"`
	RefreshToken string    `json:"refreshToken,omitempty"`
}

// ssoCredentials resolves role credentials from an IAM Identity Center
// session. An expired portal token is refreshed through OIDC when the
// cached registration carries a refresh token; otherwise the user has to
// log in again.
type ssoCredentials struct {
	ssoClient  *sso.Client
	oidcClient *ssooidc.Client
	settings   config.SSODefaults
	cachePath  string
}

func newSSOCredentials(cfg aws.Config, settings *config.SSODefaults) (*ssoCredentials, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	regionOverride := func(region *string) {
		if settings.Region != "" {
			*region = settings.Region
		}
	}

	return &ssoCredentials{
		ssoClient: sso.NewFromConfig(cfg, func(o *sso.Options) {
			regionOverride(&o.Region)
		}),
		oidcClient: ssooidc.NewFromConfig(cfg, func(o *ssooidc.Options) {
			regionOverride(&o.Region)
		}),
		settings:  *settings,
		cachePath: filepath.Join(home, ".aws", "sso", "cache"),
	}, nil
}

func (p *ssoCredentials) Retrieve(ctx context.Context) (aws.Credentials, error) {
	token, err := p.accessToken(ctx)
	if err != nil {
		return aws.Credentials{}, err
	}

	result, err := p.ssoClient.GetRoleCredentials(ctx, &sso.GetRoleCredentialsInput{
		AccountId:   aws.String(p.settings.AccountID),
		RoleName:    aws.String(p.settings.RoleName),
		AccessToken: aws.String(token),
	})
	if err != nil {
		return aws.Credentials{}, fmt.Errorf("failed to get SSO role credentials: %w", err)
	}

	creds := result.RoleCredentials
	if creds == nil {
		return aws.Credentials{}, fmt.Errorf("SSO returned no role credentials")
	}

	return aws.Credentials{
		AccessKeyID:     aws.ToString(creds.AccessKeyId),
		SecretAccessKey: aws.ToString(creds.SecretAccessKey),
		SessionToken:    aws.ToString(creds.SessionToken),
		CanExpire:       true,
		Expires:         time.UnixMilli(creds.Expiration),
		Source:          "secretmapSSO",
	}, nil
}

// accessToken returns a valid portal token, refreshing the cached one when
// possible.
func (p *ssoCredentials) accessToken(ctx context.Context) (string, error) {
	token, err := p.loadCachedToken()
	if err != nil {
		return "", fmt.Errorf("no SSO session found, run 'aws sso login' first: %w", err)
	}

	if time.Now().Before(token.ExpiresAt) {
		return token.AccessToken, nil
	}

	refreshed, err := p.refreshToken(ctx, token)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

func (p *ssoCredentials) refreshToken(ctx context.Context, token *ssoCachedToken) (*ssoCachedToken, error) {
	if token.RefreshToken == "" || token.ClientID == "" || token.ClientSecret == "" {
		return nil, fmt.Errorf("SSO session expired, run 'aws sso login' to re-authenticate")
	}

	result, err := p.oidcClient.CreateToken(ctx, &ssooidc.CreateTokenInput{
		ClientId:     aws.String(token.ClientID),
		ClientSecret: aws.String(token.ClientSecret),
		GrantType:    aws.String("refresh_token"),
		RefreshToken: aws.String(token.RefreshToken),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to refresh SSO token: %w", err)
	}

	refreshed := *token
	refreshed.AccessToken = aws.ToString(result.AccessToken)
	refreshed.ExpiresAt = time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
	if result.RefreshToken != nil {
		refreshed.RefreshToken = *result.RefreshToken
	}

	// Persist like the CLI does so other tools see the refreshed token.
	// A read-only cache directory should not fail the fetch.
	_ = p.writeCachedToken(&refreshed)

	return &refreshed, nil
}

// loadCachedToken reads the CLI token cache entry for the configured start
// URL. Cache file names are the SHA1 of the start URL.
func (p *ssoCredentials) loadCachedToken() (*ssoCachedToken, error) {
	data, err := os.ReadFile(p.tokenCacheFile())
	if err != nil {
		return nil, err
	}

	var token ssoCachedToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}

	if token.StartURL != p.settings.StartURL {
		return nil, fmt.Errorf("cached token start URL mismatch")
	}
	return &token, nil
}

func (p *ssoCredentials) writeCachedToken(token *ssoCachedToken) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return os.WriteFile(p.tokenCacheFile(), data, 0o600)
}

func (p *ssoCredentials) tokenCacheFile() string {
	hash := fmt.Sprintf("%x", sha1.Sum([]byte(p.settings.StartURL)))
	return filepath.Join(p.cachePath, hash+".json")
}

// isAWSAuthError recognizes authorization failures across the AWS services
// by message, since each service surfaces its own error type.
func isAWSAuthError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "AccessDenied") ||
		strings.Contains(errStr, "UnauthorizedOperation") ||
		strings.Contains(errStr, "InvalidUserID") ||
		strings.Contains(errStr, "Forbidden")
}

// isVersionID reports whether a version string is a Secrets Manager version
// id (UUID) rather than a staging label.
func isVersionID(version string) bool {
	return len(version) == 36 && strings.Count(version, "-") == 4
}
