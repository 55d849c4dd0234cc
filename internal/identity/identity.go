package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cognitotypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/meetfood/backend/internal/config"
)

var (
	// ErrInvalidToken indicates the presented token was rejected by the
	// identity provider: expired, malformed, revoked, or wrong pool.
	ErrInvalidToken = errors.New("identity: invalid token")
	// ErrUnavailable indicates the identity provider could not be reached.
	ErrUnavailable = errors.New("identity: provider unavailable")
)

// Verifier resolves an opaque bearer token to the stable subject identifier
// issued by the identity provider.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Admin performs privileged account operations against the identity provider.
type Admin interface {
	DeleteAccount(ctx context.Context, username string) error
}

// cognitoAPI is the slice of the Cognito client the package depends on.
type cognitoAPI interface {
	GetUser(ctx context.Context, params *cognito.GetUserInput, optFns ...func(*cognito.Options)) (*cognito.GetUserOutput, error)
	AdminDeleteUser(ctx context.Context, params *cognito.AdminDeleteUserInput, optFns ...func(*cognito.Options)) (*cognito.AdminDeleteUserOutput, error)
}

// CognitoClient verifies tokens and administers accounts against a single
// Cognito user pool. Tokens are re-verified against the service on every
// call; nothing is cached, so expiry and revocation take effect immediately.
type CognitoClient struct {
	api  cognitoAPI
	pool string
}

// NewCognitoClient dials Cognito in the configured region.
func NewCognitoClient(ctx context.Context, cfg config.CognitoConfig) (*CognitoClient, error) {
	if strings.TrimSpace(cfg.UserPoolID) == "" {
		return nil, fmt.Errorf("cognito: user pool id is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &CognitoClient{
		api:  cognito.NewFromConfig(awsCfg),
		pool: cfg.UserPoolID,
	}, nil
}

// Verify asks Cognito to resolve the access token and returns the sub
// attribute of the authenticated principal.
func (c *CognitoClient) Verify(ctx context.Context, token string) (string, error) {
	out, err := c.api.GetUser(ctx, &cognito.GetUserInput{
		AccessToken: aws.String(token),
	})
	if err != nil {
		return "", classifyVerifyError(err)
	}

	for _, attr := range out.UserAttributes {
		if aws.ToString(attr.Name) == "sub" {
			return aws.ToString(attr.Value), nil
		}
	}

	return "", fmt.Errorf("%w: token resolved without a subject", ErrInvalidToken)
}

// DeleteAccount removes the account from the configured user pool.
func (c *CognitoClient) DeleteAccount(ctx context.Context, username string) error {
	_, err := c.api.AdminDeleteUser(ctx, &cognito.AdminDeleteUserInput{
		UserPoolId: aws.String(c.pool),
		Username:   aws.String(username),
	})
	if err != nil {
		return fmt.Errorf("cognito admin delete user: %w", err)
	}
	return nil
}

func classifyVerifyError(err error) error {
	var notAuthorized *cognitotypes.NotAuthorizedException
	var notFound *cognitotypes.UserNotFoundException
	var notConfirmed *cognitotypes.UserNotConfirmedException
	var resetRequired *cognitotypes.PasswordResetRequiredException

	switch {
	case errors.As(err, &notAuthorized),
		errors.As(err, &notFound),
		errors.As(err, &notConfirmed),
		errors.As(err, &resetRequired):
		return fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	default:
		return fmt.Errorf("%w: %s", ErrUnavailable, err.Error())
	}
}

var _ Verifier = (*CognitoClient)(nil)
var _ Admin = (*CognitoClient)(nil)
