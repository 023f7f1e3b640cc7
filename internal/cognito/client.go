// Package cognito wraps the Cognito EMAIL_OTP flow used for passwordless
// guest sign-in.
package cognito

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/codr1/Lodgeicious/internal/config"
)

var (
	ErrThrottled     = errors.New("cognito throttling")
	ErrNotAuthorized = errors.New("cognito not authorized")
	ErrExpiredCode   = errors.New("cognito code expired")
	ErrCodeMismatch  = errors.New("cognito code mismatch")
	ErrUserExists    = errors.New("cognito user already exists")
	ErrUserNotFound  = errors.New("cognito user not found")
)

// API is the subset of the Cognito SDK the client calls.
type API interface {
	InitiateAuth(ctx context.Context, in *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	RespondToAuthChallenge(ctx context.Context, in *cognitoidentityprovider.RespondToAuthChallengeInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.RespondToAuthChallengeOutput, error)
	AdminCreateUser(ctx context.Context, in *cognitoidentityprovider.AdminCreateUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminCreateUserOutput, error)
}

type Client struct {
	api      API
	poolID   string
	clientID string
}

// NewClient creates a Cognito client. The region comes from the pool ID
// (format "region_poolid").
func NewClient(cfg config.AuthConfig) (*Client, error) {
	region, err := regionFromPoolID(cfg.CognitoPoolID)
	if err != nil {
		return nil, err
	}
	if cfg.CognitoClientID == "" {
		return nil, fmt.Errorf("cognito client id is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return NewWithAPI(cognitoidentityprovider.NewFromConfig(awsCfg), cfg.CognitoPoolID, cfg.CognitoClientID), nil
}

func NewWithAPI(api API, poolID, clientID string) *Client {
	return &Client{api: api, poolID: poolID, clientID: clientID}
}

// InitiateEmailOTP starts the EMAIL_OTP flow and returns the session to
// present with the code. Unknown users are created first.
func (c *Client) InitiateEmailOTP(ctx context.Context, email string) (string, error) {
	out, err := c.initiate(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		if err := c.CreateUser(ctx, email); err != nil && !errors.Is(err, ErrUserExists) {
			return "", err
		}
		out, err = c.initiate(ctx, email)
	}
	if err != nil {
		return "", err
	}
	if out.Session == nil || *out.Session == "" {
		return "", fmt.Errorf("cognito returned no session for email otp")
	}
	return *out.Session, nil
}

func (c *Client) initiate(ctx context.Context, email string) (*cognitoidentityprovider.InitiateAuthOutput, error) {
	out, err := c.api.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserAuth,
		ClientId: aws.String(c.clientID),
		AuthParameters: map[string]string{
			"USERNAME":            email,
			"PREFERRED_CHALLENGE": "EMAIL_OTP",
		},
	})
	if err != nil {
		return nil, mapCognitoError(err)
	}
	return out, nil
}

// VerifyEmailOTP checks the code. A nil error means Cognito issued tokens.
func (c *Client) VerifyEmailOTP(ctx context.Context, session, email, code string) error {
	out, err := c.api.RespondToAuthChallenge(ctx, &cognitoidentityprovider.RespondToAuthChallengeInput{
		ChallengeName: types.ChallengeNameTypeEmailOtp,
		ClientId:      aws.String(c.clientID),
		Session:       aws.String(session),
		ChallengeResponses: map[string]string{
			"USERNAME":       email,
			"EMAIL_OTP_CODE": code,
		},
	})
	if err != nil {
		return mapCognitoError(err)
	}
	if out.AuthenticationResult == nil {
		return fmt.Errorf("%w: challenge %s still open", ErrCodeMismatch, out.ChallengeName)
	}
	return nil
}

// CreateUser creates a verified pool user without a welcome email.
func (c *Client) CreateUser(ctx context.Context, email string) error {
	_, err := c.api.AdminCreateUser(ctx, &cognitoidentityprovider.AdminCreateUserInput{
		UserPoolId:    aws.String(c.poolID),
		Username:      aws.String(email),
		MessageAction: types.MessageActionTypeSuppress,
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("email_verified"), Value: aws.String("true")},
		},
	})
	if err != nil {
		return mapCognitoError(err)
	}
	return nil
}

func mapCognitoError(err error) error {
	var throttled *types.TooManyRequestsException
	if errors.As(err, &throttled) {
		return fmt.Errorf("%w: %v", ErrThrottled, err)
	}
	var notAuthorized *types.NotAuthorizedException
	if errors.As(err, &notAuthorized) {
		return fmt.Errorf("%w: %v", ErrNotAuthorized, err)
	}
	var expired *types.ExpiredCodeException
	if errors.As(err, &expired) {
		return fmt.Errorf("%w: %v", ErrExpiredCode, err)
	}
	var mismatch *types.CodeMismatchException
	if errors.As(err, &mismatch) {
		return fmt.Errorf("%w: %v", ErrCodeMismatch, err)
	}
	var userExists *types.UsernameExistsException
	if errors.As(err, &userExists) {
		return fmt.Errorf("%w: %v", ErrUserExists, err)
	}
	var notFound *types.UserNotFoundException
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", ErrUserNotFound, err)
	}
	return err
}

func regionFromPoolID(poolID string) (string, error) {
	parts := strings.SplitN(poolID, "_", 2)
	if len(parts) < 2 || parts[0] == "" {
		return "", fmt.Errorf("invalid cognito pool id: %q", poolID)
	}
	return parts[0], nil
}
