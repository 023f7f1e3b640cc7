package cognito

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

type fakeAPI struct {
	knownUsers map[string]bool
	created    []string
	code       string
}

func (f *fakeAPI) InitiateAuth(_ context.Context, in *cognitoidentityprovider.InitiateAuthInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error) {
	user := in.AuthParameters["USERNAME"]
	if !f.knownUsers[user] {
		return nil, &types.UserNotFoundException{Message: aws.String("User does not exist.")}
	}
	return &cognitoidentityprovider.InitiateAuthOutput{
		ChallengeName: types.ChallengeNameTypeEmailOtp,
		Session:       aws.String("session-" + user),
	}, nil
}

func (f *fakeAPI) RespondToAuthChallenge(_ context.Context, in *cognitoidentityprovider.RespondToAuthChallengeInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.RespondToAuthChallengeOutput, error) {
	if in.ChallengeResponses["EMAIL_OTP_CODE"] != f.code {
		return nil, &types.CodeMismatchException{Message: aws.String("Invalid code")}
	}
	return &cognitoidentityprovider.RespondToAuthChallengeOutput{
		AuthenticationResult: &types.AuthenticationResultType{AccessToken: aws.String("token")},
	}, nil
}

func (f *fakeAPI) AdminCreateUser(_ context.Context, in *cognitoidentityprovider.AdminCreateUserInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminCreateUserOutput, error) {
	user := aws.ToString(in.Username)
	if f.knownUsers[user] {
		return nil, &types.UsernameExistsException{Message: aws.String("exists")}
	}
	f.knownUsers[user] = true
	f.created = append(f.created, user)
	return &cognitoidentityprovider.AdminCreateUserOutput{}, nil
}

func TestInitiateEmailOTPCreatesUnknownUsers(t *testing.T) {
	api := &fakeAPI{knownUsers: map[string]bool{"known@example.com": true}, code: "123456"}
	c := NewWithAPI(api, "us-east-1_pool", "client")

	session, err := c.InitiateEmailOTP(context.Background(), "known@example.com")
	if err != nil || session != "session-known@example.com" {
		t.Fatalf("unexpected session %q (%v)", session, err)
	}
	if len(api.created) != 0 {
		t.Fatalf("expected no user creation for a known user")
	}

	session, err = c.InitiateEmailOTP(context.Background(), "new@example.com")
	if err != nil || session != "session-new@example.com" {
		t.Fatalf("unexpected session %q (%v)", session, err)
	}
	if len(api.created) != 1 || api.created[0] != "new@example.com" {
		t.Fatalf("expected new user created, got %v", api.created)
	}
}

func TestVerifyEmailOTPMapsErrors(t *testing.T) {
	api := &fakeAPI{knownUsers: map[string]bool{}, code: "123456"}
	c := NewWithAPI(api, "us-east-1_pool", "client")

	if err := c.VerifyEmailOTP(context.Background(), "s", "a@example.com", "123456"); err != nil {
		t.Fatalf("expected valid code to verify: %v", err)
	}
	if err := c.VerifyEmailOTP(context.Background(), "s", "a@example.com", "000000"); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch, got %v", err)
	}
}

func TestRegionFromPoolID(t *testing.T) {
	region, err := regionFromPoolID("eu-west-2_AbCdEf")
	if err != nil || region != "eu-west-2" {
		t.Fatalf("unexpected region %q (%v)", region, err)
	}
	if _, err := regionFromPoolID("nopool"); err == nil {
		t.Fatalf("expected malformed pool id to fail")
	}
}
