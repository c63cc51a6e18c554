package firebase

import (
	"context"
	"fmt"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/yukikurage/teamtask/internal/services"
)

// NewApp initializes the Firebase app from a service account file.
func NewApp(ctx context.Context, credentialsPath, bucket string) (*firebase.App, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path is not set")
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{StorageBucket: bucket}, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase: %w", err)
	}
	return app, nil
}

// Bucket returns the attachment bucket handle.
func Bucket(ctx context.Context, app *firebase.App, name string) (*gcs.BucketHandle, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get storage client: %w", err)
	}

	bucket, err := client.Bucket(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %s: %w", name, err)
	}
	return bucket, nil
}

// TokenVerifier checks Firebase ID tokens.
type TokenVerifier struct {
	client *auth.Client
}

func NewTokenVerifier(ctx context.Context, app *firebase.App) (*TokenVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get auth client: %w", err)
	}
	return &TokenVerifier{client: client}, nil
}

func (v *TokenVerifier) Verify(ctx context.Context, idToken string) (*services.Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}

	email, _ := token.Claims["email"].(string)
	return &services.Identity{UID: token.UID, Email: email}, nil
}
