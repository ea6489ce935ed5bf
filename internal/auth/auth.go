// Package auth turns bearer tokens into explicit actor identities. Every core
// operation takes the Actor as a parameter; nothing reads a process-wide
// current user.
package auth

import (
	"context"
	"fmt"

	firebaseauth "firebase.google.com/go/v4/auth"
)

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID    string
	Email string
}

// Authenticated reports whether the actor carries a verified identity.
func (a Actor) Authenticated() bool {
	return a.ID != ""
}

// Verifier validates a bearer token and returns the actor it identifies.
type Verifier interface {
	Verify(ctx context.Context, token string) (Actor, error)
}

// FirebaseVerifier validates Firebase ID tokens issued by the identity
// provider the clients sign in against.
type FirebaseVerifier struct {
	client *firebaseauth.Client
}

// NewFirebaseVerifier wraps a Firebase auth client.
func NewFirebaseVerifier(client *firebaseauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

// Verify checks the ID token signature and expiry and extracts the stable
// user ID and email.
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (Actor, error) {
	t, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	actor := Actor{ID: t.UID}
	if email, ok := t.Claims["email"].(string); ok {
		actor.Email = email
	}
	return actor, nil
}
