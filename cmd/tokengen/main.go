// Package main mints HS256 bearer tokens for local use against the tenancy API.
// Tokens are signed with the dev key unless -key or JWT_SIGNING_KEY is set.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"tenancy/pkg/platform/middleware/auth"
)

// devSigningKey matches the JWT_SIGNING_KEY default in internal/platform/config.
const devSigningKey = "dev-secret-key-change-in-production"

type tokenOutput struct {
	Token     string         `json:"token"`
	ExpiresIn string         `json:"expires_in"`
	Claims    map[string]any `json:"claims"`
}

func main() {
	subject := flag.String("sub", "demo|owner", "Acting user id (JWT sub)")
	givenName := flag.String("given-name", "Demo", "given_name claim")
	familyName := flag.String("family-name", "Owner", "family_name claim")
	ttl := flag.Duration("ttl", 15*time.Minute, "Token time-to-live")
	key := flag.String("key", "", "Signing key (defaults to JWT_SIGNING_KEY, then the dev key)")
	asJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	signingKey := *key
	if signingKey == "" {
		signingKey = os.Getenv("JWT_SIGNING_KEY")
	}
	if signingKey == "" {
		signingKey = devSigningKey
	}

	token, err := auth.Sign(signingKey, auth.NewClaims(*subject, *givenName, *familyName, time.Now(), *ttl))
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}

	if !*asJSON {
		fmt.Println(token)
		return
	}
	out := tokenOutput{
		Token:     token,
		ExpiresIn: ttl.String(),
		Claims: map[string]any{
			"sub":         *subject,
			"given_name":  *givenName,
			"family_name": *familyName,
		},
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		os.Exit(1)
	}
}
