// Command tokengen mints a bearer token for a caller identity. Intended for
// standalone mode and local testing; production tokens come from the identity
// provider.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	jwttoken "vouch/internal/jwt_token"
	"vouch/internal/platform/config"
	"vouch/pkg/domain"
)

func main() {
	identity := flag.String("identity", "", "caller identity to embed in the token")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if *identity == "" {
		fmt.Fprintln(os.Stderr, "usage: tokengen -identity did:key:vol-1 [-ttl 1h]")
		os.Exit(2)
	}

	cfg := config.FromEnv()
	svc := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, "vouch", "vouch-api")

	token, err := svc.GenerateAccessToken(domain.Identity(*identity), *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tokengen: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
