// Command devtoken prints an access token for local testing of the API,
// e.g. devtoken -sub 42 -role hotelier.  The secret is read from
// JWT_SECRET (or .env).
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/hotel-booking-engine/internal/model"
	"github.com/iliyamo/hotel-booking-engine/internal/utils"
)

func main() {
	sub := flag.Uint64("sub", 1, "user id placed in the sub claim")
	role := flag.String("role", string(model.RoleGuest), "guest, hotelier or admin")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}
	tok, err := utils.NewAccessToken(secret, *sub, model.Role(*role), *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(tok.Token)
}
