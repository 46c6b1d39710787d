// Command token prints an API bearer token signed with JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	jwtmw "fxchart_backend/internal/platform/jwt"
)

func main() {
	sub := flag.String("sub", "", "token subject (API client name)")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	// .envを読み込む
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] .env not found; using system environment variables")
	}

	token, err := jwtmw.NewGenerator(os.Getenv("JWT_SECRET"), *ttl).GenerateToken(*sub)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}
	fmt.Println(token)
}
