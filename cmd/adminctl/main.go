package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"

	httpmiddleware "github.com/devdanielvaldez/autoclinic-bot/internal/http/middleware"
)

const usage = `Usage:
  adminctl paused
  adminctl pause <phone>
  adminctl resume <phone>
  adminctl booking <code>
  adminctl status <code> <pending|confirmed|in-progress|completed>`

func main() {
	_ = godotenv.Load()

	secret := os.Getenv("ADMIN_JWT_SECRET")
	if secret == "" {
		fmt.Println("Error: ADMIN_JWT_SECRET environment variable not set")
		os.Exit(1)
	}
	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}

	req, err := buildRequest(apiURL, os.Args[1:])
	if err != nil {
		fmt.Println(err)
		fmt.Println(usage)
		os.Exit(1)
	}
	token, err := adminToken(secret, time.Hour)
	if err != nil {
		fmt.Printf("Error signing token: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Error: HTTP %d\n", resp.StatusCode)
		fmt.Printf("Response: %s\n", string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Response: %s\n", string(body))
		return
	}
	prettyJSON, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(prettyJSON))
}

func adminToken(secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := httpmiddleware.AdminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "adminctl",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func buildRequest(apiURL string, args []string) (*http.Request, error) {
	if len(args) == 0 {
		return nil, errors.New("missing command")
	}
	base := strings.TrimRight(apiURL, "/") + "/admin"
	need := func(n int) error {
		if len(args) < n {
			return fmt.Errorf("%s: missing argument", args[0])
		}
		return nil
	}

	switch args[0] {
	case "paused":
		return http.NewRequest(http.MethodGet, base+"/paused", nil)
	case "pause", "resume":
		if err := need(2); err != nil {
			return nil, err
		}
		return http.NewRequest(http.MethodPost, base+"/sessions/"+args[1]+"/"+args[0], nil)
	case "booking":
		if err := need(2); err != nil {
			return nil, err
		}
		return http.NewRequest(http.MethodGet, base+"/bookings/"+args[1], nil)
	case "status":
		if err := need(3); err != nil {
			return nil, err
		}
		payload, _ := json.Marshal(map[string]string{"status": args[2]})
		req, err := http.NewRequest(http.MethodPatch, base+"/bookings/"+args[1]+"/status", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	default:
		return nil, fmt.Errorf("unknown command %q", args[0])
	}
}
