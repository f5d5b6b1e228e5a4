package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/xelth-com/soletrack/internal/config"
	"github.com/xelth-com/soletrack/internal/utils"
)

type request struct {
	subject string
	role    string
	ttl     time.Duration
}

func parseArgs(args []string) (request, error) {
	req := request{role: "operator", ttl: 24 * time.Hour}
	for i := 0; i < len(args); i++ {
		if i+1 >= len(args) {
			return req, fmt.Errorf("%s needs a value", args[i])
		}
		value := args[i+1]
		switch args[i] {
		case "--sub":
			req.subject = value
		case "--role":
			req.role = value
		case "--ttl":
			d, err := time.ParseDuration(value)
			if err != nil || d <= 0 {
				return req, fmt.Errorf("invalid --ttl %q", value)
			}
			req.ttl = d
		default:
			return req, fmt.Errorf("unknown argument %q", args[i])
		}
		i++
	}
	if req.subject == "" {
		return req, fmt.Errorf("--sub is required")
	}
	return req, nil
}

// Prints a bearer token for POST /api/alerts/generate, e.g. for a cron job
// or an operator dashboard.
func main() {
	req, err := parseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("❌ %v (usage: issue_token --sub name [--role operator] [--ttl 24h])", err)
	}

	secret, err := config.LoadJWTSecret()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	token, err := utils.GenerateToken(req.subject, req.role, secret, req.ttl)
	if err != nil {
		log.Fatalf("❌ Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
