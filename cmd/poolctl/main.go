package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/northlane/contentpool/internal/app"
)

// poolctl is the administrative CLI for the Pool Index and Allocation
// Ledger (spec §3 lifecycle: "pool entries ... drained
// administratively"; "the entire record may be cleared administratively
// ('reset user')").
func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "drain-pool":
		drainPool(os.Args[2:])
	case "reset-user":
		resetUser(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: poolctl drain-pool -category <id> | reset-user -user <id>")
}

func drainPool(args []string) {
	fs := flag.NewFlagSet("drain-pool", flag.ExitOnError)
	category := fs.String("category", "", "category id to drain")
	fs.Parse(args)
	if *category == "" {
		fmt.Println("drain-pool: -category is required")
		os.Exit(1)
	}

	a, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(2)
	}
	defer a.Close()

	if err := a.Clients.Redis.Pool().Drop(context.Background(), *category); err != nil {
		fmt.Printf("drain-pool failed: %v\n", err)
		os.Exit(2)
	}
	fmt.Printf("drained pool for category %s\n", *category)
}

func resetUser(args []string) {
	fs := flag.NewFlagSet("reset-user", flag.ExitOnError)
	userID := fs.String("user", "", "user id to reset")
	fs.Parse(args)
	if *userID == "" {
		fmt.Println("reset-user: -user is required")
		os.Exit(1)
	}

	a, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(2)
	}
	defer a.Close()

	if err := a.Clients.Redis.Ledger().Reset(context.Background(), *userID); err != nil {
		fmt.Printf("reset-user failed: %v\n", err)
		os.Exit(2)
	}
	fmt.Printf("reset allocation record for user %s\n", *userID)
}
