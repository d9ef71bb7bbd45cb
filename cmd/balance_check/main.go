// Package main provides a debugging tool that resolves one address
// balance through the configured oracles.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/whale-tracker/internal/config"
	"github.com/whale-tracker/internal/extract"
	"github.com/whale-tracker/internal/oracle"
	"github.com/whale-tracker/internal/types"
)

func main() {
	var (
		address = flag.String("address", "", "Address to look up")
		network = flag.String("network", "", "Network override (default: classify from shape)")
		timeout = flag.Duration("timeout", 15*time.Second, "Overall lookup budget")
	)
	flag.Parse()

	if *address == "" {
		fmt.Fprintln(os.Stderr, "Usage: balance_check -address <address> [-network ethereum|solana|bitcoin]")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	service, err := oracle.NewService(cfg.Oracle)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize oracles: %v\n", err)
		os.Exit(1)
	}

	var net types.Network
	if *network != "" {
		parsed, ok := types.ParseNetwork(*network)
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown network %q (want ethereum, solana, or bitcoin)\n", *network)
			os.Exit(1)
		}
		net = parsed
	} else {
		candidates := extract.Extract(*address)
		if len(candidates) == 0 {
			fmt.Fprintf(os.Stderr, "Address %q does not match any known network shape\n", *address)
			os.Exit(1)
		}
		net = candidates[0].Network
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fact := service.Lookup(ctx, *address, net)

	fmt.Printf("Address:  %s\n", fact.Address)
	fmt.Printf("Network:  %s\n", fact.Network)
	if fact.Known {
		fmt.Printf("Balance:  $%.2f USD\n", fact.USD)
	} else {
		fmt.Println("Balance:  unknown")
	}
}
