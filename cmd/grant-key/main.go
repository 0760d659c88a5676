// Package main provides a one-shot utility for access token key generation.
//
// It emits the asymmetric keypair the policy API uses to verify bearer
// tokens.
package main

import (
	"os"

	"github.com/aarons2222/letlog/internal/platform/config"
	"github.com/aarons2222/letlog/internal/tools/grantkey"
)

func main() {
	if err := grantkey.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate access token key: %v", err)
	}
}
