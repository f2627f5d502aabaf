package main

import (
	"os"

	appLog "marktime/internal/log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		appLog.Error("marktime failed", err)
		os.Exit(1)
	}
}
