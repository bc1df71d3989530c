package main

import (
	"fmt"
	"os"

	"github.com/aussiebroadwan/tabauth/internal/auth/app"
)

func main() {
	application, err := app.New(app.LoadConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "tabauth: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tabauth: %v\n", err)
		os.Exit(1)
	}
}
