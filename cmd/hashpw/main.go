// Command hashpw prints a bcrypt hash suitable for AUTH_PASSWORD.
//
// Usage:
//
//	hashpw            # reads the password from stdin
//	hashpw -check     # also rejects weak passwords
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	pkgauth "github.com/BradenHooton/showcase/pkg/auth"
)

func main() {
	check := flag.Bool("check", false, "reject passwords that fail the strength check")
	flag.Parse()

	fmt.Fprint(os.Stderr, "Password: ")
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil && password == "" {
		fmt.Fprintln(os.Stderr, "failed to read password:", err)
		os.Exit(1)
	}
	password = strings.TrimRight(password, "\r\n")

	if password == "" {
		fmt.Fprintln(os.Stderr, "password must not be empty")
		os.Exit(1)
	}

	if *check {
		if err := pkgauth.ValidatePassword(password); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to hash password:", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
