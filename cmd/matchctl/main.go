// cmd/matchctl/main.go
// Entry point for the matchctl operator CLI.

package main

import "musicbattle-core/internal/cli"

func main() {
	cli.Execute()
}
