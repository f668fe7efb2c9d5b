package main

import "github.com/jirasafe/jirasafe/internal/cli"

func main() {
	cli.Execute()
}
