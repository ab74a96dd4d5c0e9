package main

import "github.com/iliyamo/admin-console/internal/cli"

func main() {
	cli.Execute()
}
