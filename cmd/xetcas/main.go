package main

import "github.com/xethub/xetcas/cmd/xetcas/cmd"

func main() {
	cmd.Execute()
}
