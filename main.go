package main

import "github.com/mselser95/polymarket-lag/cmd"

func main() {
	cmd.Execute()
}
