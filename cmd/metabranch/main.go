package main

import "github.com/metabranch/metabranch/cmd/metabranch/cmd"

func main() {
	cmd.Execute()
}
