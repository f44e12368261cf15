package main

import "github.com/frahmantamala/personnel-suite/cmd"

func main() {
	cmd.Execute()
}
