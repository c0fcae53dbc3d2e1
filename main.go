package main

import "github.com/frahmantamala/charity-reminder/cmd"

func main() {
	cmd.Execute()
}
