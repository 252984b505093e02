package main

import "github.com/frahmantamala/agency-dashboard/cmd"

func main() {
	cmd.Execute()
}
