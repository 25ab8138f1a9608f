package main

import "github.com/kumpetisi/pushbike-service-manager-go/cmd"

func main() {
	cmd.Execute()
}
