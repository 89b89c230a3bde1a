package main

import "github.com/Togather-Foundation/mozdef-proxy/cmd/server/cmd"

func main() {
	cmd.Execute()
}
