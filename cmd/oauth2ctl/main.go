package main

import "go.pilab.hu/oauth2/cmd/oauth2ctl/cmd"

func main() {
	cmd.Execute()
}
