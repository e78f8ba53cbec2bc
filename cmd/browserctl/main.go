package main

import "go.browserstore.dev/core/cmd/browserctl/ctlcmd"

func main() { ctlcmd.Execute() }
