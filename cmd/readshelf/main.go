package main

import (
	"readshelf/cmd/readshelf/commands"
	"readshelf/internal/components/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
