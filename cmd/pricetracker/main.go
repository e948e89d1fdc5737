package main

import (
	"pricetracker/cmd/pricetracker/commands"
	"pricetracker/lib/util/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
