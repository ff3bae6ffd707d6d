// cmd/mhcbind/main.go
package main

import (
	"mhcbind/internal/app"
	"mhcbind/internal/appshell"
)

func main() {
	appshell.Main(app.RunContext)
}
