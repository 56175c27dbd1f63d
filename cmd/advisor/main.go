// Command advisor asks for crypto portfolio advice with live prices attached.
package main

import "github.com/diogo/advisor/internal/commands"

func main() {
	commands.Execute()
}
