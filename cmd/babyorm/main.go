// Command babyorm manages migrations and model files of a babyorm project.
package main

import "github.com/marshallshelly/babyorm/cmd/babyorm/commands"

func main() {
	commands.Execute()
}
