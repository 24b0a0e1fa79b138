package main

import "github.com/andresmejia3/facenroll/cmd"

func main() {
	cmd.Execute()
}
