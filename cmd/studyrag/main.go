package main

import "studyrag/internal/cli"

func main() {
	cli.Execute()
}
