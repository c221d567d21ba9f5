package main

import "github.com/likhith1253/chemicalanalyzer/internal/cli"

func main() {
	cli.Execute()
}
