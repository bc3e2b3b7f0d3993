// Package main provides the jssecretscanner CLI.
package main

func main() {
	Execute()
}
