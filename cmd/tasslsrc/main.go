package main

import "github.com/goplus/tasslsrc/cmd/tasslsrc/internal"

func main() {
	internal.Execute()
}
