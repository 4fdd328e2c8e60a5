package main

import (
	"log"
	"os"
)

func main() {
	run()
}

func run() {
	panic("unreachable") // want "found usage of panic"

	log.Fatal("config missing") // want "found usage of log.Fatal outside of main function"

	log.Fatalf("bad value %d", 1) // want "found usage of log.Fatalf outside of main function"

	logger := log.New(os.Stderr, "", 0)
	logger.Fatalln("stopped") // want "found usage of log.Logger.Fatalln outside of main function"

	os.Exit(1) // want "found usage of os.Exit outside of main function"
}
