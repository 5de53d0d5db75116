// Command threadlab generates mating screw threads as STL meshes.
package main

import "os"

func main() {
	if err := newApp().rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
