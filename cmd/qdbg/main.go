// Command qdbg is a time-travel debugger for quantum assembly: step
// forward and backward, set breakpoints, inspect state, explain a
// failed assertion.
package main

func main() {
	Execute()
}
