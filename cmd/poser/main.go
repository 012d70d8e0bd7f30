// Command poser is the posing studio: an interactive viewer, a pose
// server, and one-shot tools for the pose code format.
package main

func main() {
	Execute()
}
